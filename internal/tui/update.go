// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

const (
	defaultWidth         = 80
	minBarWidth          = 10
	maxBarWidth          = 40
	labelWidth           = 16
	stepDurationRounding = 100 * time.Millisecond
)

// EnvelopeMsg wraps a progress envelope for the tea framework.
type EnvelopeMsg struct {
	Envelope progress.Envelope
}

// StreamClosedMsg indicates that the envelope stream has ended.
type StreamClosedMsg struct {
	Err error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case EnvelopeMsg:
		m.processEnvelope(msg.Envelope)
		return m, nil

	case StreamClosedMsg:
		m.streamClosed(msg.Err)
		if m.autoQuit {
			m.quitting = true
			return m, tea.Quit
		}

		return m, nil
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if !m.ended && m.cancel != nil {
			m.cancel()
		}

		m.quitting = true

		return m, tea.Quit
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	var view strings.Builder

	title := m.title
	if m.jobID != "" {
		title = fmt.Sprintf("%s · job %s", m.title, m.jobID)
	}

	view.WriteString(m.styles.Title.Render(title))
	view.WriteString("\n")

	for _, n := range m.steps {
		m.renderStep(&view, n)
	}

	view.WriteString("\n")
	view.WriteString(m.renderOutcome())
	view.WriteString("\n")

	help := "'q' to cancel the run and quit"
	if m.ended {
		help = "'q' to quit and return to terminal"
	}

	view.WriteString(m.styles.Help.Render(help))
	view.WriteString("\n")

	return view.String()
}

// renderStep renders a single step line: icon, label, bar, percent and the latest message.
func (m *Model) renderStep(b *strings.Builder, n *StepNode) {
	var icon, label string

	switch n.Status {
	case StatusRunning:
		icon = m.spinner.View()
		label = m.styles.Running.Render(pad(n.Label, labelWidth))
	case StatusSuccess:
		icon = "✅"
		label = m.styles.Success.Render(pad(n.Label, labelWidth))
	case StatusFailed:
		icon = "❌"
		label = m.styles.Failed.Render(pad(n.Label, labelWidth))
	case StatusCancelled:
		icon = "⛔"
		label = m.styles.Pending.Render(pad(n.Label, labelWidth))
	default:
		icon = "⏳"
		label = m.styles.Pending.Render(pad(n.Label, labelWidth))
	}

	fmt.Fprintf(b, "%s %s %s %3d%%", icon, label, m.bar.ViewAs(float64(n.Percent)/100), n.Percent)

	if n.StartTime != nil {
		elapsed := time.Since(*n.StartTime)
		if n.EndTime != nil {
			elapsed = n.EndTime.Sub(*n.StartTime)
		}

		b.WriteString(m.styles.Output.Render(fmt.Sprintf(" (%v)", elapsed.Round(stepDurationRounding))))
	}

	if n.Message != "" && n.Status == StatusRunning {
		b.WriteString(" ")
		b.WriteString(m.styles.Output.Render(n.Message))
	}

	b.WriteString("\n")
}

func (m *Model) renderOutcome() string {
	switch {
	case m.failure != nil:
		return m.styles.Failed.Render(fmt.Sprintf("❌ %s [%s]", m.failure.Message, m.failure.ErrorCode))
	case m.result != nil:
		return m.styles.Success.Render(fmt.Sprintf("✅ %s", m.result.Message))
	case m.streamErr != nil:
		return m.styles.Error.Render(fmt.Sprintf("⚠️  stream failed: %v", m.streamErr))
	case m.cancelled:
		return m.styles.Pending.Render("⛔ run cancelled")
	}

	return m.styles.Running.Render("running...")
}

func barWidth(width int) int {
	w := width - labelWidth - 30
	if w < minBarWidth {
		return minBarWidth
	}

	if w > maxBarWidth {
		return maxBarWidth
	}

	return w
}

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}

	return s + strings.Repeat(" ", width-len(r))
}
