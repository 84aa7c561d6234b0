// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

// StepStatus represents the current state of a step in the TUI.
type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusCancelled
)

// String returns a string representation of the step status.
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StepNode is the display state of one step.
type StepNode struct {
	Name      string
	Label     string
	Status    StepStatus
	Percent   int
	Message   string
	StartTime *time.Time
	EndTime   *time.Time
}

func (n *StepNode) start(at time.Time) {
	if n.StartTime == nil {
		n.StartTime = &at
	}
}

func (n *StepNode) finish(status StepStatus, at time.Time) {
	n.Status = status
	if n.EndTime == nil {
		n.EndTime = &at
	}
}

// Model represents the TUI application state.
type Model struct {
	title    string
	jobID    string
	steps    []*StepNode
	index    map[string]*StepNode
	bar      bprogress.Model
	spinner  spinner.Model
	cancel   func()
	autoQuit bool
	width    int
	height   int

	result    *progress.Result
	failure   *progress.Event
	ended     bool
	cancelled bool
	streamErr error
	quitting  bool

	styles *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
	}
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithCancel sets the function called when the user quits while the run is live.
func WithCancel(cancel func()) ModelOption {
	return func(m *Model) {
		m.cancel = cancel
	}
}

// WithAutoQuit makes the TUI exit as soon as the stream ends instead of waiting for the user.
func WithAutoQuit() ModelOption {
	return func(m *Model) {
		m.autoQuit = true
	}
}

// NewModel creates a new TUI model for the run of jobID. Steps are shown in the given
// order; steps reported by the run that are not listed are appended as they appear.
func NewModel(title, jobID string, steps []api.StepInfo, opts ...ModelOption) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	styles := NewStyles()
	s.Style = styles.Running

	m := &Model{
		title:   title,
		jobID:   jobID,
		index:   make(map[string]*StepNode, len(steps)),
		bar:     bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithoutPercentage()),
		spinner: s,
		width:   defaultWidth,
		styles:  styles,
	}

	m.bar.Width = barWidth(defaultWidth)

	for _, st := range steps {
		m.node(st.Name, st.Label)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Steps returns the display state of the steps in order.
func (m *Model) Steps() []StepNode {
	out := make([]StepNode, 0, len(m.steps))
	for _, n := range m.steps {
		out = append(out, *n)
	}

	return out
}

// Result returns the result of the run, if it succeeded.
func (m *Model) Result() *progress.Result {
	return m.result
}

// Failure returns the terminal error event, if the run failed.
func (m *Model) Failure() *progress.Event {
	return m.failure
}

// Ended reports whether the stream has ended.
func (m *Model) Ended() bool {
	return m.ended
}

// Cancelled reports whether the stream ended without an outcome.
func (m *Model) Cancelled() bool {
	return m.cancelled
}

// Err returns the error that ended the stream, if any.
func (m *Model) Err() error {
	return m.streamErr
}

func (m *Model) node(name, label string) *StepNode {
	if n, ok := m.index[name]; ok {
		return n
	}

	if label == "" {
		label = name
	}

	n := &StepNode{Name: name, Label: label}
	m.index[name] = n
	m.steps = append(m.steps, n)

	return n
}

// processEnvelope applies one envelope to the step states.
func (m *Model) processEnvelope(env progress.Envelope) {
	at := env.EmittedAt
	if at.IsZero() {
		at = time.Now()
	}

	switch {
	case env.Kind == progress.KindResult:
		m.result = env.Result
		return

	case env.IsTerminalError():
		ev := *env.Progress
		m.failure = &ev

		for _, n := range m.steps {
			if n.Status == StatusRunning {
				n.finish(StatusFailed, at)
			}
		}

		return

	case env.Progress == nil:
		return

	case env.Progress.Step == progress.StepEnd:
		return
	}

	ev := env.Progress
	n := m.node(ev.Step, "")
	n.start(at)
	n.Message = ev.Message

	if p, ok := ev.PercentValue(); ok && p >= n.Percent {
		n.Percent = p
	}

	switch ev.StepStatus {
	case progress.StepFinished:
		if ev.Result == progress.OutcomeFail {
			n.finish(StatusFailed, at)
		} else {
			n.finish(StatusSuccess, at)
		}
	default:
		n.Status = StatusRunning
	}
}

// streamClosed records the end of the stream. A stream that ends without an outcome was
// cancelled, and any step still running is marked so.
func (m *Model) streamClosed(err error) {
	m.ended = true
	m.streamErr = err

	if m.result != nil || m.failure != nil {
		return
	}

	m.cancelled = true
	now := time.Now()

	for _, n := range m.steps {
		if n.Status == StatusRunning {
			n.finish(StatusCancelled, now)
		}
	}
}
