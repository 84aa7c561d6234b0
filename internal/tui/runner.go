// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

// ErrUnexpectedModel is returned when the program exits with a model of another type.
var ErrUnexpectedModel = errors.New("unexpected TUI model")

// Source is a stream of envelopes. Both in-process and remote streams implement it.
type Source interface {
	Envelopes() <-chan progress.Envelope
}

// erroredSource is a Source that can report why it ended.
type erroredSource interface {
	Err() error
}

// Runner manages the TUI application and feeds it envelopes.
type Runner struct {
	model   *Model
	program *tea.Program
}

// NewRunner creates a new TUI runner for model. Without options the program uses the
// alternate screen of the terminal.
func NewRunner(model *Model, opts ...tea.ProgramOption) *Runner {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &Runner{
		model:   model,
		program: tea.NewProgram(model, opts...),
	}
}

// Run shows the TUI until the user quits, or until the stream ends when the model
// quits automatically. Cancelling ctx quits the TUI.
func (r *Runner) Run(ctx context.Context, src Source) (*Model, error) {
	stop := context.AfterFunc(ctx, r.program.Quit)
	defer stop()

	go r.pump(src)

	final, err := r.program.Run()
	if err != nil {
		return r.model, err
	}

	m, ok := final.(*Model)
	if !ok {
		return r.model, ErrUnexpectedModel
	}

	return m, nil
}

func (r *Runner) pump(src Source) {
	for env := range src.Envelopes() {
		r.program.Send(EnvelopeMsg{Envelope: env})
	}

	var err error
	if es, ok := src.(erroredSource); ok {
		err = es.Err()
	}

	r.program.Send(StreamClosedMsg{Err: err})
}
