// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package render writes progress envelopes for people and for scripts.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

var (
	// ErrMarshalEnvelope is returned when an envelope cannot be encoded.
	ErrMarshalEnvelope = errors.New("failed to marshal envelope")
	// ErrWrite is returned when the output cannot be written.
	ErrWrite = errors.New("failed to write output")
)

// Printer writes envelopes to a writer, either as indented and optionally coloured JSON,
// or as one compact JSON object per line.
type Printer struct {
	w         io.Writer
	formatter *colorjson.Formatter
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithPretty makes the printer indent its output, with colour when colour is true.
func WithPretty(colour bool) PrinterOption {
	return func(p *Printer) {
		f := colorjson.NewFormatter()
		f.Indent = 2
		f.DisabledColor = !colour
		p.formatter = f
	}
}

// NewPrinter returns a Printer writing JSON lines to w.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{w: w}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Print writes one value followed by a newline.
func (p *Printer) Print(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrMarshalEnvelope, err)
	}

	if p.formatter != nil {
		// colorjson only understands the generic JSON types.
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return errors.Join(ErrMarshalEnvelope, err)
		}

		if b, err = p.formatter.Marshal(generic); err != nil {
			return errors.Join(ErrMarshalEnvelope, err)
		}
	}

	if _, err := fmt.Fprintf(p.w, "%s\n", b); err != nil {
		return errors.Join(ErrWrite, err)
	}

	return nil
}

// Drain prints every envelope until envs is closed and returns the outcome of the run.
// On a write error it stops reading and returns the outcome so far.
func (p *Printer) Drain(envs <-chan progress.Envelope) (Outcome, error) {
	var o Outcome

	for env := range envs {
		o.Observe(env)

		if err := p.Print(env); err != nil {
			return o, err
		}
	}

	return o, nil
}

// Steps writes the step vocabulary of a workflow as a table.
func Steps(w io.Writer, steps api.StepsListResponse) error {
	if _, err := fmt.Fprintf(w, "Workflow %q, %d steps\n", steps.Workflow, steps.Count); err != nil {
		return errors.Join(ErrWrite, err)
	}

	width := 0
	for _, st := range steps.Steps {
		width = max(width, len(st.Name))
	}

	for i, st := range steps.Steps {
		if _, err := fmt.Fprintf(w, "%3d. %-*s  %s\n", i+1, width, st.Name, st.Label); err != nil {
			return errors.Join(ErrWrite, err)
		}
	}

	return nil
}
