// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEnvelopePayload is returned when an envelope does not carry exactly one payload matching its kind.
	ErrEnvelopePayload = errors.New("envelope payload does not match kind")
	// ErrUnknownKind is returned when an envelope kind is not recognised.
	ErrUnknownKind = errors.New("unknown envelope kind")
)

// Kind is the type tag of an Envelope. Transports use it as the event name.
type Kind string

const (
	// KindProgress wraps an Event.
	KindProgress Kind = "progress"
	// KindResult wraps the final Result of a successful run.
	KindResult Kind = "result"
	// KindError wraps the terminal error Event of a failed run.
	KindError Kind = "error"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindProgress, KindResult, KindError:
		return true
	}

	return false
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Result is the terminal value of a successful run.
type Result struct {
	JobID   string `json:"jobId"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Envelope is the wire wrapper around one emitted value.
// Exactly one of Progress and Result is set: Result for KindResult, Progress otherwise.
type Envelope struct {
	Kind      Kind
	Progress  *Event
	Result    *Result
	EmittedAt time.Time
}

type wireEnvelope struct {
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// NewProgressEnvelope wraps ev in an envelope of the given kind.
func NewProgressEnvelope(kind Kind, ev Event, at time.Time) Envelope {
	return Envelope{
		Kind:      kind,
		Progress:  &ev,
		EmittedAt: at,
	}
}

// NewResultEnvelope wraps res in a result envelope.
func NewResultEnvelope(res Result, at time.Time) Envelope {
	return Envelope{
		Kind:      KindResult,
		Result:    &res,
		EmittedAt: at,
	}
}

// Payload returns the wrapped value.
func (e Envelope) Payload() any {
	if e.Kind == KindResult {
		return e.Result
	}

	return e.Progress
}

// IsTerminal reports whether the envelope is one of the run-closing envelopes:
// the result, the synthetic end event, or the terminal error.
func (e Envelope) IsTerminal() bool {
	switch {
	case e.Kind == KindResult, e.Kind == KindError:
		return true
	case e.Progress != nil:
		return e.Progress.IsTerminal()
	}

	return false
}

// IsTerminalError reports whether the envelope is the single error indicator of a failed run,
// whichever kind the error policy chose for it.
func (e Envelope) IsTerminalError() bool {
	if e.Kind == KindError {
		return true
	}

	return e.Kind == KindProgress && e.Progress != nil && e.Progress.Step == StepError
}

// Validate checks that the payload matches the kind.
func (e Envelope) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}

	switch e.Kind {
	case KindResult:
		if e.Result == nil || e.Progress != nil {
			return fmt.Errorf("%w: %s", ErrEnvelopePayload, e.Kind)
		}
	default:
		if e.Progress == nil || e.Result != nil {
			return fmt.Errorf("%w: %s", ErrEnvelopePayload, e.Kind)
		}
	}

	return nil
}

// MarshalJSON encodes the envelope as {"kind", "payload", "emittedAt"}.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(e.Payload())
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireEnvelope{
		Kind:      e.Kind,
		Payload:   payload,
		EmittedAt: e.EmittedAt,
	})
}

// UnmarshalJSON decodes the payload according to the kind.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	if !w.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, w.Kind)
	}

	out := Envelope{Kind: w.Kind, EmittedAt: w.EmittedAt}

	switch w.Kind {
	case KindResult:
		var res Result
		if err := json.Unmarshal(w.Payload, &res); err != nil {
			return errors.Join(ErrEnvelopePayload, err)
		}

		out.Result = &res
	default:
		var ev Event
		if err := json.Unmarshal(w.Payload, &ev); err != nil {
			return errors.Join(ErrEnvelopePayload, err)
		}

		out.Progress = &ev
	}

	*e = out

	return nil
}
