// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

var (
	// ErrRunFailed is returned by Outcome.Err when the run ended with an error envelope.
	ErrRunFailed = errors.New("run failed")
	// ErrRunCancelled is returned by Outcome.Err when the stream ended without an outcome.
	ErrRunCancelled = errors.New("run cancelled")
)

// Outcome summarises a stream of envelopes.
type Outcome struct {
	Envelopes int
	Result    *progress.Result
	Failure   *progress.Event
}

// Observe records env.
func (o *Outcome) Observe(env progress.Envelope) {
	o.Envelopes++

	switch {
	case env.Kind == progress.KindResult:
		o.Result = env.Result
	case env.IsTerminalError():
		ev := *env.Progress
		o.Failure = &ev
	}
}

// Err returns nil for a successful run, and otherwise an error saying how it ended.
func (o Outcome) Err() error {
	switch {
	case o.Failure != nil:
		return fmt.Errorf("%w: %s [%s]", ErrRunFailed, o.Failure.Message, o.Failure.ErrorCode)
	case o.Result != nil:
		return nil
	}

	return ErrRunCancelled
}
