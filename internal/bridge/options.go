// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package bridge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/porchlight/internal/worker"
)

// ErrorPolicy decides how the terminal error of a failed run is represented on the stream.
type ErrorPolicy int

const (
	// ErrorPolicyErrorKind emits the terminal error as an envelope of kind error.
	ErrorPolicyErrorKind ErrorPolicy = iota
	// ErrorPolicyProgressKind emits the terminal error as an envelope of kind progress.
	ErrorPolicyProgressKind
)

// String implements fmt.Stringer.
func (p ErrorPolicy) String() string {
	switch p {
	case ErrorPolicyErrorKind:
		return "error"
	case ErrorPolicyProgressKind:
		return "progress"
	}

	return fmt.Sprintf("ErrorPolicy(%d)", int(p))
}

// ParseErrorPolicy converts "error" or "progress" into an ErrorPolicy.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return ErrorPolicyErrorKind, nil
	case "progress":
		return ErrorPolicyProgressKind, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownErrorPolicy, s)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithScheduler sets where runs execute. The default is a worker.Pool without a limit.
func WithScheduler(s worker.Scheduler) Option {
	return func(b *Bridge) {
		b.scheduler = s
	}
}

// WithErrorPolicy sets how terminal errors are emitted.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(b *Bridge) {
		b.errorPolicy = p
	}
}

// WithRunTimeout bounds the duration of each run. Zero means no bound.
// A run that exceeds it fails with the timeout error code.
func WithRunTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.runTimeout = d
	}
}

// WithClock sets the time source of the per-run clocks.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.now = now
	}
}

// WithIDGenerator sets how run identifiers are generated.
func WithIDGenerator(f func() string) Option {
	return func(b *Bridge) {
		b.newID = f
	}
}

func newRunID() string {
	return uuid.NewString()
}
