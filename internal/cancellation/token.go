// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cancellation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Reason records who cancelled a run.
type Reason string

const (
	// ReasonNone is the reason of a token that has not been cancelled.
	ReasonNone Reason = ""
	// ReasonDisconnect means the client went away.
	ReasonDisconnect Reason = "disconnect"
	// ReasonRequested means an operator asked for the run to stop.
	ReasonRequested Reason = "requested"
	// ReasonTransport means writing to the client failed.
	ReasonTransport Reason = "transport"
	// ReasonShutdown means the process is shutting down.
	ReasonShutdown Reason = "shutdown"
	// ReasonClosed means the consumer closed the stream before it finished.
	ReasonClosed Reason = "closed"
)

// String implements fmt.Stringer.
func (r Reason) String() string {
	return string(r)
}

// ErrCancelled is the context cause of contexts derived from a cancelled token.
var ErrCancelled = errors.New("run cancelled")

// Checker is the read side of a Token.
type Checker interface {
	Cancelled() bool
}

// Token is a flag that can be set once and never cleared.
// It is safe for concurrent use by any number of writers and readers.
type Token struct {
	set    atomic.Bool
	once   sync.Once
	mu     sync.Mutex
	reason Reason
	done   chan struct{}
}

// New returns an unset token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel sets the token. It returns true only for the call that set it; the reason of
// later calls is ignored.
func (t *Token) Cancel(reason Reason) bool {
	won := false

	t.once.Do(func() {
		t.mu.Lock()
		t.reason = reason
		t.mu.Unlock()

		t.set.Store(true)
		close(t.done)

		won = true
	})

	return won
}

// Cancelled reports whether the token has been set.
func (t *Token) Cancelled() bool {
	return t.set.Load()
}

// Done returns a channel that is closed when the token is set.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Reason returns the reason given to the first Cancel call, or ReasonNone.
func (t *Token) Reason() Reason {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.reason
}

// Context returns a child of parent that is cancelled, with cause ErrCancelled, once the
// token is set. The returned cancel func releases the watcher and must be called.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	go func() {
		select {
		case <-t.done:
			cancel(ErrCancelled)
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// CancelWhenDone sets the token with ReasonDisconnect when ctx is done.
// Calling stop detaches the hook; it reports whether the hook was detached before it ran.
func (t *Token) CancelWhenDone(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		t.Cancel(ReasonDisconnect)
	})
}
