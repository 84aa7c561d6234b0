// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package bridge

import (
	"context"
	"sync"

	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/queue"
)

// Stream is the consumer side of one run.
type Stream struct {
	id    string
	jobID string
	token *cancellation.Token
	q     *queue.Queue[progress.Envelope]
	clock *progress.Clock
	done  chan struct{}

	closeOnce sync.Once
}

// ID returns the run identifier.
func (s *Stream) ID() string {
	return s.id
}

// JobID returns the job identifier of the request that opened the stream.
func (s *Stream) JobID() string {
	return s.jobID
}

// Envelopes returns the channel of envelopes, in emission order. It is closed after the
// last envelope of a finished run, or as soon as the run is cancelled.
func (s *Stream) Envelopes() <-chan progress.Envelope {
	return s.q.Out()
}

// Cancel asks the run to stop. Nothing more is emitted once the executor notices.
// It returns false if the run had already been cancelled.
func (s *Stream) Cancel(reason cancellation.Reason) bool {
	return s.token.Cancel(reason)
}

// Cancelled reports whether the run was cancelled, and why.
func (s *Stream) Cancelled() (bool, cancellation.Reason) {
	return s.token.Cancelled(), s.token.Reason()
}

// Close releases the stream. A run that has not finished is cancelled, and anything not
// yet read is discarded. It is safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		select {
		case <-s.done:
		default:
			s.token.Cancel(cancellation.ReasonClosed)
		}

		s.q.Abort()
	})
}

// Done returns a channel that is closed when the worker has exited.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the worker has exited or ctx is done.
func (s *Stream) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// terminal emits the closing envelopes of a run and closes the queue.
// Nothing is emitted if the run was cancelled first.
func (s *Stream) terminal(envs ...progress.Envelope) {
	if s.token.Cancelled() {
		s.q.Abort()
		return
	}

	for _, env := range envs {
		s.q.Push(env)
	}

	s.q.Close()
}
