// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

// Run carries everything an Executor needs for one run.
type Run struct {
	Request  progress.Request
	Reporter progress.Reporter
	Token    cancellation.Checker
	Clock    *progress.Clock
}

func (r Run) reporter() progress.Reporter {
	if r.Reporter == nil {
		return progress.NullReporter{}
	}

	return r.Reporter
}

func (r Run) clock() *progress.Clock {
	if r.Clock == nil {
		return progress.NewClock(nil)
	}

	return r.Clock
}

func (r Run) cancelled() bool {
	return r.Token != nil && r.Token.Cancelled()
}

// Executor runs a workflow to completion. It blocks until the workflow finishes, fails or
// observes cancellation, in which case the error wraps ErrCancelled.
type Executor interface {
	Execute(ctx context.Context, run Run) (*progress.Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, run Run) (*progress.Result, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, run Run) (*progress.Result, error) {
	return f(ctx, run)
}
