// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

// StepFunc is the work done by a step. It may call sc.Progress any number of times with
// strictly increasing percentages, and should return promptly when ctx is done.
type StepFunc func(ctx context.Context, sc *StepContext) error

// Step is one named unit of a workflow.
type Step struct {
	Name  string   // Identifier reported in every event of the step
	Label string   // Human-readable name used in messages, defaults to Name
	Func  StepFunc // The work, nil means the step does nothing
}

// GetLabel returns the label of the step, falling back to its name.
func (s Step) GetLabel() string {
	if s.Label == "" {
		return s.Name
	}

	return s.Label
}

// StepContext is handed to a running step. It is only valid for the duration of the call.
type StepContext struct {
	ctx         context.Context
	step        Step
	run         Run
	clock       *progress.Clock
	lastPercent int
}

// JobID returns the job identifier of the run.
func (sc *StepContext) JobID() string {
	return sc.run.Request.JobID
}

// Request returns the request that started the run.
func (sc *StepContext) Request() progress.Request {
	return sc.run.Request
}

// Step returns the step being executed.
func (sc *StepContext) Step() Step {
	return sc.step
}

// Cancelled reports whether the run has been cancelled.
func (sc *StepContext) Cancelled() bool {
	return sc.run.cancelled() || isCancelled(sc.ctx)
}

// Progress reports intermediate progress of the step. The event is not reported, and
// ErrCancelled is returned, if the run has been cancelled.
func (sc *StepContext) Progress(percent int, message string) error {
	if sc.Cancelled() {
		return ErrCancelled
	}

	if percent <= sc.lastPercent || percent >= progress.PercentDone {
		return fmt.Errorf("%w: %d after %d", ErrPercentOutOfOrder, percent, sc.lastPercent)
	}

	sc.lastPercent = percent

	sc.run.reporter().Report(progress.Event{
		Step:           sc.step.Name,
		WorkflowStatus: progress.WorkflowRunning,
		StepStatus:     progress.StepExecuting,
		Message:        message,
		Percent:        progress.Percent(percent),
		Timestamp:      sc.clock.Now(),
	})

	return nil
}

// call runs the step function, converting a panic into an ErrStepPanic.
func (sc *StepContext) call() (err error) {
	if sc.step.Func == nil {
		return nil
	}

	logger := ctxlog.Logger(sc.ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Step panicked", "panic", r)

			err = NewErrStepPanic(r)
		}
	}()

	return sc.step.Func(sc.ctx, sc)
}

// isCancelled reports whether ctx was cancelled for any reason other than its deadline.
func isCancelled(ctx context.Context) bool {
	err := ctx.Err()
	return err != nil && !errors.Is(err, context.DeadlineExceeded)
}
