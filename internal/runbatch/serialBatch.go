// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

// DefaultSummary is the message of the Result of a successful batch.
const DefaultSummary = "ALL DONE"

var _ Executor = (*SerialBatch)(nil)

// SerialBatch is a workflow whose steps run one after another.
type SerialBatch struct {
	Steps   []Step // The steps, in execution order
	Summary string // Message of the final Result, defaults to DefaultSummary
}

// NewSerialBatch returns a batch of the given steps after validating the vocabulary:
// there must be at least one step, and names must be non-empty, unique and not reserved.
func NewSerialBatch(steps ...Step) (*SerialBatch, error) {
	if err := ValidateSteps(steps); err != nil {
		return nil, err
	}

	return &SerialBatch{Steps: slices.Clone(steps)}, nil
}

// ValidateSteps checks a step vocabulary. All problems are reported together.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: a workflow needs at least one step", ErrInvalidStep)
	}

	var result error

	seen := make(map[string]struct{}, len(steps))

	for i, s := range steps {
		switch {
		case strings.TrimSpace(s.Name) == "":
			result = multierror.Append(result, fmt.Errorf("step %d: name is empty", i))
		case progress.IsReservedStep(s.Name):
			result = multierror.Append(result, fmt.Errorf("step %d: name %q is reserved", i, s.Name))
		default:
			if _, dup := seen[s.Name]; dup {
				result = multierror.Append(result, fmt.Errorf("step %d: duplicate name %q", i, s.Name))
			}

			seen[s.Name] = struct{}{}
		}
	}

	if result != nil {
		return errors.Join(ErrInvalidStep, result)
	}

	return nil
}

// Names returns the step names in order.
func (b *SerialBatch) Names() []string {
	names := make([]string, 0, len(b.Steps))
	for _, s := range b.Steps {
		names = append(names, s.Name)
	}

	return names
}

// Execute implements Executor. It runs every step in order and returns the Result once
// the last step has finished. A failing step ends the run with a *StepError; a cancelled
// run ends with an error wrapping ErrCancelled and reports nothing after the checkpoint
// that noticed it.
func (b *SerialBatch) Execute(ctx context.Context, run Run) (*progress.Result, error) {
	logger := ctxlog.Logger(ctx).With("job_id", run.Request.JobID)
	reporter := run.reporter()
	clock := run.clock()

	for i, step := range b.Steps {
		stepCtx := ctxlog.New(ctx, logger.With("step", step.Name))

		if err := b.checkpoint(stepCtx, run, step); err != nil {
			return nil, err
		}

		ws := progress.WorkflowRunning
		if i == 0 {
			ws = progress.WorkflowStarted
		}

		ctxlog.Debug(stepCtx, "Step starting")

		reporter.Report(progress.Event{
			Step:           step.Name,
			WorkflowStatus: ws,
			StepStatus:     progress.StepExecuting,
			Message:        step.GetLabel() + " started",
			Percent:        progress.Percent(progress.PercentStart),
			Timestamp:      clock.Now(),
		})

		sc := &StepContext{
			ctx:   stepCtx,
			step:  step,
			run:   run,
			clock: clock,
		}

		if err := sc.call(); err != nil {
			return nil, b.stepFailure(stepCtx, run, step, err)
		}

		if err := b.checkpoint(stepCtx, run, step); err != nil {
			return nil, err
		}

		reporter.Report(progress.Event{
			Step:           step.Name,
			WorkflowStatus: progress.WorkflowRunning,
			StepStatus:     progress.StepFinished,
			Result:         progress.OutcomeSuccess,
			Message:        step.GetLabel() + " done",
			Percent:        progress.Percent(progress.PercentDone),
			Timestamp:      clock.Now(),
		})

		ctxlog.Debug(stepCtx, "Step finished")
	}

	summary := b.Summary
	if summary == "" {
		summary = DefaultSummary
	}

	return &progress.Result{
		JobID:   run.Request.JobID,
		Message: summary,
		Success: true,
	}, nil
}

// checkpoint returns ErrCancelled if the run was cancelled, or a timeout failure if its
// deadline has passed.
func (b *SerialBatch) checkpoint(ctx context.Context, run Run, step Step) error {
	if run.cancelled() || isCancelled(ctx) {
		ctxlog.Debug(ctx, "Run cancelled at checkpoint")
		return ErrCancelled
	}

	if err := ctx.Err(); err != nil {
		return &StepError{Step: step.Name, Code: CodeTimeout, Err: err}
	}

	return nil
}

// stepFailure classifies the error returned by a step.
func (b *SerialBatch) stepFailure(ctx context.Context, run Run, step Step, err error) error {
	if run.cancelled() || isCancelled(ctx) {
		ctxlog.Debug(ctx, "Step stopped by cancellation", "error", err)
		return errors.Join(ErrCancelled, err)
	}

	code := CodeOf(err)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = CodeTimeout
	}

	ctxlog.Warn(ctx, "Step failed", "error", err, "code", code)

	return &StepError{Step: step.Name, Code: code, Err: err}
}
