// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func checkpointStep(name string, percent int) Step {
	return Step{
		Name:  name,
		Label: name,
		Func: func(_ context.Context, sc *StepContext) error {
			return sc.Progress(percent, name)
		},
	}
}

func demoBatch(t *testing.T) *SerialBatch {
	t.Helper()

	b, err := NewSerialBatch(
		checkpointStep("a", 40),
		checkpointStep("b", 50),
		checkpointStep("c", 75),
	)
	require.NoError(t, err)

	return b
}

func TestSerialBatch_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &progress.Recorder{}
	res, err := demoBatch(t).Execute(context.Background(), Run{
		Request:  progress.Request{JobID: "J1"},
		Reporter: rec,
	})
	require.NoError(t, err)
	assert.Equal(t, &progress.Result{JobID: "J1", Message: DefaultSummary, Success: true}, res)

	events := rec.Events()
	require.Len(t, events, 9)

	wantSteps := []string{"a", "a", "a", "b", "b", "b", "c", "c", "c"}
	wantPercents := []int{0, 40, 100, 0, 50, 100, 0, 75, 100}

	for i, ev := range events {
		assert.Equal(t, wantSteps[i], ev.Step, "event %d", i)

		p, ok := ev.PercentValue()
		require.True(t, ok)
		assert.Equal(t, wantPercents[i], p, "event %d", i)

		if i > 0 {
			assert.False(t, ev.Timestamp.Before(events[i-1].Timestamp))
		}
	}

	assert.Equal(t, progress.WorkflowStarted, events[0].WorkflowStatus)
	assert.Equal(t, progress.WorkflowRunning, events[1].WorkflowStatus)
	assert.Equal(t, progress.WorkflowRunning, events[3].WorkflowStatus)
	assert.Equal(t, progress.StepFinished, events[2].StepStatus)
	assert.Equal(t, progress.OutcomeSuccess, events[2].Result)
	assert.Equal(t, "a started", events[0].Message)
	assert.Equal(t, "a done", events[2].Message)
}

func TestSerialBatch_CancelledBeforeStep(t *testing.T) {
	defer goleak.VerifyNone(t)

	tok := cancellation.New()
	rec := &progress.Recorder{}
	reporter := progress.ReporterFunc(func(ev progress.Event) {
		rec.Report(ev)

		if ev.Step == "a" && ev.StepStatus == progress.StepFinished {
			tok.Cancel(cancellation.ReasonDisconnect)
		}
	})

	res, err := demoBatch(t).Execute(context.Background(), Run{
		Request:  progress.Request{JobID: "J1"},
		Reporter: reporter,
		Token:    tok,
	})
	require.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, res)

	for _, ev := range rec.Events() {
		assert.Equal(t, "a", ev.Step)
	}
}

func TestSerialBatch_WrappedCancelledErrorIsStepError(t *testing.T) {
	defer goleak.VerifyNone(t)

	b, err := NewSerialBatch(Step{Name: "nested", Func: func(context.Context, *StepContext) error {
		return fmt.Errorf("downstream: %w", ErrCancelled)
	}})
	require.NoError(t, err)

	_, err = b.Execute(context.Background(), Run{Token: cancellation.New()})
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "nested", stepErr.Step)
	assert.Equal(t, CodeRuntime, stepErr.Code)
}

func TestErrCancelled_MatchesTokenCause(t *testing.T) {
	tok := cancellation.New()
	ctx, cancel := tok.Context(context.Background())
	defer cancel()

	tok.Cancel(cancellation.ReasonRequested)
	<-ctx.Done()

	assert.ErrorIs(t, context.Cause(ctx), ErrCancelled)
}

func TestSerialBatch_ProgressAfterCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	tok := cancellation.New()
	rec := &progress.Recorder{}

	b, err := NewSerialBatch(Step{
		Name: "a",
		Func: func(_ context.Context, sc *StepContext) error {
			tok.Cancel(cancellation.ReasonRequested)
			assert.True(t, sc.Cancelled())

			return sc.Progress(50, "too late")
		},
	})
	require.NoError(t, err)

	_, err = b.Execute(context.Background(), Run{Reporter: rec, Token: tok})
	require.ErrorIs(t, err, ErrCancelled)

	var stepErr *StepError
	assert.False(t, errors.As(err, &stepErr))
	assert.Len(t, rec.Events(), 1)
}

func TestSerialBatch_StepFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &progress.Recorder{}
	b, err := NewSerialBatch(
		checkpointStep("a", 40),
		checkpointStep("b", 50),
		Step{Name: "c", Func: func(context.Context, *StepContext) error {
			return errors.New("boom")
		}},
	)
	require.NoError(t, err)

	res, err := b.Execute(context.Background(), Run{Request: progress.Request{JobID: "J1"}, Reporter: rec})
	assert.Nil(t, res)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "c", stepErr.Step)
	assert.Equal(t, CodeRuntime, stepErr.Code)
	assert.Equal(t, "step c: boom", err.Error())

	events := rec.Events()
	require.Len(t, events, 7)
	assert.Equal(t, "c", events[6].Step)
	assert.Equal(t, progress.StepExecuting, events[6].StepStatus)
}

func TestSerialBatch_ErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		fn       StepFunc
		wantCode string
	}{
		{
			name: "plain error",
			fn: func(context.Context, *StepContext) error {
				return errors.New("plain")
			},
			wantCode: CodeRuntime,
		},
		{
			name: "coded error",
			fn: func(context.Context, *StepContext) error {
				return WithCode("E_QUOTA", errors.New("quota exceeded"))
			},
			wantCode: "E_QUOTA",
		},
		{
			name: "panic with string",
			fn: func(context.Context, *StepContext) error {
				panic("kaboom")
			},
			wantCode: CodePanic,
		},
		{
			name: "panic with error",
			fn: func(context.Context, *StepContext) error {
				panic(errors.New("kaboom"))
			},
			wantCode: CodePanic,
		},
		{
			name: "percent out of order",
			fn: func(_ context.Context, sc *StepContext) error {
				if err := sc.Progress(60, "60"); err != nil {
					return err
				}

				return sc.Progress(30, "30")
			},
			wantCode: CodeRuntime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			b, err := NewSerialBatch(Step{Name: "x", Func: tt.fn})
			require.NoError(t, err)

			_, err = b.Execute(context.Background(), Run{})

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tt.wantCode, stepErr.Code)
			assert.Equal(t, "x", stepErr.Step)
		})
	}
}

func TestSerialBatch_PanicValue(t *testing.T) {
	b, err := NewSerialBatch(Step{Name: "x", Func: func(context.Context, *StepContext) error {
		panic("kaboom")
	}})
	require.NoError(t, err)

	_, err = b.Execute(context.Background(), Run{})

	var panicErr *ErrStepPanic
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value())
	assert.Equal(t, "step x: step panic: kaboom", err.Error())
}

func TestSerialBatch_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	b, err := NewSerialBatch(Step{Name: "slow", Func: func(ctx context.Context, _ *StepContext) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	require.NoError(t, err)

	_, err = b.Execute(ctx, Run{})

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, CodeTimeout, stepErr.Code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSerialBatch_ContextCancelIsCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	tok := cancellation.New()
	ctx, cancel := tok.Context(context.Background())
	defer cancel()

	b, err := NewSerialBatch(Step{Name: "blocking", Func: func(ctx context.Context, _ *StepContext) error {
		tok.Cancel(cancellation.ReasonShutdown)
		<-ctx.Done()

		return ctx.Err()
	}})
	require.NoError(t, err)

	_, err = b.Execute(ctx, Run{Token: tok})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestNewSerialBatch_Validation(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
	}{
		{name: "no steps"},
		{name: "empty name", steps: []Step{{Name: " "}}},
		{name: "reserved end", steps: []Step{{Name: "end"}}},
		{name: "reserved error", steps: []Step{{Name: "a"}, {Name: "error"}}},
		{name: "duplicate", steps: []Step{{Name: "a"}, {Name: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewSerialBatch(tt.steps...)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, ErrInvalidStep)
		})
	}
}

func TestNewSerialBatch_ReportsEveryProblem(t *testing.T) {
	_, err := NewSerialBatch(Step{Name: ""}, Step{Name: "end"}, Step{Name: "a"}, Step{Name: "a"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "step 0: name is empty")
	assert.Contains(t, err.Error(), `step 1: name "end" is reserved`)
	assert.Contains(t, err.Error(), `step 3: duplicate name "a"`)
}

func TestExecutorFunc(t *testing.T) {
	var exec Executor = ExecutorFunc(func(_ context.Context, run Run) (*progress.Result, error) {
		return &progress.Result{JobID: run.Request.JobID, Success: true}, nil
	})

	res, err := exec.Execute(context.Background(), Run{Request: progress.Request{JobID: "J9"}})
	require.NoError(t, err)
	assert.Equal(t, "J9", res.JobID)
}
