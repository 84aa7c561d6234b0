// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/queue"
	"github.com/matt-FFFFFF/porchlight/internal/runbatch"
	"github.com/matt-FFFFFF/porchlight/internal/worker"
)

// EndMessage is the message of the synthetic end event.
const EndMessage = "all done"

var (
	// ErrUnknownErrorPolicy is returned when parsing an unknown error policy name.
	ErrUnknownErrorPolicy = errors.New("unknown error policy")
	// ErrWorkerPanic is the failure reported when the executor itself panics.
	ErrWorkerPanic = errors.New("worker panic")
	// ErrNoResult is the failure reported when the executor returns neither a result nor an error.
	ErrNoResult = errors.New("executor returned no result")
)

// Bridge starts runs of one executor and relays their progress to streams.
// It is safe for concurrent use.
type Bridge struct {
	executor    runbatch.Executor
	scheduler   worker.Scheduler
	errorPolicy ErrorPolicy
	runTimeout  time.Duration
	now         func() time.Time
	newID       func() string
}

// New returns a Bridge running executor.
func New(executor runbatch.Executor, opts ...Option) *Bridge {
	b := &Bridge{
		executor:    executor,
		scheduler:   worker.NewPool(0),
		errorPolicy: ErrorPolicyErrorKind,
		now:         time.Now,
		newID:       newRunID,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Open validates req and starts a run. It returns without waiting for the run.
//
// When ctx is done before the run finishes (the client disconnected), the run is cancelled.
// ctx is not used for anything else: the run keeps the values of ctx, such as its logger,
// but not its deadline.
//
// An invalid request returns an error wrapping progress.ErrInvalidRequest. If the scheduler
// refuses the run, its error is returned and nothing is left running.
func (b *Bridge) Open(ctx context.Context, req progress.Request) (*Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s := &Stream{
		id:    b.newID(),
		jobID: req.JobID,
		token: cancellation.New(),
		q:     queue.New[progress.Envelope](),
		clock: progress.NewClock(b.now),
		done:  make(chan struct{}),
	}

	logger := ctxlog.Logger(ctx).With("run_id", s.id, "job_id", s.jobID)
	stopHook := s.token.CancelWhenDone(ctx)
	workerCtx := ctxlog.New(context.WithoutCancel(ctx), logger)

	if err := b.scheduler.Go(func() { b.work(workerCtx, s, req, stopHook) }); err != nil {
		logger.Warn("Run refused by scheduler", "error", err)
		stopHook()
		s.token.Cancel(cancellation.ReasonClosed)
		s.q.Abort()
		close(s.done)

		return nil, err
	}

	logger.Debug("Run scheduled")

	return s, nil
}

func (b *Bridge) work(ctx context.Context, s *Stream, req progress.Request, stopHook func() bool) {
	defer close(s.done)
	defer stopHook()
	defer s.q.Close()

	runCtx, cancel := s.token.Context(ctx)
	defer cancel()

	if b.runTimeout > 0 {
		var cancelTimeout context.CancelFunc

		runCtx, cancelTimeout = context.WithTimeout(runCtx, b.runTimeout)
		defer cancelTimeout()
	}

	start := time.Now()

	res, err := b.execute(runCtx, s, req)

	logger := ctxlog.Logger(ctx).With("duration", time.Since(start).String())

	// Only the token decides cancellation. An error that merely wraps ErrCancelled, for
	// example from a nested run, is a failure.
	switch {
	case s.token.Cancelled():
		logger.Info("Run cancelled", "reason", s.token.Reason().String())
		s.q.Abort()

		return
	case err == nil && res == nil:
		err = ErrNoResult
	}

	if err != nil {
		code := runbatch.CodeOf(err)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded) {
			code = runbatch.CodeTimeout
		}

		logger.Warn("Run failed", "error", err, "code", code)
		s.terminal(b.errorEnvelope(s.clock.Now(), code, err))

		return
	}

	logger.Info("Run finished")

	at := s.clock.Now()
	s.terminal(
		progress.NewResultEnvelope(*res, at),
		progress.NewProgressEnvelope(progress.KindProgress, endEvent(at), at),
	)
}

// execute runs the executor, converting a panic into a failure.
func (b *Bridge) execute(ctx context.Context, s *Stream, req progress.Request) (res *progress.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.Error(ctx, "Executor panicked", "panic", r)

			res = nil
			err = runbatch.WithCode(runbatch.CodePanic, fmt.Errorf("%w: %v", ErrWorkerPanic, r))
		}
	}()

	reporter := progress.ReporterFunc(func(ev progress.Event) {
		if s.token.Cancelled() {
			return
		}

		at := s.clock.Now()
		if ev.Timestamp.IsZero() {
			ev.Timestamp = at
		} else {
			ev.Timestamp = s.clock.Observe(ev.Timestamp)
			at = ev.Timestamp
		}

		s.q.Push(progress.NewProgressEnvelope(progress.KindProgress, ev, at))
	})

	return b.executor.Execute(ctx, runbatch.Run{
		Request:  req,
		Reporter: reporter,
		Token:    s.token,
		Clock:    s.clock,
	})
}

func (b *Bridge) errorEnvelope(at time.Time, code string, err error) progress.Envelope {
	kind := progress.KindError
	if b.errorPolicy == ErrorPolicyProgressKind {
		kind = progress.KindProgress
	}

	return progress.NewProgressEnvelope(kind, progress.Event{
		Step:           progress.StepError,
		WorkflowStatus: progress.WorkflowRunning,
		StepStatus:     progress.StepFinished,
		Result:         progress.OutcomeFail,
		ErrorCode:      code,
		Message:        "error: " + err.Error(),
		Timestamp:      at,
	}, at)
}

func endEvent(at time.Time) progress.Event {
	return progress.Event{
		Step:           progress.StepEnd,
		WorkflowStatus: progress.WorkflowDone,
		StepStatus:     progress.StepFinished,
		Result:         progress.OutcomeSuccess,
		Message:        EndMessage,
		Percent:        progress.Percent(progress.PercentDone),
		Timestamp:      at,
	}
}
