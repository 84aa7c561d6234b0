// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
)

const (
	// CodeRuntime is the error code of a step that returned an error without a code of its own.
	CodeRuntime = "E_RUNTIME"
	// CodePanic is the error code of a step that panicked.
	CodePanic = "E_PANIC"
	// CodeTimeout is the error code of a run that exceeded its deadline.
	CodeTimeout = "E_TIMEOUT"
)

var (
	// ErrCancelled is returned when a run stops at a checkpoint because it was cancelled.
	// It is not a failure. It is the same value as cancellation.ErrCancelled, the cause of
	// a context cancelled through a token.
	ErrCancelled = cancellation.ErrCancelled
	// ErrPercentOutOfOrder is returned by StepContext.Progress when the percent does not
	// advance strictly between the previous report and 100.
	ErrPercentOutOfOrder = errors.New("percent out of order")
	// ErrInvalidStep is returned when a batch is built from an invalid step vocabulary.
	ErrInvalidStep = errors.New("invalid step")
)

// ErrStepPanic is the error returned when a step function panics.
// It is constructed with the value that caused the panic.
type ErrStepPanic struct {
	v any
}

// NewErrStepPanic creates a new ErrStepPanic with the given value.
func NewErrStepPanic(v any) error {
	return &ErrStepPanic{v: v}
}

// Error implements the error interface for ErrStepPanic.
func (e *ErrStepPanic) Error() string {
	prefix := "step panic:"

	switch x := e.v.(type) {
	case string:
		return fmt.Sprintf("%s %s", prefix, x)
	case error:
		return fmt.Sprintf("%s %s", prefix, x.Error())
	default:
		return fmt.Sprintf("%s %v", prefix, x)
	}
}

// Unwrap returns the panic value if it was an error.
func (e *ErrStepPanic) Unwrap() error {
	err, _ := e.v.(error)
	return err
}

// ErrorCode implements the coded error convention used by CodeOf.
func (e *ErrStepPanic) ErrorCode() string {
	return CodePanic
}

// Value returns the value passed to panic.
func (e *ErrStepPanic) Value() any {
	return e.v
}

// StepError is returned by SerialBatch.Execute when a step fails.
type StepError struct {
	Step string // Name of the failed step
	Code string // Machine-readable error code
	Err  error  // The underlying failure
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying failure.
func (e *StepError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the failure.
func (e *StepError) ErrorCode() string {
	return e.Code
}

type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string     { return e.err.Error() }
func (e *codedError) Unwrap() error     { return e.err }
func (e *codedError) ErrorCode() string { return e.code }

// WithCode attaches a machine-readable code to err. Step functions use it to control
// the errorCode of the terminal error event.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}

	return &codedError{code: code, err: err}
}

// CodeOf returns the first code found in the chain of err, or CodeRuntime.
func CodeOf(err error) string {
	var coder interface{ ErrorCode() string }
	if errors.As(err, &coder) && coder.ErrorCode() != "" {
		return coder.ErrorCode()
	}

	return CodeRuntime
}
