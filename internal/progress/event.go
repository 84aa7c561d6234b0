// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"errors"
	"fmt"
	"time"
)

const (
	// StepEnd is the reserved step identifier of the synthetic event that closes a successful run.
	StepEnd = "end"
	// StepError is the reserved step identifier of the synthetic event that closes a failed run.
	StepError = "error"

	// PercentStart is the percent reported when a step starts.
	PercentStart = 0
	// PercentDone is the percent reported when a step finishes.
	PercentDone = 100
)

// ErrUnknownValue is returned when decoding a status value that is not part of its enumeration.
var ErrUnknownValue = errors.New("unknown enumeration value")

// WorkflowStatus is the coarse lifecycle phase of the whole workflow.
type WorkflowStatus string

const (
	// WorkflowStarted is reported while the first step starts.
	WorkflowStarted WorkflowStatus = "STARTED"
	// WorkflowRunning is reported for every event between the first start and the end.
	WorkflowRunning WorkflowStatus = "RUNNING"
	// WorkflowDone is reported once, on the synthetic end event.
	WorkflowDone WorkflowStatus = "DONE"
)

// StepStatus is the fine-grained phase of the current step.
type StepStatus string

const (
	// StepExecuting is reported on the start event and on intermediate progress.
	StepExecuting StepStatus = "EXECUTING"
	// StepFinished is reported when a step, or the whole run, is over.
	StepFinished StepStatus = "FINISHED"
)

// Outcome is the result tag carried by finished events.
type Outcome string

const (
	// OutcomeSuccess marks a step or run that completed.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFail marks a run that failed.
	OutcomeFail Outcome = "FAIL"
)

// Event is one unit of reported progress.
type Event struct {
	Step           string         `json:"step"`
	WorkflowStatus WorkflowStatus `json:"workflowStatus"`
	StepStatus     StepStatus     `json:"stepStatus"`
	Result         Outcome        `json:"result,omitempty"`
	ErrorCode      string         `json:"errorCode,omitempty"`
	Message        string         `json:"message"`
	Percent        *int           `json:"percent,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Percent returns a pointer to p, for use in Event literals.
func Percent(p int) *int {
	return &p
}

// PercentValue returns the percent of the event and whether it is present.
func (e Event) PercentValue() (int, bool) {
	if e.Percent == nil {
		return 0, false
	}

	return *e.Percent, true
}

// IsTerminal reports whether the event uses one of the reserved sentinel steps.
func (e Event) IsTerminal() bool {
	return e.Step == StepEnd || e.Step == StepError
}

// IsReservedStep reports whether name is one of the sentinel step identifiers.
func IsReservedStep(name string) bool {
	return name == StepEnd || name == StepError
}

// Valid reports whether s is a known workflow status.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStarted, WorkflowRunning, WorkflowDone:
		return true
	}

	return false
}

// String implements fmt.Stringer.
func (s WorkflowStatus) String() string {
	return string(s)
}

// UnmarshalText rejects unknown workflow statuses.
func (s *WorkflowStatus) UnmarshalText(text []byte) error {
	v := WorkflowStatus(text)
	if !v.Valid() {
		return fmt.Errorf("%w: workflow status %q", ErrUnknownValue, text)
	}

	*s = v

	return nil
}

// Valid reports whether s is a known step status.
func (s StepStatus) Valid() bool {
	return s == StepExecuting || s == StepFinished
}

// String implements fmt.Stringer.
func (s StepStatus) String() string {
	return string(s)
}

// UnmarshalText rejects unknown step statuses.
func (s *StepStatus) UnmarshalText(text []byte) error {
	v := StepStatus(text)
	if !v.Valid() {
		return fmt.Errorf("%w: step status %q", ErrUnknownValue, text)
	}

	*s = v

	return nil
}

// Valid reports whether o is a known outcome. The empty outcome is valid and means "not finished".
func (o Outcome) Valid() bool {
	switch o {
	case "", OutcomeSuccess, OutcomeFail:
		return true
	}

	return false
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return string(o)
}

// UnmarshalText rejects unknown outcomes.
func (o *Outcome) UnmarshalText(text []byte) error {
	v := Outcome(text)
	if !v.Valid() {
		return fmt.Errorf("%w: result %q", ErrUnknownValue, text)
	}

	*o = v

	return nil
}
