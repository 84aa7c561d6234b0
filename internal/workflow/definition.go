// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/runbatch"
)

// DemoName is the name of the built-in workflow.
const DemoName = "demo"

var (
	// ErrInvalidDefinition is returned when a workflow definition is inconsistent.
	ErrInvalidDefinition = errors.New("invalid workflow definition")
	// ErrStepFailed is the failure of a step that reached its fail_at percent.
	ErrStepFailed = errors.New("step failed")
)

// Definition describes a workflow of simulated steps.
type Definition struct {
	Name        string
	Description string
	Summary     string
	Steps       []StepDefinition
}

// StepDefinition describes one simulated step.
type StepDefinition struct {
	Name        string
	Label       string
	Checkpoints []int         // Intermediate percents, strictly increasing between 0 and 100
	Interval    time.Duration // Simulated work before each checkpoint and before finishing
	FailAt      int           // Percent at which the step fails, 0 means never
	FailMessage string
	ErrorCode   string
}

// Demo returns the built-in three step workflow.
func Demo() Definition {
	return Definition{
		Name:        DemoName,
		Description: "Three simulated steps reporting progress",
		Summary:     runbatch.DefaultSummary,
		Steps: []StepDefinition{
			{Name: "a", Label: "A", Checkpoints: []int{40}, Interval: 400 * time.Millisecond},
			{Name: "b", Label: "B", Checkpoints: []int{50}, Interval: 300 * time.Millisecond},
			{Name: "c", Label: "C", Checkpoints: []int{75}, Interval: 500 * time.Millisecond},
		},
	}
}

// Validate checks the definition. All problems are reported together.
func (d Definition) Validate() error {
	var result error

	for _, s := range d.Steps {
		if err := s.validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := runbatch.ValidateSteps(d.steps()); err != nil {
		result = multierror.Append(result, err)
	}

	if result != nil {
		return errors.Join(ErrInvalidDefinition, result)
	}

	return nil
}

func (s StepDefinition) validate() error {
	var result error

	prev := 0

	for _, cp := range s.Checkpoints {
		if cp <= prev || cp >= 100 {
			result = multierror.Append(result, fmt.Errorf("step %q: checkpoint %d must be above %d and below 100", s.Name, cp, prev))
		}

		prev = cp
	}

	if s.FailAt < 0 || s.FailAt > 100 {
		result = multierror.Append(result, fmt.Errorf("step %q: fail_at %d must be between 1 and 100", s.Name, s.FailAt))
	}

	if s.Interval < 0 {
		result = multierror.Append(result, fmt.Errorf("step %q: interval must not be negative", s.Name))
	}

	return result
}

// Batch validates the definition and returns the executable batch.
func (d Definition) Batch() (*runbatch.SerialBatch, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	b, err := runbatch.NewSerialBatch(d.steps()...)
	if err != nil {
		return nil, err
	}

	b.Summary = d.Summary

	return b, nil
}

// StepNames returns the step vocabulary in order.
func (d Definition) StepNames() []string {
	names := make([]string, 0, len(d.Steps))
	for _, s := range d.Steps {
		names = append(names, s.Name)
	}

	return names
}

// Describe returns the step vocabulary with display labels, as served by the steps endpoint.
func (d Definition) Describe() api.StepsListResponse {
	steps := make([]api.StepInfo, 0, len(d.Steps))

	for _, s := range d.Steps {
		label := s.Label
		if label == "" {
			label = s.Name
		}

		steps = append(steps, api.StepInfo{Name: s.Name, Label: label})
	}

	return api.StepsListResponse{
		Workflow: d.Name,
		Steps:    steps,
		Count:    len(steps),
	}
}

func (d Definition) steps() []runbatch.Step {
	steps := make([]runbatch.Step, 0, len(d.Steps))
	for _, s := range d.Steps {
		steps = append(steps, runbatch.Step{
			Name:  s.Name,
			Label: s.Label,
			Func:  s.simulate,
		})
	}

	return steps
}

// simulate sleeps through the checkpoints of the step, reporting each one.
func (s StepDefinition) simulate(ctx context.Context, sc *runbatch.StepContext) error {
	label := sc.Step().GetLabel()

	for _, cp := range s.Checkpoints {
		if err := sleep(ctx, s.Interval); err != nil {
			return err
		}

		if s.FailAt > 0 && cp >= s.FailAt {
			return s.failure()
		}

		if err := sc.Progress(cp, fmt.Sprintf("%s %d%%", label, cp)); err != nil {
			return err
		}
	}

	if err := sleep(ctx, s.Interval); err != nil {
		return err
	}

	if s.FailAt > 0 {
		return s.failure()
	}

	return nil
}

func (s StepDefinition) failure() error {
	err := ErrStepFailed
	if s.FailMessage != "" {
		err = fmt.Errorf("%w: %s", ErrStepFailed, s.FailMessage)
	}

	if s.ErrorCode != "" {
		return runbatch.WithCode(s.ErrorCode, err)
	}

	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
