// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package workflow

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrParseWorkflowFile is returned when a workflow file cannot be parsed or decoded.
	ErrParseWorkflowFile = errors.New("failed to parse workflow file")
	// ErrNoWorkflow is returned when a file has no workflow block.
	ErrNoWorkflow = errors.New("no workflow defined")
	// ErrWorkflowNotFound is returned when the requested workflow is not in the file.
	ErrWorkflowNotFound = errors.New("workflow not found")
	// ErrAmbiguousWorkflow is returned when a file has several workflows and none was named.
	ErrAmbiguousWorkflow = errors.New("several workflows defined, specify one by name")
)

type fileBlock struct {
	Workflows []*workflowBlock `hcl:"workflow,block"`
}

type workflowBlock struct {
	Name        string       `hcl:"name,label"`
	Description string       `hcl:"description,optional"`
	Summary     string       `hcl:"summary,optional"`
	Steps       []*stepBlock `hcl:"step,block"`
}

type stepBlock struct {
	Name        string `hcl:"name,label"`
	Label       string `hcl:"label,optional"`
	Checkpoints []int  `hcl:"checkpoints,optional"`
	Interval    string `hcl:"interval,optional"`
	FailAt      int    `hcl:"fail_at,optional"`
	FailMessage string `hcl:"fail_message,optional"`
	ErrorCode   string `hcl:"error_code,optional"`
}

// File is a parsed workflow file.
type File struct {
	Workflows []Definition
}

// EvalContext returns the HCL evaluation context exposing vars as var.<name>.
func EvalContext(vars map[string]string) *hcl.EvalContext {
	obj := cty.EmptyObjectVal

	if len(vars) > 0 {
		values := make(map[string]cty.Value, len(vars))
		for k, v := range vars {
			values[k] = cty.StringVal(v)
		}

		obj = cty.ObjectVal(values)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": obj},
	}
}

// Parse decodes the workflow file content. filename is only used in diagnostics.
func Parse(content []byte, filename string, vars map[string]string) (*File, error) {
	f, diags := hclsyntax.ParseConfig(content, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Join(ErrParseWorkflowFile, diagsError(diags))
	}

	var fb fileBlock
	if diags := gohcl.DecodeBody(f.Body, EvalContext(vars), &fb); diags.HasErrors() {
		return nil, errors.Join(ErrParseWorkflowFile, diagsError(diags))
	}

	if len(fb.Workflows) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoWorkflow, filename)
	}

	var (
		result error
		out    File
	)

	seen := map[string]struct{}{}

	for _, wb := range fb.Workflows {
		if _, dup := seen[wb.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("workflow %q is defined more than once", wb.Name))
			continue
		}

		seen[wb.Name] = struct{}{}

		def, err := wb.definition()
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		out.Workflows = append(out.Workflows, def)
	}

	if result != nil {
		return nil, errors.Join(ErrParseWorkflowFile, result)
	}

	return &out, nil
}

// Names returns the names of the workflows in the file.
func (f *File) Names() []string {
	names := make(map[string]struct{}, len(f.Workflows))
	for _, d := range f.Workflows {
		names[d.Name] = struct{}{}
	}

	return slices.Sorted(maps.Keys(names))
}

// Select returns the named workflow. An empty name selects the only workflow of the file.
func (f *File) Select(name string) (Definition, error) {
	if name == "" {
		if len(f.Workflows) != 1 {
			return Definition{}, fmt.Errorf("%w: %v", ErrAmbiguousWorkflow, f.Names())
		}

		return f.Workflows[0], nil
	}

	for _, d := range f.Workflows {
		if d.Name == name {
			return d, nil
		}
	}

	return Definition{}, fmt.Errorf("%w: %q", ErrWorkflowNotFound, name)
}

func (wb *workflowBlock) definition() (Definition, error) {
	var result error

	def := Definition{
		Name:        wb.Name,
		Description: wb.Description,
		Summary:     wb.Summary,
	}

	for _, sb := range wb.Steps {
		var interval time.Duration

		if sb.Interval != "" {
			d, err := time.ParseDuration(sb.Interval)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("workflow %q step %q: %w", wb.Name, sb.Name, err))
				continue
			}

			interval = d
		}

		def.Steps = append(def.Steps, StepDefinition{
			Name:        sb.Name,
			Label:       sb.Label,
			Checkpoints: sb.Checkpoints,
			Interval:    interval,
			FailAt:      sb.FailAt,
			FailMessage: sb.FailMessage,
			ErrorCode:   sb.ErrorCode,
		})
	}

	if result != nil {
		return Definition{}, result
	}

	if err := def.Validate(); err != nil {
		return Definition{}, fmt.Errorf("workflow %q: %w", wb.Name, err)
	}

	return def, nil
}

func diagsError(diags hcl.Diagnostics) error {
	var result error
	for _, err := range diags.Errs() {
		result = multierror.Append(result, err)
	}

	return result
}
