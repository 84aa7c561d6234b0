// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdutil holds the flags and helpers shared by the porchlight commands.
package cmdutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/color"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/prompt"
	"github.com/matt-FFFFFF/porchlight/internal/render"
	"github.com/matt-FFFFFF/porchlight/internal/tui"
	"github.com/matt-FFFFFF/porchlight/internal/workflow"
	"github.com/urfave/cli/v3"
)

// Flag names shared by several commands.
const (
	FileFlag     = "file"
	WorkflowFlag = "workflow"
	VarFlag      = "var"
	JobIDFlag    = "job-id"
	FieldFlag    = "field"
	TUIFlag      = "tui"
	JSONFlag     = "json"
	ServerFlag   = "server"
)

// DefaultServer is the server used by the client commands when none is given.
const DefaultServer = "http://localhost:8080"

var (
	// ErrInvalidVar is returned for a --var that is not name=value.
	ErrInvalidVar = errors.New("invalid variable, expected name=value")
	// ErrInvalidField is returned for a --field that is not name=value.
	ErrInvalidField = errors.New("invalid field, expected name=value")
	// ErrJobIDRequired is returned when no job ID was given and none can be asked for.
	ErrJobIDRequired = errors.New("a job ID is required, use --" + JobIDFlag)
)

// IsInteractive reports whether the user can be prompted. Tests replace it.
var IsInteractive = func() bool {
	return color.IsTerminal(os.Stdin.Fd())
}

// WorkflowFlags selects a workflow definition.
func WorkflowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FileFlag,
			Aliases: []string{"f"},
			Usage: "URL of the HCL workflow file. Supports Hashicorp's go-getter syntax. " +
				"Without it the built-in demo workflow is used.",
			Sources: cli.EnvVars("PORCHLIGHT_WORKFLOW_FILE"),
		},
		&cli.StringFlag{
			Name:    WorkflowFlag,
			Aliases: []string{"w"},
			Usage:   "Name of the workflow to use when the file defines more than one",
			Sources: cli.EnvVars("PORCHLIGHT_WORKFLOW_NAME"),
		},
		&cli.StringSliceFlag{
			Name:  VarFlag,
			Usage: "Set a workflow variable as name=value. Specify multiple times for more variables.",
		},
	}
}

// RequestFlags describe the run to start.
func RequestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    JobIDFlag,
			Aliases: []string{"j"},
			Usage:   "Job ID of the run. Prompted for when missing and stdin is a terminal.",
		},
		&cli.StringSliceFlag{
			Name: FieldFlag,
			Usage: "Add a field to the request as name=value. A value that is valid JSON is sent as is, " +
				"anything else as a string.",
		},
	}
}

// OutputFlags choose how a stream is shown.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    TUIFlag,
			Aliases: []string{"t", "interactive"},
			Usage:   "Show progress in an interactive Terminal User Interface (TUI)",
		},
		&cli.BoolFlag{
			Name:  JSONFlag,
			Usage: "Print one compact JSON envelope per line instead of indented JSON",
		},
	}
}

// ServerFlagDef is the address of a porchlight server.
func ServerFlagDef() cli.Flag {
	return &cli.StringFlag{
		Name:    ServerFlag,
		Aliases: []string{"s"},
		Usage:   "Base URL of the porchlight server",
		Value:   DefaultServer,
		Sources: cli.EnvVars("PORCHLIGHT_SERVER"),
	}
}

// ParseVars turns name=value pairs into a map.
func ParseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	vars := make(map[string]string, len(pairs))

	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVar, p)
		}

		vars[name] = value
	}

	return vars, nil
}

// ParseFields turns name=value pairs into request fields.
func ParseFields(pairs []string) (map[string]json.RawMessage, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	fields := make(map[string]json.RawMessage, len(pairs))

	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, p)
		}

		if json.Valid([]byte(value)) {
			fields[name] = json.RawMessage(value)
			continue
		}

		s, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Join(ErrInvalidField, err)
		}

		fields[name] = s
	}

	return fields, nil
}

// JobID returns id, or asks for one when it is blank and the user can be prompted.
func JobID(id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}

	if !IsInteractive() {
		return "", ErrJobIDRequired
	}

	return prompt.Line("job id> ")
}

// LoadWorkflow loads the workflow selected by the WorkflowFlags of cmd.
func LoadWorkflow(ctx context.Context, cmd *cli.Command) (workflow.Definition, error) {
	vars, err := ParseVars(cmd.StringSlice(VarFlag))
	if err != nil {
		return workflow.Definition{}, err
	}

	return workflow.Load(ctx, cmd.String(FileFlag), cmd.String(WorkflowFlag), vars)
}

// Request builds the run request from the RequestFlags of cmd.
func Request(cmd *cli.Command) (progress.Request, error) {
	fields, err := ParseFields(cmd.StringSlice(FieldFlag))
	if err != nil {
		return progress.Request{}, err
	}

	id, err := JobID(cmd.String(JobIDFlag))
	if err != nil {
		return progress.Request{}, err
	}

	return progress.Request{JobID: id, Fields: fields}, nil
}

// Printer returns the printer selected by the OutputFlags of cmd.
func Printer(cmd *cli.Command, w io.Writer) *render.Printer {
	if cmd.Bool(JSONFlag) {
		return render.NewPrinter(w)
	}

	return render.NewPrinter(w, render.WithPretty(color.Enabled()))
}

// FollowTUI shows src in the TUI until the user quits. cancel is called if the user quits
// while the run is live. Callers should log through ctxlog.NewForTUI while it runs.
func FollowTUI(
	ctx context.Context,
	title, jobID string,
	steps []api.StepInfo,
	src tui.Source,
	cancel func(),
) (render.Outcome, error) {
	m := tui.NewModel(title, jobID, steps, tui.WithCancel(cancel))

	final, err := tui.NewRunner(m).Run(ctx, src)
	if err != nil {
		return render.Outcome{}, err
	}

	if err := final.Err(); err != nil {
		return render.Outcome{}, err
	}

	return render.Outcome{Result: final.Result(), Failure: final.Failure()}, nil
}
