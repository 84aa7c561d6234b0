// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the command that runs a workflow in-process.
package run

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/cmdutil"
	"github.com/matt-FFFFFF/porchlight/internal/bridge"
	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/render"
	"github.com/matt-FFFFFF/porchlight/internal/worker"
	"github.com/matt-FFFFFF/porchlight/internal/workflow"
	"github.com/urfave/cli/v3"
)

const (
	errorPolicyFlag = "error-policy"
	timeoutFlag     = "timeout"
	cliExitStr      = ""
)

// RunCmd is the command that runs a workflow in-process and shows its progress.
var RunCmd = &cli.Command{
	Name:  "run",
	Usage: "Run a workflow locally and stream its progress",
	Description: `Run a workflow in this process, relaying its progress exactly as the server would.
Every envelope is printed as JSON, or the progress is shown in an interactive TUI with --tui.

Pressing Ctrl+C cancels the run. The command fails if the run fails or is cancelled.`,
	Flags: slices.Concat(
		cmdutil.WorkflowFlags(),
		cmdutil.RequestFlags(),
		cmdutil.OutputFlags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:  errorPolicyFlag,
				Usage: "Kind of the envelope reporting a failure: error or progress",
				Value: bridge.ErrorPolicyErrorKind.String(),
			},
			&cli.DurationFlag{
				Name:  timeoutFlag,
				Usage: "Cancel the run if it takes longer than this. Zero means no limit.",
			},
		},
	),
	Action: actionFunc,
}

type options struct {
	def     workflow.Definition
	request progress.Request
	policy  bridge.ErrorPolicy
	timeout time.Duration
	tui     bool
	printer *render.Printer
	logs    io.Writer
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	def, err := cmdutil.LoadWorkflow(ctx, cmd)
	if err != nil {
		logger.Error("Failed to load workflow", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	policy, err := bridge.ParseErrorPolicy(cmd.String(errorPolicyFlag))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	req, err := cmdutil.Request(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	err = execute(ctx, options{
		def:     def,
		request: req,
		policy:  policy,
		timeout: cmd.Duration(timeoutFlag),
		tui:     cmd.Bool(cmdutil.TUIFlag),
		printer: cmdutil.Printer(cmd, cmd.Root().Writer),
		logs:    cmd.Root().ErrWriter,
	})
	if err != nil {
		logger.Error("Run did not succeed", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// execute runs the workflow to the end and returns nil only if it succeeded.
func execute(ctx context.Context, o options) error {
	batch, err := o.def.Batch()
	if err != nil {
		return err
	}

	if o.tui {
		buf := new(bytes.Buffer)
		defer buf.WriteTo(o.logs) //nolint:errcheck

		ctx = ctxlog.NewForTUI(ctx, buf)
	}

	pool := worker.NewPool(1)
	defer pool.Wait()

	b := bridge.New(batch,
		bridge.WithScheduler(pool),
		bridge.WithErrorPolicy(o.policy),
		bridge.WithRunTimeout(o.timeout),
	)

	stream, err := b.Open(ctx, o.request)
	if err != nil {
		return err
	}
	defer stream.Close()

	ctxlog.Debug(ctx, "Run started", "run_id", stream.ID(), "job_id", stream.JobID())

	var outcome render.Outcome

	if o.tui {
		outcome, err = cmdutil.FollowTUI(ctx, o.def.Name, stream.JobID(), o.def.Describe().Steps, stream, func() {
			stream.Cancel(cancellation.ReasonRequested)
		})
	} else {
		outcome, err = o.printer.Drain(stream.Envelopes())
	}

	if err != nil {
		stream.Cancel(cancellation.ReasonTransport)
		return err
	}

	if cancelled, reason := stream.Cancelled(); cancelled && errors.Is(outcome.Err(), render.ErrRunCancelled) {
		ctxlog.Warn(ctx, "Run cancelled", "reason", reason.String())
	}

	return outcome.Err()
}
