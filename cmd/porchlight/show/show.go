// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the command that describes a workflow, or the runs of a server.
package show

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/cmdutil"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/client"
	"github.com/matt-FFFFFF/porchlight/internal/render"
	"github.com/urfave/cli/v3"
)

const (
	remoteFlag = "remote"
	runsFlag   = "runs"
)

// ErrRunsNeedRemote is returned when --runs is used without --remote.
var ErrRunsNeedRemote = errors.New("--" + runsFlag + " needs --" + remoteFlag)

// ShowCmd is the command that shows the steps of a workflow.
var ShowCmd = &cli.Command{
	Name:  "show",
	Usage: "Show the steps of a workflow",
	Description: `Show the step vocabulary of a workflow: the names the run reports progress for,
in order, and their display labels.

With --remote the workflow served by the server given with --server is shown instead,
and --runs lists the runs that are active on it.`,
	Flags: slices.Concat(
		cmdutil.WorkflowFlags(),
		[]cli.Flag{
			cmdutil.ServerFlagDef(),
			&cli.BoolFlag{
				Name:  remoteFlag,
				Usage: "Ask the server instead of loading the workflow locally",
			},
			&cli.BoolFlag{
				Name:  runsFlag,
				Usage: "List the active runs of the server",
			},
		},
	),
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	if !cmd.Bool(remoteFlag) {
		if cmd.Bool(runsFlag) {
			return cli.Exit(ErrRunsNeedRemote.Error(), 1)
		}

		def, err := cmdutil.LoadWorkflow(ctx, cmd)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		return exit(render.Steps(w, def.Describe()))
	}

	c := client.New(cmd.String(cmdutil.ServerFlag))

	if cmd.Bool(runsFlag) {
		return exit(showRuns(ctx, c, cmdutil.Printer(cmd, w)))
	}

	return exit(showSteps(ctx, c, w))
}

func showSteps(ctx context.Context, c *client.Client, w io.Writer) error {
	steps, err := c.Steps(ctx)
	if err != nil {
		return err
	}

	return render.Steps(w, steps)
}

func showRuns(ctx context.Context, c *client.Client, p *render.Printer) error {
	runs, err := c.Runs(ctx)
	if err != nil {
		return err
	}

	if runs.Runs == nil {
		runs.Runs = []api.RunInfo{}
	}

	return p.Print(runs)
}

func exit(err error) error {
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
