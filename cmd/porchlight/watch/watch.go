// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package watch implements the command that starts a run on a server and follows it.
package watch

import (
	"bytes"
	"context"
	"io"
	"slices"

	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/cmdutil"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/client"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/render"
	"github.com/urfave/cli/v3"
)

const cliExitStr = ""

// WatchCmd is the command that streams a run from a porchlight server.
var WatchCmd = &cli.Command{
	Name:  "watch",
	Usage: "Start a run on a server and stream its progress",
	Description: `Start a run on a porchlight server and follow its progress over Server-Sent Events.
Every envelope is printed as JSON, or the progress is shown in an interactive TUI with --tui.

Pressing Ctrl+C disconnects, which cancels the run on the server.`,
	Flags: slices.Concat(
		[]cli.Flag{cmdutil.ServerFlagDef()},
		cmdutil.RequestFlags(),
		cmdutil.OutputFlags(),
	),
	Action: actionFunc,
}

type options struct {
	server  string
	request progress.Request
	tui     bool
	printer *render.Printer
	logs    io.Writer
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	req, err := cmdutil.Request(cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	err = execute(ctx, options{
		server:  cmd.String(cmdutil.ServerFlag),
		request: req,
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

// execute follows the run to the end and returns nil only if it succeeded.
func execute(ctx context.Context, o options) error {
	c := client.New(o.server)

	title := "porchlight"

	var steps []api.StepInfo

	if o.tui {
		buf := new(bytes.Buffer)
		defer buf.WriteTo(o.logs) //nolint:errcheck

		ctx = ctxlog.NewForTUI(ctx, buf)

		desc, err := c.Steps(ctx)
		if err != nil {
			return err
		}

		title = desc.Workflow
		steps = desc.Steps
	}

	stream, err := c.Run(ctx, o.request)
	if err != nil {
		return err
	}
	defer stream.Close()

	ctxlog.Info(ctx, "Run started", "run_id", stream.RunID, "server", o.server)

	var outcome render.Outcome

	if o.tui {
		outcome, err = cmdutil.FollowTUI(ctx, title, o.request.JobID, steps, stream, stream.Close)
	} else {
		outcome, err = o.printer.Drain(stream.Envelopes())
		if err == nil {
			<-stream.Done()
			err = stream.Err()
		}
	}

	if err != nil {
		return err
	}

	return outcome.Err()
}
