// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cancelrun implements the command that cancels a run on a server.
package cancelrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/cmdutil"
	"github.com/matt-FFFFFF/porchlight/internal/client"
	"github.com/urfave/cli/v3"
)

const runIDArg = "run-id"

// ErrRunIDRequired is returned when no run ID is given.
var ErrRunIDRequired = errors.New("a run ID is required")

// CancelCmd is the command that cancels a run.
var CancelCmd = &cli.Command{
	Name:      "cancel",
	Usage:     "Cancel a run on a server",
	ArgsUsage: "<run-id>",
	Description: `Ask a porchlight server to cancel an active run. The run ID is returned in the
X-Run-ID header of the run endpoint and listed by 'show --remote --runs'.

The client following the run sees its stream end without a result.`,
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:   runIDArg,
			Config: cli.StringConfig{TrimSpace: true},
		},
	},
	Flags: []cli.Flag{
		cmdutil.ServerFlagDef(),
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		err := cancelRun(ctx, client.New(cmd.String(cmdutil.ServerFlag)), cmd.StringArg(runIDArg), cmd.Root().Writer)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		return nil
	},
}

func cancelRun(ctx context.Context, c *client.Client, runID string, w io.Writer) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ErrRunIDRequired
	}

	if err := c.Cancel(ctx, runID); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Cancellation of run %s requested\n", runID)

	return err
}
