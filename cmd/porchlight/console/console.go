// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package console implements an interactive console for evaluating workflow expressions.
package console

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/cmdutil"
	"github.com/matt-FFFFFF/porchlight/internal/prompt"
	"github.com/matt-FFFFFF/porchlight/internal/workflow"
	"github.com/urfave/cli/v3"
)

// ConsoleCmd is the command that starts the expression console.
var ConsoleCmd = &cli.Command{
	Name:  "console",
	Usage: "Evaluate HCL expressions against workflow variables",
	Description: `Start an interactive console that evaluates HCL expressions the way attribute
values of a workflow file are evaluated. Variables given with --var are available as var.<name>.

Type 'quit' or 'exit', or press Ctrl+C, to leave.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  cmdutil.VarFlag,
			Usage: "Set a workflow variable as name=value. Specify multiple times for more variables.",
		},
	},
	Action: func(_ context.Context, cmd *cli.Command) error {
		vars, err := cmdutil.ParseVars(cmd.StringSlice(cmdutil.VarFlag))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		err = prompt.REPL(cmd.Root().Writer, "porchlight> ", func(expr string) (string, error) {
			return workflow.Evaluate(expr, vars)
		})
		if err != nil && !errors.Is(err, prompt.ErrAborted) {
			return cli.Exit(err.Error(), 1)
		}

		return nil
	},
}
