// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the porchlight command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/porchlight"
	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/cancelrun"
	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/console"
	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/run"
	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/serve"
	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/show"
	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/watch"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		serve.ServeCmd,
		run.RunCmd,
		watch.WatchCmd,
		show.ShowCmd,
		cancelrun.CancelCmd,
		console.ConsoleCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      porchlight.Name,
	Description: `Porchlight runs long, multi-step workflows and streams their progress to a client
as an ordered, cancellable sequence of events. Each run reports every step as it starts,
advances and finishes, and ends with exactly one result or error.

Runs are served over HTTP as Server-Sent Events or over a WebSocket, and can also be run
and watched locally.`,
	Usage:     "porchlight serve --file workflows.hcl",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	os.Exit(execute(os.Args))
}

// execute runs the CLI with args and returns the process exit code. Deferred cleanup
// runs before main exits.
func execute(args []string) int {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh, stop := signalbroker.New(ctx)
	defer stop()

	go signalbroker.Watch(ctx, sigCh, cancel, nil)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", porchlight.Version, porchlight.Commit)

	err := rootCmd.Run(ctx, args) // Err is handled by cli framework
	if err == nil {
		return 0
	}

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Warn("command terminated due to cancellation", "error", err)
		return 1
	}

	ctxlog.Logger(ctx).Error("command execution failed", "error", err)

	return 1
}
