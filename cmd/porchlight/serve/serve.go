// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package serve implements the command that runs the porchlight HTTP server.
package serve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/matt-FFFFFF/porchlight/cmd/porchlight/cmdutil"
	"github.com/matt-FFFFFF/porchlight/internal/bridge"
	"github.com/matt-FFFFFF/porchlight/internal/config"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/server"
	"github.com/matt-FFFFFF/porchlight/internal/worker"
	"github.com/matt-FFFFFF/porchlight/internal/workflow"
	"github.com/urfave/cli/v3"
)

const (
	configFlag      = "config"
	hostFlag        = "host"
	portFlag        = "port"
	logLevelFlag    = "log-level"
	logFormatFlag   = "log-format"
	errorPolicyFlag = "error-policy"
	maxRunsFlag     = "max-runs"
	runTimeoutFlag  = "run-timeout"
	keepAliveFlag   = "keep-alive"
	cliExitStr      = ""
)

// ErrListen is returned when the server address cannot be listened on.
var ErrListen = errors.New("failed to listen")

// ServeCmd is the command that starts the HTTP server.
var ServeCmd = &cli.Command{
	Name:  "serve",
	Usage: "Serve workflow runs over HTTP",
	Description: `Start the porchlight HTTP server. Each POST to /api/workflow/run starts a run of the
configured workflow and streams its progress back as Server-Sent Events; /api/workflow/ws does
the same over a WebSocket.

Settings are read, each overriding the last, from the defaults, the YAML file given with
--config, PORCHLIGHT_* environment variables and the command line flags.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      configFlag,
			Aliases:   []string{"c"},
			Usage:     "Path of the YAML configuration file",
			TakesFile: true,
			Sources:   cli.EnvVars("PORCHLIGHT_CONFIG"),
		},
		&cli.StringFlag{
			Name:    cmdutil.FileFlag,
			Aliases: []string{"f"},
			Usage:   "URL of the HCL workflow file. Supports Hashicorp's go-getter syntax.",
		},
		&cli.StringFlag{
			Name:    cmdutil.WorkflowFlag,
			Aliases: []string{"w"},
			Usage:   "Name of the workflow to serve when the file defines more than one",
		},
		&cli.StringSliceFlag{
			Name:  cmdutil.VarFlag,
			Usage: "Set a workflow variable as name=value",
		},
		&cli.StringFlag{
			Name:  hostFlag,
			Usage: "Address to listen on",
		},
		&cli.IntFlag{
			Name:    portFlag,
			Aliases: []string{"p"},
			Usage:   "Port to listen on",
		},
		&cli.StringFlag{
			Name:  logLevelFlag,
			Usage: "Log level: debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  logFormatFlag,
			Usage: "Log format: pretty or json",
		},
		&cli.StringFlag{
			Name:  errorPolicyFlag,
			Usage: "Kind of the envelope reporting a failure: error or progress",
		},
		&cli.IntFlag{
			Name:  maxRunsFlag,
			Usage: "Maximum number of concurrent runs. Zero means no limit.",
		},
		&cli.DurationFlag{
			Name:  runTimeoutFlag,
			Usage: "Cancel runs that take longer than this. Zero means no limit.",
		},
		&cli.DurationFlag{
			Name:  keepAliveFlag,
			Usage: "Interval between keep-alive comments on event streams",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ctxlog.Error(ctx, "Invalid configuration", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	ctx = ctxlog.New(ctx, newLogger(cfg, cmd.Root().ErrWriter))

	gin.SetMode(gin.ReleaseMode)

	l, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		ctxlog.Error(ctx, "Failed to listen", "addr", cfg.Addr(), "error", errors.Join(ErrListen, err))
		return cli.Exit(cliExitStr, 1)
	}

	if err := serve(ctx, cfg, l); err != nil {
		ctxlog.Error(ctx, "Server failed", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// loadConfig layers the defaults, the configuration file, the environment and the flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.NewDefaultConfig()

	if path := cmd.String(configFlag); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	if err := applyFlags(cfg, cmd); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyFlags(cfg *config.Config, cmd *cli.Command) error {
	setString := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}

	setString(hostFlag, &cfg.APIHost)
	setString(logLevelFlag, &cfg.LogLevel)
	setString(logFormatFlag, &cfg.LogFormat)
	setString(errorPolicyFlag, &cfg.ErrorPolicy)
	setString(cmdutil.FileFlag, &cfg.WorkflowFile)
	setString(cmdutil.WorkflowFlag, &cfg.WorkflowName)

	if cmd.IsSet(portFlag) {
		cfg.APIPort = cmd.Int(portFlag)
	}

	if cmd.IsSet(maxRunsFlag) {
		cfg.MaxConcurrentRuns = cmd.Int(maxRunsFlag)
	}

	if cmd.IsSet(runTimeoutFlag) {
		cfg.RunTimeout = cmd.Duration(runTimeoutFlag)
	}

	if cmd.IsSet(keepAliveFlag) {
		cfg.KeepAlive = cmd.Duration(keepAliveFlag)
	}

	vars, err := cmdutil.ParseVars(cmd.StringSlice(cmdutil.VarFlag))
	if err != nil {
		return err
	}

	if len(vars) > 0 && cfg.WorkflowVars == nil {
		cfg.WorkflowVars = make(map[string]string, len(vars))
	}

	maps.Copy(cfg.WorkflowVars, vars)

	return nil
}

// newLogger returns the server logger for cfg. The level applies to every logger.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if level, err := ctxlog.ParseLevel(cfg.LogLevel); err == nil {
		ctxlog.LevelVar.Set(level)
	}

	if strings.EqualFold(cfg.LogFormat, config.LogFormatJSON) {
		return ctxlog.JSONLogger(w)
	}

	return ctxlog.DefaultLogger
}

// serve runs the server on l until ctx is done, then waits for every run to stop.
// l is closed when serve returns.
func serve(ctx context.Context, cfg *config.Config, l net.Listener) error {
	def, err := workflow.Load(ctx, cfg.WorkflowFile, cfg.WorkflowName, cfg.WorkflowVars)
	if err != nil {
		_ = l.Close()
		return err
	}

	batch, err := def.Batch()
	if err != nil {
		_ = l.Close()
		return err
	}

	pool := worker.NewPool(cfg.MaxConcurrentRuns)
	defer pool.Wait()

	b := bridge.New(batch,
		bridge.WithScheduler(pool),
		bridge.WithErrorPolicy(cfg.Policy()),
		bridge.WithRunTimeout(cfg.RunTimeout),
	)

	srv := server.New(b,
		server.WithWorkflow(def),
		server.WithKeepAlive(cfg.KeepAlive),
		server.WithLogger(ctxlog.Logger(ctx)),
	)

	ctxlog.Info(ctx, "Serving workflow",
		"workflow", def.Name,
		"steps", len(def.Steps),
		"error_policy", cfg.ErrorPolicy,
		"max_runs", cfg.MaxConcurrentRuns,
	)

	return srv.Serve(ctx, l, cfg.ShutdownTimeout)
}
