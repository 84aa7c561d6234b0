// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns OS termination signals into a two stage shutdown:
// the first signal starts a graceful shutdown, the second forces the process to exit.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
)

// ForceExitCode is the exit code used when a second signal forces termination.
const ForceExitCode = 130

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	os.Interrupt,
}

// New starts relaying the given signals, or the termination signals if none are given,
// to the returned channel. stop ends the relay and closes the channel.
func New(ctx context.Context, sigs ...os.Signal) (ch chan os.Signal, stop func()) {
	ch = make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "Creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			signal.Stop(ch)
			close(ch)
		})
	}
}

// Watch reads sigCh until it is closed. The first signal calls graceful; the second calls
// force and returns. A nil force exits the process with ForceExitCode.
func Watch(ctx context.Context, sigCh <-chan os.Signal, graceful context.CancelFunc, force func()) {
	if force == nil {
		force = func() { os.Exit(ForceExitCode) }
	}

	received := false

	for sig := range sigCh {
		if received {
			ctxlog.Warn(ctx, "Received second signal, forcing exit", "signal", sig.String())
			force()

			return
		}

		ctxlog.Info(ctx, "Received signal, shutting down gracefully. Send again to force exit", "signal", sig.String())

		received = true

		graceful()
	}
}
