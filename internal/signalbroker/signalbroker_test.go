// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestWatch_FirstSignalIsGraceful(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)

	var forced atomic.Bool

	done := make(chan struct{})

	go func() {
		defer close(done)
		Watch(ctx, sigCh, cancel, func() { forced.Store(true) })
	}()

	sigCh <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be cancelled after the first signal")
	}

	close(sigCh)
	<-done

	assert.False(t, forced.Load())
}

func TestWatch_SecondSignalForces(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	forced := make(chan struct{})

	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	Watch(ctx, sigCh, cancel, func() { close(forced) })

	select {
	case <-forced:
	default:
		t.Fatal("second signal should force exit")
	}

	assert.Error(t, ctx.Err())
}

func TestNew_StopClosesChannel(t *testing.T) {
	ch, stop := New(context.Background(), os.Interrupt)

	stop()
	stop()

	_, ok := <-ch
	assert.False(t, ok)
}
