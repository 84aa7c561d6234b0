// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cancellation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestToken_CancelOnce(t *testing.T) {
	tok := New()

	assert.False(t, tok.Cancelled())
	assert.Equal(t, ReasonNone, tok.Reason())

	assert.True(t, tok.Cancel(ReasonRequested))
	assert.False(t, tok.Cancel(ReasonShutdown))

	assert.True(t, tok.Cancelled())
	assert.Equal(t, ReasonRequested, tok.Reason())

	select {
	case <-tok.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestToken_ConcurrentCancelHasOneWinner(t *testing.T) {
	tok := New()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if tok.Cancel(ReasonTransport) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestToken_Context(t *testing.T) {
	defer goleak.VerifyNone(t)

	tok := New()
	ctx, cancel := tok.Context(context.Background())
	defer cancel()

	require.NoError(t, ctx.Err())

	tok.Cancel(ReasonRequested)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled by the token")
	}

	assert.ErrorIs(t, context.Cause(ctx), ErrCancelled)
}

func TestToken_ContextReleasedWithoutCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	tok := New()
	ctx, cancel := tok.Context(context.Background())
	cancel()

	<-ctx.Done()
	assert.False(t, tok.Cancelled())
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
}

func TestToken_CancelWhenDone(t *testing.T) {
	defer goleak.VerifyNone(t)

	tok := New()
	ctx, cancel := context.WithCancel(context.Background())

	tok.CancelWhenDone(ctx)
	cancel()

	select {
	case <-tok.Done():
	case <-time.After(time.Second):
		t.Fatal("token was not cancelled on disconnect")
	}

	assert.Equal(t, ReasonDisconnect, tok.Reason())
}

func TestToken_CancelWhenDoneStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	tok := New()
	ctx, cancel := context.WithCancel(context.Background())

	stop := tok.CancelWhenDone(ctx)
	assert.True(t, stop())

	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, tok.Cancelled())
}
