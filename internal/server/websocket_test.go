// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/bridge"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsReadTimeout = 2 * time.Second

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + api.PathWS

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// readUntilClose reads envelopes until the server closes the connection.
func readUntilClose(t *testing.T, conn *websocket.Conn) ([]progress.Envelope, error) {
	t.Helper()

	var envs []progress.Envelope

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var env progress.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return envs, err
		}

		envs = append(envs, env)
	}
}

func TestWebSocket_Run(t *testing.T) {
	s, ts := newTestServer(t, mustBatch(t, fastDefinition()), nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(progress.Request{JobID: "J1"}))

	envs, err := readUntilClose(t, conn)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	require.Len(t, envs, 11)
	assert.Equal(t, progress.KindResult, envs[9].Kind)
	assert.Equal(t, "J1", envs[9].Result.JobID)
	assert.Equal(t, progress.StepEnd, envs[10].Progress.Step)

	for i := 1; i < len(envs); i++ {
		assert.False(t, envs[i].EmittedAt.Before(envs[i-1].EmittedAt))
	}

	assert.Eventually(t, func() bool { return s.ActiveRuns() == 0 }, testTimeout, 10*time.Millisecond)
}

func TestWebSocket_InvalidRequest(t *testing.T) {
	_, ts := newTestServer(t, mustBatch(t, fastDefinition()), nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"name": "no job"}))

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

	var er api.ErrorResponse
	require.NoError(t, conn.ReadJSON(&er))
	assert.Equal(t, http.StatusBadRequest, er.Status)
	assert.Contains(t, er.Error, "jobId")

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "unexpected error: %v", err)
}

func TestWebSocket_MalformedRequest(t *testing.T) {
	_, ts := newTestServer(t, mustBatch(t, fastDefinition()), nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseUnsupportedData), "unexpected error: %v", err)
}

func TestWebSocket_PoolExhausted(t *testing.T) {
	blk := newBlocker()
	_, ts := newTestServer(t, blk.executor(t), []bridge.Option{bridge.WithScheduler(worker.NewPool(1))})

	first := dialWS(t, ts)
	require.NoError(t, first.WriteJSON(progress.Request{JobID: "J1"}))

	_ = first.SetReadDeadline(time.Now().Add(wsReadTimeout))

	var env progress.Envelope
	require.NoError(t, first.ReadJSON(&env))

	second := dialWS(t, ts)
	require.NoError(t, second.WriteJSON(progress.Request{JobID: "J2"}))

	_ = second.SetReadDeadline(time.Now().Add(wsReadTimeout))

	var er api.ErrorResponse
	require.NoError(t, second.ReadJSON(&er))
	assert.Equal(t, http.StatusServiceUnavailable, er.Status)

	_, _, err := second.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater), "unexpected error: %v", err)

	_ = first.Close()
	blk.waitStopped(t)
}

func TestWebSocket_DisconnectCancelsRun(t *testing.T) {
	blk := newBlocker()
	s, ts := newTestServer(t, blk.executor(t), nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(progress.Request{JobID: "J1"}))

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

	var env progress.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, progress.WorkflowStarted, env.Progress.WorkflowStatus)

	require.NoError(t, conn.Close())

	blk.waitStopped(t)
	assert.Eventually(t, func() bool { return s.ActiveRuns() == 0 }, testTimeout, 10*time.Millisecond)
}

func TestWebSocket_CancelEndpoint(t *testing.T) {
	blk := newBlocker()
	s, ts := newTestServer(t, blk.executor(t), nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(progress.Request{JobID: "J1"}))

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

	var env progress.Envelope
	require.NoError(t, conn.ReadJSON(&env))

	runs := s.runs.List()
	require.Len(t, runs, 1)

	resp, err := http.Post(ts.URL+api.CancelPath(runs[0].ID()), "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	envs, err := readUntilClose(t, conn)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	for _, env := range envs {
		assert.False(t, env.IsTerminal())
	}

	blk.waitStopped(t)
}
