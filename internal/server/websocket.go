// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/bridge"
	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	wsBufferSize   = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// handleWebSocket reads a request as the first message, then sends every envelope of the
// run as a JSON text message and closes normally when the stream ends.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, cancel := context.WithCancel(s.requestContext(c))
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctxlog.Warn(ctx, "WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close() //nolint:errcheck

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var req progress.Request
	if err := conn.ReadJSON(&req); err != nil {
		ctxlog.Warn(ctx, "Reading run request failed", "error", err)
		closeWith(conn, websocket.CloseUnsupportedData, fmt.Sprintf("%s: %v", ErrInvalidJSON, err))

		return
	}

	stream, release, status, err := s.open(ctx, req)
	if err != nil {
		ctxlog.Warn(ctx, "Run not started", "job_id", req.JobID, "status", status, "error", err)
		_ = writeJSON(conn, api.ErrorResponse{Error: openError(status, err), Status: status})
		closeWith(conn, closeCode(status), http.StatusText(status))

		return
	}
	defer release()

	ctx = ctxlog.With(ctx, "run_id", stream.ID(), "job_id", stream.JobID())
	ctxlog.Info(ctx, "Streaming run", "transport", "websocket")

	// Any read error means the client is gone; cancelling ctx fires the disconnect hook.
	go func() {
		defer cancel()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.pump(ctx, conn, stream)
}

func (s *Server) pump(ctx context.Context, conn *websocket.Conn, stream *bridge.Stream) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-stream.Envelopes():
			if !ok {
				_, reason := stream.Cancelled()
				ctxlog.Info(ctx, "Stream ended", "cancel_reason", reason.String())
				closeWith(conn, websocket.CloseNormalClosure, "stream ended")

				return
			}

			if err := writeJSON(conn, env); err != nil {
				ctxlog.Warn(ctx, "Writing envelope failed", "error", err)
				stream.Cancel(cancellation.ReasonTransport)

				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				stream.Cancel(cancellation.ReasonTransport)
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeWait),
	)
}

func closeCode(status int) int {
	switch status {
	case http.StatusBadRequest:
		return websocket.ClosePolicyViolation
	case http.StatusServiceUnavailable:
		return websocket.CloseTryAgainLater
	}

	return websocket.CloseInternalServerErr
}
