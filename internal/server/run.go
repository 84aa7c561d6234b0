// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/sse"
)

// handleRun starts a run and streams its envelopes as server-sent events until the
// stream ends or the client goes away.
func (s *Server) handleRun(c *gin.Context) {
	var req progress.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("%s: %v", ErrInvalidJSON, err))
		return
	}

	ctx := s.requestContext(c)

	stream, release, status, err := s.open(ctx, req)
	if err != nil {
		ctxlog.Warn(ctx, "Run not started", "job_id", req.JobID, "status", status, "error", err)
		errorJSON(c, status, openError(status, err))

		return
	}
	defer release()

	ctx = ctxlog.With(ctx, "run_id", stream.ID(), "job_id", stream.JobID())
	ctxlog.Info(ctx, "Streaming run", "transport", "sse")

	h := c.Writer.Header()
	h.Set("Content-Type", sse.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set(api.HeaderRunID, stream.ID())
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	enc := sse.NewEncoder(c.Writer, stream.ID())

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	sent := 0

	for {
		select {
		case env, ok := <-stream.Envelopes():
			if !ok {
				_, reason := stream.Cancelled()
				ctxlog.Info(ctx, "Stream ended", "envelopes", sent, "cancel_reason", reason.String())

				return
			}

			if err := enc.Encode(env); err != nil {
				ctxlog.Warn(ctx, "Writing event failed", "error", err)
				stream.Cancel(cancellation.ReasonTransport)

				return
			}

			sent++

		case <-ticker.C:
			if err := enc.Comment("keep-alive"); err != nil {
				ctxlog.Warn(ctx, "Writing keep-alive failed", "error", err)
				stream.Cancel(cancellation.ReasonTransport)

				return
			}
		}
	}
}
