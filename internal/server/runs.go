// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/bridge"
	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/registry"
	"github.com/matt-FFFFFF/porchlight/internal/worker"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:     api.StatusOK,
		ActiveRuns: s.runs.Len(),
	})
}

func (s *Server) listRuns(c *gin.Context) {
	runs := s.runs.List()
	infos := make([]api.RunInfo, 0, len(runs))

	for _, run := range runs {
		infos = append(infos, api.RunInfo{RunID: run.ID(), JobID: run.JobID()})
	}

	c.JSON(http.StatusOK, api.RunsListResponse{
		Runs:  infos,
		Count: len(infos),
	})
}

func (s *Server) cancelRun(c *gin.Context) {
	runID := c.Param("runID")

	if err := s.runs.Cancel(runID, cancellation.ReasonRequested); err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}

	ctxlog.Info(s.requestContext(c), "Run cancellation requested", "run_id", runID)

	c.JSON(http.StatusAccepted, api.CancelResponse{
		RunID:   runID,
		Message: "cancellation requested",
	})
}

func (s *Server) listSteps(c *gin.Context) {
	c.JSON(http.StatusOK, s.workflow)
}

// open starts a run and registers it. On success the caller must call the returned
// release function once it has stopped reading the stream.
func (s *Server) open(ctx context.Context, req progress.Request) (*bridge.Stream, func(), int, error) {
	stream, err := s.opener.Open(ctx, req)
	if err != nil {
		return nil, nil, openStatus(err), err
	}

	unregister, err := s.runs.Register(stream)
	if err != nil {
		stream.Close()
		return nil, nil, openStatus(err), err
	}

	release := func() {
		unregister()
		stream.Close()
	}

	return stream, release, http.StatusOK, nil
}

func openStatus(err error) int {
	switch {
	case errors.Is(err, progress.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, worker.ErrPoolExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, registry.ErrDuplicateRun):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

func openError(status int, err error) string {
	if status == http.StatusInternalServerError {
		return fmt.Sprintf("%s: %v", ErrStartRun, err)
	}

	return err.Error()
}
