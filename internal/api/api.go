// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package api holds the JSON bodies exchanged by the server and its clients,
// apart from the progress envelopes themselves.
package api

// Routes served by the HTTP API.
const (
	PathHealth = "/health"
	PathRun    = "/api/workflow/run"
	PathWS     = "/api/workflow/ws"
	PathRuns   = "/api/workflow/runs"
	PathSteps  = "/api/workflow/steps"
)

// HeaderRunID carries the run ID on the response of the run endpoint.
const HeaderRunID = "X-Run-ID"

// StatusOK is the status reported by a healthy server.
const StatusOK = "ok"

type (
	// ErrorResponse is the body of every non-2xx response.
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}

	// HealthResponse is returned by the health endpoint.
	HealthResponse struct {
		Status     string `json:"status"`
		ActiveRuns int    `json:"activeRuns"`
	}

	// RunInfo identifies an active run.
	RunInfo struct {
		RunID string `json:"runId"`
		JobID string `json:"jobId"`
	}

	// RunsListResponse lists the active runs.
	RunsListResponse struct {
		Runs  []RunInfo `json:"runs"`
		Count int       `json:"count"`
	}

	// CancelResponse is returned when a cancellation was accepted.
	CancelResponse struct {
		RunID   string `json:"runId"`
		Message string `json:"message"`
	}

	// StepInfo describes one step of the configured workflow.
	StepInfo struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	}

	// StepsListResponse lists the steps of the configured workflow.
	StepsListResponse struct {
		Workflow string     `json:"workflow"`
		Steps    []StepInfo `json:"steps"`
		Count    int        `json:"count"`
	}
)

// CancelPath returns the path of the cancel endpoint for runID.
func CancelPath(runID string) string {
	return PathRuns + "/" + runID + "/cancel"
}
