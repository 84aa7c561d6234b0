// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func started() progress.Envelope {
	return progress.NewProgressEnvelope(progress.KindProgress, progress.Event{
		Step:           "a",
		WorkflowStatus: progress.WorkflowRunning,
		StepStatus:     progress.StepExecuting,
		Message:        "A started",
		Percent:        progress.Percent(0),
	}, at)
}

func result() progress.Envelope {
	return progress.NewResultEnvelope(progress.Result{JobID: "J1", Message: "ALL DONE", Success: true}, at)
}

func failure() progress.Envelope {
	return progress.NewProgressEnvelope(progress.KindError, progress.Event{
		Step:           progress.StepError,
		WorkflowStatus: progress.WorkflowRunning,
		StepStatus:     progress.StepFinished,
		Result:         progress.OutcomeFail,
		ErrorCode:      "E_DISK",
		Message:        "error: step b: disk full",
	}, at)
}

func channel(envs ...progress.Envelope) <-chan progress.Envelope {
	ch := make(chan progress.Envelope, len(envs))
	for _, env := range envs {
		ch <- env
	}

	close(ch)

	return ch
}

func TestPrinter_Lines(t *testing.T) {
	var buf bytes.Buffer

	o, err := NewPrinter(&buf).Drain(channel(started(), result()))
	require.NoError(t, err)
	assert.Equal(t, 2, o.Envelopes)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var env progress.Envelope
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, "A started", env.Progress.Message)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &env))
	assert.Equal(t, progress.KindResult, env.Kind)
	assert.Equal(t, "J1", env.Result.JobID)
}

func TestPrinter_Pretty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewPrinter(&buf, WithPretty(false)).Print(started()))

	out := buf.String()
	assert.Contains(t, out, `"message": "A started"`)
	assert.Contains(t, out, "\n  ", "output is indented")
	assert.NotContains(t, out, "\x1b[", "colour is disabled")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPrinter_WriteError(t *testing.T) {
	o, err := NewPrinter(failingWriter{}).Drain(channel(started(), result()))
	require.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, 1, o.Envelopes)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name    string
		envs    []progress.Envelope
		wantErr error
	}{
		{name: "success", envs: []progress.Envelope{started(), result()}},
		{name: "failure", envs: []progress.Envelope{started(), failure()}, wantErr: ErrRunFailed},
		{name: "cancelled", envs: []progress.Envelope{started()}, wantErr: ErrRunCancelled},
		{name: "empty", wantErr: ErrRunCancelled},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var o Outcome
			for _, env := range tc.envs {
				o.Observe(env)
			}

			assert.Equal(t, len(tc.envs), o.Envelopes)

			if tc.wantErr == nil {
				assert.NoError(t, o.Err())
				return
			}

			assert.ErrorIs(t, o.Err(), tc.wantErr)
		})
	}
}

func TestOutcome_FailureMessage(t *testing.T) {
	var o Outcome
	o.Observe(failure())

	assert.EqualError(t, o.Err(), "run failed: error: step b: disk full [E_DISK]")
}

func TestSteps(t *testing.T) {
	var buf bytes.Buffer

	err := Steps(&buf, api.StepsListResponse{
		Workflow: "demo",
		Count:    2,
		Steps: []api.StepInfo{
			{Name: "a", Label: "Step A"},
			{Name: "long", Label: "Long step"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Workflow \"demo\", 2 steps\n"+
		"  1. a     Step A\n"+
		"  2. long  Long step\n", buf.String())
}
