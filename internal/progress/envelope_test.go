// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, time.July, 1, 12, 30, 45, 123456789, time.UTC)

func TestEnvelope_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
	}{
		{
			name: "progress",
			env: NewProgressEnvelope(KindProgress, Event{
				Step:           "b",
				WorkflowStatus: WorkflowRunning,
				StepStatus:     StepExecuting,
				Message:        "B 50%",
				Percent:        Percent(50),
				Timestamp:      testTime,
			}, testTime.Add(time.Millisecond)),
		},
		{
			name: "result",
			env:  NewResultEnvelope(Result{JobID: "J1", Message: "ALL DONE", Success: true}, testTime),
		},
		{
			name: "error",
			env: NewProgressEnvelope(KindError, Event{
				Step:           StepError,
				WorkflowStatus: WorkflowRunning,
				StepStatus:     StepFinished,
				Result:         OutcomeFail,
				ErrorCode:      "E_RUNTIME",
				Message:        "error: step c: boom",
				Timestamp:      testTime,
			}, testTime),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.env)
			require.NoError(t, err)

			var got Envelope
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.env, got)
		})
	}
}

func TestEnvelope_WireShape(t *testing.T) {
	env := NewResultEnvelope(Result{JobID: "J1", Message: "ALL DONE", Success: true}, testTime)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"kind":"result","payload":{"jobId":"J1","message":"ALL DONE","success":true},"emittedAt":"2025-07-01T12:30:45.123456789Z"}`,
		string(data))
}

func TestEnvelope_Validate(t *testing.T) {
	ev := &Event{Step: "a"}
	res := &Result{JobID: "J1"}

	assert.NoError(t, Envelope{Kind: KindProgress, Progress: ev}.Validate())
	assert.NoError(t, Envelope{Kind: KindResult, Result: res}.Validate())
	assert.ErrorIs(t, Envelope{Kind: KindResult, Progress: ev}.Validate(), ErrEnvelopePayload)
	assert.ErrorIs(t, Envelope{Kind: KindProgress, Progress: ev, Result: res}.Validate(), ErrEnvelopePayload)
	assert.ErrorIs(t, Envelope{Kind: "bogus", Progress: ev}.Validate(), ErrUnknownKind)

	_, err := json.Marshal(Envelope{Kind: KindError})
	assert.Error(t, err)
}

func TestEnvelope_UnmarshalUnknownKind(t *testing.T) {
	var env Envelope

	err := json.Unmarshal([]byte(`{"kind":"ping","payload":{}}`), &env)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEnvelope_Terminal(t *testing.T) {
	progressEnv := NewProgressEnvelope(KindProgress, Event{Step: "a"}, testTime)
	endEnv := NewProgressEnvelope(KindProgress, Event{Step: StepEnd}, testTime)
	errorAsProgress := NewProgressEnvelope(KindProgress, Event{Step: StepError}, testTime)
	errorKind := NewProgressEnvelope(KindError, Event{Step: StepError}, testTime)
	resultEnv := NewResultEnvelope(Result{}, testTime)

	assert.False(t, progressEnv.IsTerminal())
	assert.True(t, endEnv.IsTerminal())
	assert.True(t, resultEnv.IsTerminal())
	assert.False(t, endEnv.IsTerminalError())
	assert.True(t, errorAsProgress.IsTerminalError())
	assert.True(t, errorKind.IsTerminalError())
	assert.False(t, resultEnv.IsTerminalError())
}
