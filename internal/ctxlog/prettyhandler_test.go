// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/porchlight/internal/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(level slog.Level, msg string, attrs ...slog.Attr) slog.Record {
	r := slog.NewRecord(time.Date(2025, time.May, 4, 13, 14, 15, 161_000_000, time.UTC), level, msg, 0)
	r.AddAttrs(attrs...)

	return r
}

func TestPrettyHandler_Handle(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelDebug}, WithDestinationWriter(buf))

	require.NoError(t, h.Handle(context.Background(), record(slog.LevelInfo, "Run finished", slog.String("run_id", "r1"))))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[13:14:15.161] INFO: Run finished {"))
	assert.Contains(t, out, `"run_id"`)
	assert.Contains(t, out, `"r1"`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestPrettyHandler_NoAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewPrettyHandler(nil, WithDestinationWriter(buf))

	require.NoError(t, h.Handle(context.Background(), record(slog.LevelWarn, "plain")))
	assert.Equal(t, "[13:14:15.161] WARN: plain \n", buf.String())

	buf.Reset()

	h = NewPrettyHandler(nil, WithDestinationWriter(buf), WithOutputEmptyAttrs())
	require.NoError(t, h.Handle(context.Background(), record(slog.LevelWarn, "plain")))
	assert.Equal(t, "[13:14:15.161] WARN: plain {}\n", buf.String())
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelInfo})

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewPrettyHandler(nil, WithDestinationWriter(buf)))

	logger.With("job_id", "J1").WithGroup("step").Info("Step failed", "name", "c")

	out := buf.String()
	assert.Contains(t, out, `"job_id"`)
	assert.Contains(t, out, `"J1"`)
	assert.Contains(t, out, `"step"`)
	assert.Contains(t, out, `"name"`)
}

func TestPrettyHandler_ReplaceAttr(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewPrettyHandler(&slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == "secret" {
				return slog.Attr{}
			}

			return a
		},
	}, WithDestinationWriter(buf))

	require.NoError(t, h.Handle(context.Background(), record(slog.LevelError, "oops", slog.String("secret", "x"))))
	assert.Equal(t, "ERROR: oops \n", buf.String())
}

func TestPrettyHandler_Colour(t *testing.T) {
	restore := color.SetEnabled(true)
	defer restore()

	buf := &bytes.Buffer{}
	h := NewPrettyHandler(nil, WithDestinationWriter(buf), WithColour())

	require.NoError(t, h.Handle(context.Background(), record(slog.LevelError, "red")))
	assert.Contains(t, buf.String(), color.Colorize("ERROR:", color.FgRed))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk gone")
}

func TestPrettyHandler_WriteError(t *testing.T) {
	h := NewPrettyHandler(nil, WithDestinationWriter(failingWriter{}))

	err := h.Handle(context.Background(), record(slog.LevelInfo, "lost"))
	assert.ErrorIs(t, err, ErrIoWrite)
}

func TestLevelColour(t *testing.T) {
	assert.Equal(t, color.FgWhite, levelColour(slog.LevelDebug))
	assert.Equal(t, color.FgCyan, levelColour(slog.LevelInfo))
	assert.Equal(t, color.FgBlue, levelColour(slog.LevelInfo+2))
	assert.Equal(t, color.FgYellow, levelColour(slog.LevelWarn))
	assert.Equal(t, color.FgRed, levelColour(slog.LevelError))
	assert.Equal(t, color.FgHiMagenta, levelColour(slog.LevelError+4))
}
