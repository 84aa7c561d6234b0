// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sse

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

const (
	defaultEvent = "message"
	maxLineSize  = 1024 * 1024
)

// ErrEventMismatch is returned when a frame's event name does not match the kind of the
// envelope it carries.
var ErrEventMismatch = errors.New("event name does not match envelope kind")

// Frame is one decoded event.
type Frame struct {
	ID    string
	Event string
	Data  string
	Retry time.Duration
}

// Decoder reads frames from an io.Reader.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Decoder{scanner: scanner}
}

// Next returns the next frame carrying data. Comments and frames without data are skipped.
// It returns io.EOF when the stream ends; a trailing frame without its blank line is dropped.
func (d *Decoder) Next() (Frame, error) {
	var (
		f       Frame
		data    []string
		hasData bool
	)

	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")

		if line == "" {
			if hasData {
				f.Data = strings.Join(data, "\n")
				if f.Event == "" {
					f.Event = defaultEvent
				}

				return f, nil
			}

			f, data = Frame{ID: f.ID, Retry: f.Retry}, nil

			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "id":
			f.ID = value
		case "event":
			f.Event = value
		case "data":
			data = append(data, value)
			hasData = true
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil {
				f.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Frame{}, err
	}

	return Frame{}, io.EOF
}

// DecodeEnvelope decodes the envelope carried by f.
func DecodeEnvelope(f Frame) (progress.Envelope, error) {
	var env progress.Envelope
	if err := json.Unmarshal([]byte(f.Data), &env); err != nil {
		return progress.Envelope{}, fmt.Errorf("decoding frame %s: %w", f.ID, err)
	}

	if f.Event != "" && f.Event != defaultEvent && f.Event != string(env.Kind) {
		return progress.Envelope{}, fmt.Errorf("%w: event %q, kind %q", ErrEventMismatch, f.Event, env.Kind)
	}

	return env, nil
}
