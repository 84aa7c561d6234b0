// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matt-FFFFFF/porchlight/internal/progress"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// Encoder writes frames to an io.Writer. It is not safe for concurrent use.
type Encoder struct {
	w     io.Writer
	runID string
	seq   uint64
	buf   bytes.Buffer
}

// NewEncoder returns an Encoder writing to w. Frame IDs are runID followed by a sequence number.
func NewEncoder(w io.Writer, runID string) *Encoder {
	return &Encoder{w: w, runID: runID}
}

// Encode writes env as one frame and flushes.
func (e *Encoder) Encode(env progress.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding %s envelope: %w", env.Kind, err)
	}

	e.seq++

	e.buf.Reset()
	fmt.Fprintf(&e.buf, "id: %s-%d\n", e.runID, e.seq)
	fmt.Fprintf(&e.buf, "event: %s\n", env.Kind)

	for line := range strings.SplitSeq(string(data), "\n") {
		fmt.Fprintf(&e.buf, "data: %s\n", line)
	}

	e.buf.WriteByte('\n')

	return e.write()
}

// Comment writes a comment frame, which clients ignore. It keeps idle connections open.
func (e *Encoder) Comment(text string) error {
	e.buf.Reset()

	for line := range strings.SplitSeq(text, "\n") {
		fmt.Fprintf(&e.buf, ": %s\n", line)
	}

	e.buf.WriteByte('\n')

	return e.write()
}

// Retry tells the client how long to wait before reconnecting.
func (e *Encoder) Retry(d time.Duration) error {
	e.buf.Reset()
	fmt.Fprintf(&e.buf, "retry: %d\n\n", d.Milliseconds())

	return e.write()
}

func (e *Encoder) write() error {
	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return err
	}

	if f, ok := e.w.(http.Flusher); ok {
		f.Flush()
	}

	return nil
}
