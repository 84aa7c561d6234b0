// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package client talks to a porchlight server: it starts runs and reads their progress
// envelopes back from the event stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/sse"
)

var (
	// ErrRequest is returned when a request cannot be sent.
	ErrRequest = errors.New("request failed")
	// ErrDecode is returned when a response or event cannot be decoded.
	ErrDecode = errors.New("failed to decode response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client is a client for one server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New returns a Client for the server at baseURL, for example http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Stream is a run being read from the server.
type Stream struct {
	// RunID is the server-assigned identifier of the run.
	RunID     string
	envelopes chan progress.Envelope
	done      chan struct{}
	body      io.ReadCloser
	stop      chan struct{}
	closeOnce sync.Once
	err       error
}

// Envelopes returns the channel of received envelopes. It is closed when the stream ends.
func (s *Stream) Envelopes() <-chan progress.Envelope {
	return s.envelopes
}

// Done is closed once the stream has ended and Err is set.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the stream, or nil if the server ended it.
// It must only be called after Done is closed.
func (s *Stream) Err() error {
	return s.err
}

// Close disconnects from the server, which cancels the run if it is still going.
// A stream ended by Close reports no error.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		_ = s.body.Close()
	})
}

func (s *Stream) closed() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// Run starts a run and returns its stream. Cancelling ctx disconnects, which cancels the
// run on the server.
func (c *Client) Run(ctx context.Context, req progress.Request) (*Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Join(ErrRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+api.PathRun, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(ErrRequest, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", sse.ContentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Join(ErrRequest, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close() //nolint:errcheck
		return nil, statusError(resp)
	}

	s := &Stream{
		RunID:     resp.Header.Get(api.HeaderRunID),
		envelopes: make(chan progress.Envelope),
		done:      make(chan struct{}),
		body:      resp.Body,
		stop:      make(chan struct{}),
	}

	go s.read(ctx)

	return s, nil
}

func (s *Stream) read(ctx context.Context) {
	defer close(s.done)
	defer close(s.envelopes)
	defer s.Close()

	dec := sse.NewDecoder(s.body)

	for {
		f, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return
		}

		if err != nil {
			s.err = s.readError(ctx, err)
			return
		}

		env, err := sse.DecodeEnvelope(f)
		if err != nil {
			s.err = errors.Join(ErrDecode, err)
			return
		}

		select {
		case s.envelopes <- env:
		case <-s.stop:
			return
		case <-ctx.Done():
			s.err = ctx.Err()
			return
		}
	}
}

func (s *Stream) readError(ctx context.Context, err error) error {
	if s.closed() {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return errors.Join(ErrRequest, err)
}

// Cancel asks the server to cancel the run with runID.
func (c *Client) Cancel(ctx context.Context, runID string) error {
	var resp api.CancelResponse
	return c.do(ctx, http.MethodPost, api.CancelPath(runID), http.StatusAccepted, &resp)
}

// Health returns the health of the server.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.do(ctx, http.MethodGet, api.PathHealth, http.StatusOK, &resp)

	return resp, err
}

// Runs lists the active runs.
func (c *Client) Runs(ctx context.Context) (api.RunsListResponse, error) {
	var resp api.RunsListResponse
	err := c.do(ctx, http.MethodGet, api.PathRuns, http.StatusOK, &resp)

	return resp, err
}

// Steps returns the steps of the workflow the server runs.
func (c *Client) Steps(ctx context.Context) (api.StepsListResponse, error) {
	var resp api.StepsListResponse
	err := c.do(ctx, http.MethodGet, api.PathSteps, http.StatusOK, &resp)

	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return errors.Join(ErrRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrRequest, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != want {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrDecode, err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var er api.ErrorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error != "" {
		return &StatusError{Status: resp.StatusCode, Message: er.Error}
	}

	return &StatusError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}
