// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/matt-FFFFFF/porchlight/internal/api"
	"github.com/matt-FFFFFF/porchlight/internal/bridge"
	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
	"github.com/matt-FFFFFF/porchlight/internal/progress"
	"github.com/matt-FFFFFF/porchlight/internal/registry"
	"github.com/matt-FFFFFF/porchlight/internal/workflow"
)

const (
	// DefaultKeepAlive is the interval between keep-alive comments on an idle event stream.
	DefaultKeepAlive  = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

var (
	// ErrInvalidJSON is returned when a request body is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON request")
	// ErrStartRun is returned when a run could not be started.
	ErrStartRun = errors.New("failed to start run")
	// ErrShutdown is returned when the server did not shut down cleanly.
	ErrShutdown = errors.New("server shutdown failed")
)

// Opener starts runs. *bridge.Bridge implements it.
type Opener interface {
	Open(ctx context.Context, req progress.Request) (*bridge.Stream, error)
}

// Server implements the HTTP API.
type Server struct {
	opener    Opener
	runs      *registry.Registry
	workflow  api.StepsListResponse
	keepAlive time.Duration
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithKeepAlive sets the interval between keep-alive comments on event streams.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// WithLogger sets the logger used for requests and runs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkflow sets the workflow described by the steps endpoint.
func WithWorkflow(def workflow.Definition) Option {
	return func(s *Server) {
		s.workflow = def.Describe()
	}
}

// New returns a Server starting runs with opener.
func New(opener Opener, opts ...Option) *Server {
	s := &Server{
		opener:    opener,
		runs:      registry.New(),
		workflow:  workflow.Demo().Describe(),
		keepAlive: DefaultKeepAlive,
		logger:    ctxlog.DefaultLogger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetupRoutes configures and returns the HTTP router with all API endpoints.
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(_ *gin.Context, _ *slog.Logger) *slog.Logger {
			return s.logger
		}),
	))
	router.Use(cors)

	router.GET(api.PathHealth, s.handleHealth)

	wf := router.Group("/api/workflow")
	{
		wf.POST("/run", s.handleRun)
		wf.GET("/ws", s.handleWebSocket)
		wf.GET("/runs", s.listRuns)
		wf.POST("/runs/:runID/cancel", s.cancelRun)
		wf.GET("/steps", s.listSteps)
	}

	return router
}

func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Writer.Header().Set("Access-Control-Expose-Headers", api.HeaderRunID)

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}

	c.Next()
}

// ActiveRuns returns the number of runs currently streaming.
func (s *Server) ActiveRuns() int {
	return s.runs.Len()
}

// CancelAll cancels every active run and returns how many were cancelled.
func (s *Server) CancelAll(reason cancellation.Reason) int {
	return s.runs.CancelAll(reason)
}

// Serve serves the API on l until ctx is done. It then cancels every active run and
// shuts the HTTP server down, waiting at most shutdownTimeout for open requests.
func (s *Server) Serve(ctx context.Context, l net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(l)
	}()

	s.logger.Info("HTTP server started", "addr", l.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	n := s.CancelAll(cancellation.ReasonShutdown)
	s.logger.Info("Shutting down", "cancelled_runs", n)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	<-errCh

	if err != nil {
		return errors.Join(ErrShutdown, err)
	}

	return nil
}

func (s *Server) requestContext(c *gin.Context) context.Context {
	return ctxlog.New(c.Request.Context(), s.logger)
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, api.ErrorResponse{
		Error:  msg,
		Status: status,
	})
}
