// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config holds the server configuration. Values are layered: defaults first,
// then an optional YAML file, then PORCHLIGHT_* environment variables and finally
// command line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/porchlight/internal/bridge"
	"github.com/matt-FFFFFF/porchlight/internal/ctxlog"
)

// Config holds the settings of the streaming server.
type Config struct {
	// API server
	APIHost   string
	APIPort   int
	LogLevel  string
	LogFormat string

	// Runs
	ErrorPolicy       string
	MaxConcurrentRuns int
	RunTimeout        time.Duration
	KeepAlive         time.Duration
	ShutdownTimeout   time.Duration

	// Workflow
	WorkflowFile string
	WorkflowName string
	WorkflowVars map[string]string
}

const (
	DefaultAPIHost         = "0.0.0.0"
	DefaultAPIPort         = 8080
	DefaultKeepAlive       = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	MaxTCPPort             = 65535

	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

var (
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrInvalidAPIPort         = errors.New("invalid API port")
	ErrInvalidLogFormat       = errors.New("invalid log format")
	ErrInvalidMaxRuns         = errors.New("max concurrent runs must not be negative")
	ErrInvalidRunTimeout      = errors.New("run timeout must not be negative")
	ErrInvalidKeepAlive       = errors.New("keep-alive interval must be positive")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
)

// NewDefaultConfig returns the configuration used when nothing is overridden.
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        "info",
		LogFormat:       LogFormatPretty,
		ErrorPolicy:     bridge.ErrorPolicyErrorKind.String(),
		KeepAlive:       DefaultKeepAlive,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Addr returns the listen address of the API server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.APIHost, strconv.Itoa(c.APIPort))
}

// Policy returns the parsed error policy. Call Validate first.
func (c *Config) Policy() bridge.ErrorPolicy {
	p, _ := bridge.ParseErrorPolicy(c.ErrorPolicy)
	return p
}

// Validate checks every setting and reports all problems together.
func (c *Config) Validate() error {
	var result error

	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		result = multierror.Append(result, fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort))
	}

	if _, err := ctxlog.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}

	switch strings.ToLower(c.LogFormat) {
	case LogFormatPretty, LogFormatJSON:
	default:
		result = multierror.Append(result, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat))
	}

	if _, err := bridge.ParseErrorPolicy(c.ErrorPolicy); err != nil {
		result = multierror.Append(result, err)
	}

	if c.MaxConcurrentRuns < 0 {
		result = multierror.Append(result, ErrInvalidMaxRuns)
	}

	if c.RunTimeout < 0 {
		result = multierror.Append(result, ErrInvalidRunTimeout)
	}

	if c.KeepAlive <= 0 {
		result = multierror.Append(result, ErrInvalidKeepAlive)
	}

	if c.ShutdownTimeout <= 0 {
		result = multierror.Append(result, ErrInvalidShutdownTimeout)
	}

	if result != nil {
		return errors.Join(ErrInvalidConfig, result)
	}

	return nil
}
