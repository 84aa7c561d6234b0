// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every environment variable read by LoadFromEnv.
const EnvPrefix = "PORCHLIGHT_"

// Upper bounds accepted from the environment.
const (
	MaxConcurrentRunsLimit = 100_000
	MaxDuration            = 24 * time.Hour
)

// LoadFromEnv overlays PORCHLIGHT_* environment variables onto c.
// It returns an error if a variable cannot be parsed or is out of range.
func (c *Config) LoadFromEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"API_HOST", &c.APIHost},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_FORMAT", &c.LogFormat},
		{"ERROR_POLICY", &c.ErrorPolicy},
		{"WORKFLOW_FILE", &c.WorkflowFile},
		{"WORKFLOW_NAME", &c.WorkflowName},
	}

	for _, s := range strs {
		if v := os.Getenv(EnvPrefix + s.key); v != "" {
			*s.dst = v
		}
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 1, MaxTCPPort); err != nil {
		return err
	}

	if err := loadEnvInt("MAX_CONCURRENT_RUNS", &c.MaxConcurrentRuns, 0, MaxConcurrentRunsLimit); err != nil {
		return err
	}

	durations := []struct {
		key       string
		dst       *time.Duration
		allowZero bool
	}{
		{"RUN_TIMEOUT", &c.RunTimeout, true},
		{"KEEP_ALIVE", &c.KeepAlive, false},
		{"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout, false},
	}

	for _, d := range durations {
		if err := loadEnvDuration(d.key, d.dst, d.allowZero); err != nil {
			return err
		}
	}

	return nil
}

// loadEnvInt sets *dst from the environment when the value lies in [min, max].
func loadEnvInt(key string, dst *int, min, max int) error {
	key = EnvPrefix + key

	s := os.Getenv(key)
	if s == "" {
		return nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}

	if v < min || v > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]", key, v, min, max)
	}

	*dst = v

	return nil
}

func loadEnvDuration(key string, dst *time.Duration, allowZero bool) error {
	key = EnvPrefix + key

	s := os.Getenv(key)
	if s == "" {
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}

	if v < 0 || (v == 0 && !allowZero) || v > MaxDuration {
		return fmt.Errorf("invalid %s: %s out of range", key, v)
	}

	*dst = v

	return nil
}
