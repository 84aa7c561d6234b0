// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

// ErrReadConfigFile is returned when the configuration file cannot be read or decoded.
var ErrReadConfigFile = errors.New("failed to read configuration file")

// FsFactory is a function that returns an afero filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// fileConfig is the YAML layout of a configuration file.
// Keys that are absent leave the current value alone.
type fileConfig struct {
	APIHost           *string           `yaml:"api_host"`
	APIPort           *int              `yaml:"api_port"`
	LogLevel          *string           `yaml:"log_level"`
	LogFormat         *string           `yaml:"log_format"`
	ErrorPolicy       *string           `yaml:"error_policy"`
	MaxConcurrentRuns *int              `yaml:"max_concurrent_runs"`
	RunTimeout        *string           `yaml:"run_timeout"`
	KeepAlive         *string           `yaml:"keep_alive"`
	ShutdownTimeout   *string           `yaml:"shutdown_timeout"`
	WorkflowFile      *string           `yaml:"workflow_file"`
	WorkflowName      *string           `yaml:"workflow_name"`
	WorkflowVars      map[string]string `yaml:"workflow_vars"`
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	content, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return errors.Join(ErrReadConfigFile, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return errors.Join(ErrReadConfigFile, err)
	}

	durations := []struct {
		key string
		src *string
		dst *time.Duration
	}{
		{"run_timeout", fc.RunTimeout, &c.RunTimeout},
		{"keep_alive", fc.KeepAlive, &c.KeepAlive},
		{"shutdown_timeout", fc.ShutdownTimeout, &c.ShutdownTimeout},
	}

	parsed := make([]time.Duration, len(durations))

	for i, d := range durations {
		if d.src == nil {
			continue
		}

		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return errors.Join(ErrReadConfigFile, fmt.Errorf("%s: %w", d.key, err))
		}

		parsed[i] = v
	}

	// Only apply once everything parsed, so a bad file leaves c untouched.
	for i, d := range durations {
		if d.src != nil {
			*d.dst = parsed[i]
		}
	}

	setIf(&c.APIHost, fc.APIHost)
	setIf(&c.APIPort, fc.APIPort)
	setIf(&c.LogLevel, fc.LogLevel)
	setIf(&c.LogFormat, fc.LogFormat)
	setIf(&c.ErrorPolicy, fc.ErrorPolicy)
	setIf(&c.MaxConcurrentRuns, fc.MaxConcurrentRuns)
	setIf(&c.WorkflowFile, fc.WorkflowFile)
	setIf(&c.WorkflowName, fc.WorkflowName)

	if len(fc.WorkflowVars) > 0 {
		if c.WorkflowVars == nil {
			c.WorkflowVars = make(map[string]string, len(fc.WorkflowVars))
		}

		maps.Copy(c.WorkflowVars, fc.WorkflowVars)
	}

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
