// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package registry keeps track of the runs that are currently streaming, so they can be
// listed, cancelled by ID, or all cancelled at shutdown.
package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/porchlight/internal/cancellation"
)

var (
	// ErrDuplicateRun is returned when a run ID is registered twice.
	ErrDuplicateRun = errors.New("run already registered")
	// ErrUnknownRun is returned when a run ID is not registered.
	ErrUnknownRun = errors.New("unknown run")
)

// Run is the part of a stream the registry needs.
type Run interface {
	ID() string
	JobID() string
	Cancel(reason cancellation.Reason) bool
}

// Registry holds the active runs by ID. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{runs: make(map[string]Run)}
}

// Register adds run. The returned function removes it again and may be called more than once.
func (r *Registry) Register(run Run) (func(), error) {
	id := run.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRun, id)
	}

	r.runs[id] = run

	return func() { r.unregister(id, run) }, nil
}

func (r *Registry) unregister(id string, run Run) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runs[id] == run {
		delete(r.runs, id)
	}
}

// Get returns the run registered under id.
func (r *Registry) Get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]

	return run, ok
}

// Cancel cancels the run registered under id with reason.
func (r *Registry) Cancel(id string, reason cancellation.Reason) error {
	run, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}

	run.Cancel(reason)

	return nil
}

// List returns the registered runs ordered by ID.
func (r *Registry) List() []Run {
	r.mu.RLock()
	runs := slices.Collect(maps.Values(r.runs))
	r.mu.RUnlock()

	slices.SortFunc(runs, func(a, b Run) int {
		return strings.Compare(a.ID(), b.ID())
	})

	return runs
}

// Len returns the number of registered runs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.runs)
}

// CancelAll cancels every registered run with reason and returns how many were
// cancelled by this call.
func (r *Registry) CancelAll(reason cancellation.Reason) int {
	n := 0

	for _, run := range r.List() {
		if run.Cancel(reason) {
			n++
		}
	}

	return n
}
