// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package worker decides where a run executes.
package worker

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrPoolExhausted is returned when a Pool is already running its maximum number of tasks.
var ErrPoolExhausted = errors.New("worker pool exhausted")

// Scheduler runs a task on some worker. Go returns an error if the task was refused,
// in which case it will never run.
type Scheduler interface {
	Go(task func()) error
}

// Inline runs every task synchronously on the caller's goroutine.
// It is meant for tests where deterministic interleaving matters.
type Inline struct{}

// Go implements Scheduler.
func (Inline) Go(task func()) error {
	task()
	return nil
}

var (
	_ Scheduler = Inline{}
	_ Scheduler = (*Pool)(nil)
)

// Pool runs each task on its own goroutine, with an optional limit on how many
// run at the same time.
type Pool struct {
	g errgroup.Group
}

// NewPool returns a Pool running at most limit tasks at once. A limit of zero or less means no limit.
func NewPool(limit int) *Pool {
	p := &Pool{}
	if limit > 0 {
		p.g.SetLimit(limit)
	}

	return p
}

// Go implements Scheduler. It never blocks: a full pool refuses the task with ErrPoolExhausted.
func (p *Pool) Go(task func()) error {
	ok := p.g.TryGo(func() error {
		task()
		return nil
	})
	if !ok {
		return ErrPoolExhausted
	}

	return nil
}

// Wait blocks until every task started on the pool has returned.
func (p *Pool) Wait() {
	_ = p.g.Wait()
}
