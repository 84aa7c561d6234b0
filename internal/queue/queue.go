// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package queue provides an unbounded FIFO between one producer and one consumer.
// The producer never blocks and nothing is ever dropped; the consumer reads from a channel.
package queue

import (
	"sync"
)

// Queue is an unbounded single-producer, single-consumer FIFO.
// A pump goroutine moves items from the internal buffer to the Out channel; it exits once
// the queue is closed and drained, or aborted.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	closed  bool
	aborted bool

	wake      chan struct{}
	abort     chan struct{}
	abortOnce sync.Once
	out       chan T
}

// New returns a running queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		wake:  make(chan struct{}, 1),
		abort: make(chan struct{}),
		out:   make(chan T),
	}

	go q.pump()

	return q
}

// Push appends v. It returns false if the queue has been closed or aborted.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return false
	}

	q.items = append(q.items, v)
	q.mu.Unlock()

	q.notify()

	return true
}

// Close stops accepting items. Items already pushed are still delivered, then Out is closed.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.notify()
}

// Abort stops accepting items, discards anything not yet delivered and closes Out.
func (q *Queue[T]) Abort() {
	q.mu.Lock()
	q.closed = true
	q.aborted = true
	q.items = nil
	q.mu.Unlock()

	q.abortOnce.Do(func() { close(q.abort) })
}

// Out returns the channel the consumer reads from.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Len returns the number of buffered items not yet handed to the consumer.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

func (q *Queue[T]) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) pump() {
	defer close(q.out)

	for {
		v, ok, done := q.next()
		if done {
			return
		}

		if ok {
			select {
			case q.out <- v:
			case <-q.abort:
				return
			}

			continue
		}

		select {
		case <-q.wake:
		case <-q.abort:
			return
		}
	}
}

// next pops the head item. done is true once nothing more will ever be delivered.
func (q *Queue[T]) next() (v T, ok, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.aborted {
		return v, false, true
	}

	if len(q.items) > 0 {
		var zero T

		v = q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]

		return v, true, false
	}

	return v, false, q.closed
}
