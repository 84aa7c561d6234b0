// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func drain[T any](t *testing.T, q *Queue[T]) []T {
	t.Helper()

	var got []T

	timeout := time.After(2 * time.Second)

	for {
		select {
		case v, ok := <-q.Out():
			if !ok {
				return got
			}

			got = append(got, v)
		case <-timeout:
			t.Fatal("queue output was not closed")
			return got
		}
	}
}

func TestQueue_FIFOWithoutConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New[int]()

	for i := range 1000 {
		assert.True(t, q.Push(i))
	}

	q.Close()
	assert.False(t, q.Push(1000))

	got := drain(t, q)
	assert.Len(t, got, 1000)

	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueue_ConcurrentProducer(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New[int]()

	go func() {
		for i := range 200 {
			q.Push(i)
		}

		q.Close()
	}()

	got := drain(t, q)
	assert.Len(t, got, 200)
	assert.IsIncreasing(t, got)
}

func TestQueue_AbortDiscards(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New[string]()
	q.Push("a")
	q.Push("b")

	q.Abort()
	q.Abort()

	assert.False(t, q.Push("c"))
	assert.Equal(t, 0, q.Len())

	got := drain(t, q)
	assert.LessOrEqual(t, len(got), 1)
}

func TestQueue_AbortAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := New[int]()
	q.Push(1)
	q.Close()
	q.Abort()

	drain(t, q)
}
