// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
	"time"
)

// Clock hands out timestamps for one run. It never returns a time earlier than one it
// returned before, so events stay ordered even if the wall clock steps backwards.
// The zero value uses time.Now.
type Clock struct {
	now  func() time.Time
	mu   sync.Mutex
	last time.Time
}

// NewClock returns a Clock reading from now. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current timestamp in UTC with the monotonic reading stripped,
// so values survive a JSON round trip unchanged.
func (c *Clock) Now() time.Time {
	now := c.now
	if now == nil {
		now = time.Now
	}

	t := now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.last) {
		return c.last
	}

	c.last = t

	return t
}

// Observe folds a timestamp supplied from elsewhere into the clock. It returns t in UTC,
// or the last timestamp handed out if t is earlier, and later calls to Now and Observe
// never return anything earlier than the result.
func (c *Clock) Observe(t time.Time) time.Time {
	t = t.Round(0).UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.last) {
		return c.last
	}

	c.last = t

	return t
}
