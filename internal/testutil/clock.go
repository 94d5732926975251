// Package testutil provides deterministic clocks and record builders shared
// by tests across the engine packages.
package testutil

import (
	"sync"
	"time"
)

// Clock is a controllable wall clock for tests.
//
// Unlike time.Now, Clock only advances when the test says so, which makes
// last-checked / last-changed assertions exact instead of approximate.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current instant without advancing.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
