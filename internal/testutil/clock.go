package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is where a new DeterministicClock starts.
var DefaultEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a clock for tests that advances by a fixed step on
// every call to Now, so repeated scenario runs produce identical
// timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewDeterministicClock creates a clock starting at DefaultEpoch with a
// one-minute step. The first call to Now() returns DefaultEpoch.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpoch, time.Minute)
}

// NewDeterministicClockAt creates a clock with an explicit start and step.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{start: start.UTC(), step: step}
}

// Now returns the current tick's time and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Current returns the time the next call to Now() will return.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.ticks) * c.step)
}

// Reset rewinds the clock to its start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
