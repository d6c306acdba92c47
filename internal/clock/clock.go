// Package clock supplies the monotonic millisecond timestamps the power
// controller runs on.
package clock

import (
	"sync"
	"time"
)

// Clock returns a non-decreasing millisecond timestamp.
type Clock interface {
	NowMs() int64
}

// SystemClock counts milliseconds since it was created, using the monotonic
// reading carried by time.Time so wall clock adjustments have no effect.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock whose epoch is now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// NowMs returns milliseconds since the clock was created.
func (c *SystemClock) NowMs() int64 {
	return time.Since(c.start).Milliseconds()
}

// Start returns the wall time of the clock epoch.
func (c *SystemClock) Start() time.Time {
	return c.start
}

// ManualClock is a test clock advanced explicitly.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock reading start.
func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

// NowMs returns the current manual time.
func (c *ManualClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms. Negative values are ignored.
func (c *ManualClock) Advance(ms int64) {
	if ms <= 0 {
		return
	}
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

// Set moves the clock to ms if that is not in the past.
func (c *ManualClock) Set(ms int64) {
	c.mu.Lock()
	if ms > c.now {
		c.now = ms
	}
	c.mu.Unlock()
}
