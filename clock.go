package pulse

import (
	"sync/atomic"
	"time"
)

// Clock supplies the wall time used for step rotation and measurement
// timestamps. Implementations must be monotonic non-decreasing and safe for
// concurrent use.
type Clock interface {
	// WallTime returns milliseconds since the Unix epoch.
	WallTime() int64
}

// SystemClock reads the system time.
type SystemClock struct{}

// WallTime returns the current system time in milliseconds.
func (SystemClock) WallTime() int64 {
	return time.Now().UnixMilli()
}

// ManualClock is a settable Clock for deterministic tests. The zero value
// starts at time 0.
type ManualClock struct {
	t atomic.Int64
}

// NewManualClock creates a manual clock set to start milliseconds.
func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.t.Store(start)
	return c
}

// WallTime returns the time last set on the clock.
func (c *ManualClock) WallTime() int64 {
	return c.t.Load()
}

// SetTime moves the clock to t milliseconds.
func (c *ManualClock) SetTime(t int64) {
	c.t.Store(t)
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.t.Add(d.Milliseconds())
}
