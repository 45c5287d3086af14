package pulse

import (
	"fmt"
	"sync/atomic"
	"time"
)

// StepDouble is a double value that accumulates over a fixed step interval.
// Writers update the interval containing "now" through Add, Max, or
// Current; Poll returns the value frozen at the end of the last completed
// interval.
//
// Rotation is lazy: the first access after a step boundary moves the
// accumulated value into the previous slot and resets the accumulator to
// the 0.0 identity. Intervals that receive no access at all are discarded,
// so Poll only ever reports the most recently completed interval. This is a
// sampling accumulator, not a log.
type StepDouble struct {
	clock Clock
	step  int64 // milliseconds

	current  AtomicDouble
	previous AtomicDouble

	// lastInit is the rotation position: wall time divided by step. Only
	// the caller that wins the CAS on it performs the rotation for a given
	// boundary.
	lastInit atomic.Int64
}

// NewStepDouble creates a step accumulator driven by clock. A non-positive
// step or a nil clock is a programmer error and panics.
func NewStepDouble(clock Clock, step time.Duration) *StepDouble {
	if clock == nil {
		panic("pulse: nil clock")
	}
	ms := step.Milliseconds()
	if ms <= 0 {
		panic(fmt.Sprintf("pulse: step must be at least 1ms, got %v", step))
	}
	d := &StepDouble{clock: clock, step: ms}
	d.lastInit.Store(clock.WallTime() / ms)
	return d
}

// roll rotates if a step boundary has been crossed since the last rotation.
// The CAS on lastInit guarantees at most one rotation per boundary under
// concurrent callers.
func (d *StepDouble) roll(now int64) {
	stepTime := now / d.step
	lastInit := d.lastInit.Load()
	if lastInit < stepTime && d.lastInit.CompareAndSwap(lastInit, stepTime) {
		v := d.current.GetAndSet(0.0)
		// If one or more whole intervals passed without any access, the
		// accumulated value belongs to a window older than the one that
		// just closed. Freeze the identity instead.
		if lastInit == stepTime-1 {
			d.previous.Set(v)
		} else {
			d.previous.Set(0.0)
		}
	}
}

// Current returns the cell accumulating the interval that contains now.
// Callers must not cache the returned cell across calls: after a rotation a
// cached reference writes into the wrong window. Use Add or Max, which
// combine the fetch and the update in one call.
func (d *StepDouble) Current() *AtomicDouble {
	d.roll(d.clock.WallTime())
	return &d.current
}

// Poll returns the value of the last completed interval. Polling also
// rotates a window that elapsed without any writer activity, so staleness
// is bounded by one step. Repeated polls within a window return the same
// value.
func (d *StepDouble) Poll() float64 {
	d.roll(d.clock.WallTime())
	return d.previous.Get()
}

// Add adds delta to the current interval.
func (d *StepDouble) Add(delta float64) {
	d.Current().Add(delta)
}

// Max raises the current interval's value to v if v is greater.
func (d *StepDouble) Max(v float64) {
	d.Current().Max(v)
}

// StepMillis returns the interval size in milliseconds.
func (d *StepDouble) StepMillis() int64 {
	return d.step
}
