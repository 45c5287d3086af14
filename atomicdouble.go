package pulse

import (
	"math"
	"sync/atomic"
)

// AtomicDouble is a float64 with atomic operations, stored as its IEEE-754
// bit pattern in a uint64. CompareAndSet matches the exact bit pattern of
// the expected value, which is what the CAS retry loops in this package
// rely on. The zero value holds 0.0 and is ready to use.
type AtomicDouble struct {
	bits atomic.Uint64
}

// NewAtomicDouble creates an AtomicDouble holding v.
func NewAtomicDouble(v float64) *AtomicDouble {
	d := &AtomicDouble{}
	d.bits.Store(math.Float64bits(v))
	return d
}

// Get returns the current value.
func (d *AtomicDouble) Get() float64 {
	return math.Float64frombits(d.bits.Load())
}

// Set unconditionally overwrites the value.
func (d *AtomicDouble) Set(v float64) {
	d.bits.Store(math.Float64bits(v))
}

// GetAndSet overwrites the value with v and returns the value it replaced.
func (d *AtomicDouble) GetAndSet(v float64) float64 {
	return math.Float64frombits(d.bits.Swap(math.Float64bits(v)))
}

// CompareAndSet replaces the value with update iff the stored bit pattern
// equals expect's bit pattern, and reports whether it did. There is no
// epsilon tolerance: this is the primitive for retry loops, not a business
// comparison.
func (d *AtomicDouble) CompareAndSet(expect, update float64) bool {
	return d.bits.CompareAndSwap(math.Float64bits(expect), math.Float64bits(update))
}

// reduce folds v into the stored value with combine, retrying on CAS
// contention. The loop terminates as soon as combine leaves the stored
// value unchanged, so reducers that frequently hit their fixed point (max
// with a non-record value) skip the CAS entirely.
func (d *AtomicDouble) reduce(v float64, combine func(curr, v float64) float64) {
	for {
		curr := d.Get()
		next := combine(curr, v)
		if next == curr || d.CompareAndSet(curr, next) {
			return
		}
	}
}

// Add atomically adds delta to the value. NaN deltas are dropped so a bad
// sample cannot poison a running sum.
func (d *AtomicDouble) Add(delta float64) {
	if math.IsNaN(delta) {
		return
	}
	d.reduce(delta, func(curr, v float64) float64 { return curr + v })
}

// Max atomically raises the value to v if v is greater. NaN never compares
// greater than anything, so NaN samples are dropped.
func (d *AtomicDouble) Max(v float64) {
	d.reduce(v, func(curr, v float64) float64 {
		if v > curr {
			return v
		}
		return curr
	})
}
