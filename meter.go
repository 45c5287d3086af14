package pulse

import (
	"sync/atomic"
	"time"
)

// Meter is the common surface of all metric primitives in this package.
type Meter interface {
	// MeterID returns the identifier the meter was created with, including
	// registry common tags.
	MeterID() *Id
	// Measure returns the samples for the last completed interval. Calling
	// it repeatedly before the next rotation yields identical values.
	Measure() []Measurement
	// HasExpired reports whether the meter has gone unwritten for longer
	// than ttl as of now. A ttl of zero never expires.
	HasExpired(now int64, ttl time.Duration) bool
}

// meterState carries the bookkeeping shared by every meter: identity, the
// clock, and the wall time of the last write, used by the registry for
// staleness eviction.
type meterState struct {
	id          *Id
	clock       Clock
	lastModTime atomic.Int64
}

func (m *meterState) init(id *Id, clock Clock) {
	m.id = id
	m.clock = clock
	m.lastModTime.Store(clock.WallTime())
}

// MeterID returns the meter's identifier.
func (m *meterState) MeterID() *Id {
	return m.id
}

// LastModified returns the wall time of the last write in milliseconds.
func (m *meterState) LastModified() int64 {
	return m.lastModTime.Load()
}

// HasExpired reports whether the meter is stale as of now.
func (m *meterState) HasExpired(now int64, ttl time.Duration) bool {
	return ttl > 0 && now-m.lastModTime.Load() > ttl.Milliseconds()
}

func (m *meterState) touch() {
	m.lastModTime.Store(m.clock.WallTime())
}
