package pulse

import "time"

// Counter measures how often an event occurs. The delta accumulated within
// an interval is reported as a per-second rate, so values from registries
// with different step sizes stay comparable.
type Counter struct {
	meterState
	value *StepDouble
	stat  *Id
}

func newCounter(id *Id, clock Clock, step time.Duration) *Counter {
	c := &Counter{value: NewStepDouble(clock, step)}
	c.init(id, clock)
	c.stat = id.WithStat(StatCount).WithTags(id.tags...).WithTag(TagDsType, DsRate)
	return c
}

// Increment records a single occurrence.
func (c *Counter) Increment() {
	c.Add(1)
}

// Add records delta occurrences. The counter is monotonic within an
// interval: negative and NaN deltas are dropped.
func (c *Counter) Add(delta float64) {
	if delta > 0 {
		c.value.Add(delta)
		c.touch()
	}
}

// Count returns the delta accumulated in the last completed interval.
func (c *Counter) Count() float64 {
	return c.value.Poll()
}

// Rate returns Count scaled to events per second.
func (c *Counter) Rate() float64 {
	return c.Count() / (float64(c.value.StepMillis()) / 1000.0)
}

// Measure returns the single rate sample for the last completed interval.
func (c *Counter) Measure() []Measurement {
	return []Measurement{{ID: c.stat, Timestamp: c.clock.WallTime(), Value: c.Rate()}}
}
