package pulse

import "time"

// MaxGauge reports the maximum value submitted during an interval. Any
// number of goroutines may call Set; the poll cycle reads the last
// completed interval's maximum and the accumulator resets to 0.0 at each
// rotation, so a quiet interval reports 0.
type MaxGauge struct {
	meterState
	value *StepDouble
	stat  *Id
}

func newMaxGauge(id *Id, clock Clock, step time.Duration) *MaxGauge {
	g := &MaxGauge{value: NewStepDouble(clock, step)}
	g.init(id, clock)
	// Qualify the measurement id for typing. Re-applying the id's own tags
	// keeps a statistic tag that was already set on it.
	g.stat = id.WithStat(StatMax).WithTags(id.tags...).WithTag(TagDsType, DsGauge)
	return g
}

// Set raises the current interval's maximum to v. A value that is not a new
// maximum, including NaN, is dropped without attempting a CAS.
func (g *MaxGauge) Set(v float64) {
	g.value.Max(v)
	g.touch()
}

// Value returns the maximum from the last completed interval.
func (g *MaxGauge) Value() float64 {
	return g.value.Poll()
}

// Measure returns the single max sample for the last completed interval.
func (g *MaxGauge) Measure() []Measurement {
	return []Measurement{{ID: g.stat, Timestamp: g.clock.WallTime(), Value: g.Value()}}
}
