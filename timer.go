package pulse

import "time"

// Timer measures how long events take. Each interval accumulates four
// statistics, all in seconds: event count, total time, total of squared
// time, and the maximum single recording. Count and the totals are reported
// as per-second rates; max is reported as a gauge.
type Timer struct {
	meterState
	count   *StepDouble
	total   *StepDouble
	totalSq *StepDouble
	max     *StepDouble

	countID   *Id
	totalID   *Id
	totalSqID *Id
	maxID     *Id
}

func newTimer(id *Id, clock Clock, step time.Duration) *Timer {
	t := &Timer{
		count:   NewStepDouble(clock, step),
		total:   NewStepDouble(clock, step),
		totalSq: NewStepDouble(clock, step),
		max:     NewStepDouble(clock, step),
	}
	t.init(id, clock)
	t.countID = id.WithStat(StatCount).WithTag(TagDsType, DsRate)
	t.totalID = id.WithStat(StatTotalTime).WithTag(TagDsType, DsRate)
	t.totalSqID = id.WithStat(StatTotalOfSquares).WithTag(TagDsType, DsRate)
	t.maxID = id.WithStat(StatMax).WithTag(TagDsType, DsGauge)
	return t
}

// Record adds a single event of duration d. Negative durations are dropped.
func (t *Timer) Record(d time.Duration) {
	if d < 0 {
		return
	}
	secs := d.Seconds()
	t.count.Add(1)
	t.total.Add(secs)
	t.totalSq.Add(secs * secs)
	t.max.Max(secs)
	t.touch()
}

// Count returns the number of events recorded in the last completed
// interval.
func (t *Timer) Count() float64 {
	return t.count.Poll()
}

// TotalTime returns the summed duration, in seconds, of events recorded in
// the last completed interval.
func (t *Timer) TotalTime() float64 {
	return t.total.Poll()
}

// Max returns the longest single recording, in seconds, from the last
// completed interval.
func (t *Timer) Max() float64 {
	return t.max.Poll()
}

// Measure returns the four samples for the last completed interval.
func (t *Timer) Measure() []Measurement {
	now := t.clock.WallTime()
	stepSecs := float64(t.count.StepMillis()) / 1000.0
	return []Measurement{
		{ID: t.countID, Timestamp: now, Value: t.count.Poll() / stepSecs},
		{ID: t.totalID, Timestamp: now, Value: t.total.Poll() / stepSecs},
		{ID: t.totalSqID, Timestamp: now, Value: t.totalSq.Poll() / stepSecs},
		{ID: t.maxID, Timestamp: now, Value: t.max.Poll()},
	}
}
