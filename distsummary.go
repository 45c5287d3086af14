package pulse

import "time"

// DistributionSummary tracks the distribution of event sizes: request
// payload bytes, batch lengths, queue depths sampled per event. Each
// interval accumulates count, total amount, total of squared amounts, and
// the maximum single amount.
type DistributionSummary struct {
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

func newDistributionSummary(id *Id, clock Clock, step time.Duration) *DistributionSummary {
	s := &DistributionSummary{
		count:   NewStepDouble(clock, step),
		total:   NewStepDouble(clock, step),
		totalSq: NewStepDouble(clock, step),
		max:     NewStepDouble(clock, step),
	}
	s.init(id, clock)
	s.countID = id.WithStat(StatCount).WithTag(TagDsType, DsRate)
	s.totalID = id.WithStat(StatTotalAmount).WithTag(TagDsType, DsRate)
	s.totalSqID = id.WithStat(StatTotalOfSquares).WithTag(TagDsType, DsRate)
	s.maxID = id.WithStat(StatMax).WithTag(TagDsType, DsGauge)
	return s
}

// Record adds a single event of the given size. Negative and NaN amounts
// are dropped.
func (s *DistributionSummary) Record(amount float64) {
	if !(amount >= 0) {
		return
	}
	s.count.Add(1)
	s.total.Add(amount)
	s.totalSq.Add(amount * amount)
	s.max.Max(amount)
	s.touch()
}

// Count returns the number of events recorded in the last completed
// interval.
func (s *DistributionSummary) Count() float64 {
	return s.count.Poll()
}

// TotalAmount returns the summed amounts from the last completed interval.
func (s *DistributionSummary) TotalAmount() float64 {
	return s.total.Poll()
}

// Max returns the largest single amount from the last completed interval.
func (s *DistributionSummary) Max() float64 {
	return s.max.Poll()
}

// Measure returns the four samples for the last completed interval.
func (s *DistributionSummary) Measure() []Measurement {
	now := s.clock.WallTime()
	stepSecs := float64(s.count.StepMillis()) / 1000.0
	return []Measurement{
		{ID: s.countID, Timestamp: now, Value: s.count.Poll() / stepSecs},
		{ID: s.totalID, Timestamp: now, Value: s.total.Poll() / stepSecs},
		{ID: s.totalSqID, Timestamp: now, Value: s.totalSq.Poll() / stepSecs},
		{ID: s.maxID, Timestamp: now, Value: s.max.Poll()},
	}
}
