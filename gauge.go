package pulse

// Gauge holds the last value set. Unlike MaxGauge there is no windowing:
// the stored value is sampled as-is at measurement time. Bridges use gauges
// for point-in-time values pulled from foreign registries.
type Gauge struct {
	meterState
	value AtomicDouble
	stat  *Id
}

func newGauge(id *Id, clock Clock) *Gauge {
	g := &Gauge{}
	g.init(id, clock)
	g.stat = id.WithStat(StatGauge).WithTags(id.tags...).WithTag(TagDsType, DsGauge)
	return g
}

// Set overwrites the gauge value.
func (g *Gauge) Set(v float64) {
	g.value.Set(v)
	g.touch()
}

// Get returns the last value set.
func (g *Gauge) Get() float64 {
	return g.value.Get()
}

// Measure returns the current gauge sample.
func (g *Gauge) Measure() []Measurement {
	return []Measurement{{ID: g.stat, Timestamp: g.clock.WallTime(), Value: g.Get()}}
}
