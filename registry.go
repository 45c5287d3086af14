package pulse

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry creates and owns meters and produces the measurement batches a
// reporting cycle consumes. Meter lookup is get-or-create: the same id
// always yields the same meter instance. All methods are safe for
// concurrent use.
type Registry struct {
	cfg        Config
	clock      Clock
	log        zerolog.Logger
	commonTags []Tag
	instanceID string

	mu     sync.RWMutex
	meters map[string]Meter
}

// NewRegistry creates a registry from cfg. The configuration must already
// be complete; use Builder for defaulting.
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg = cloneConfig(cfg)
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	r := &Registry{
		cfg:        cfg,
		clock:      cfg.Clock,
		log:        logger,
		commonTags: cfg.CommonTags,
		meters:     make(map[string]Meter),
	}
	if cfg.InstanceTag {
		r.instanceID = uuid.NewString()
		r.commonTags = append(r.commonTags, Tag{Key: "instance", Value: r.instanceID})
	}
	return r, nil
}

// Clock returns the clock the registry and its meters run on.
func (r *Registry) Clock() Clock {
	return r.clock
}

// Logger returns the registry's logger. Bridges default to it.
func (r *Registry) Logger() zerolog.Logger {
	return r.log
}

// InstanceID returns the generated instance tag value, or "" when
// Config.InstanceTag is off.
func (r *Registry) InstanceID() string {
	return r.instanceID
}

// effectiveID merges the registry common tags under the meter's own tags.
func (r *Registry) effectiveID(id *Id) *Id {
	if len(r.commonTags) == 0 {
		return id
	}
	return NewId(id.name, r.commonTags...).WithTags(id.tags...)
}

func (r *Registry) getOrCreate(id *Id, create func(eid *Id) Meter) Meter {
	eid := r.effectiveID(id)
	key := eid.mapKey()

	r.mu.RLock()
	m, ok := r.meters[key]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meters[key]; ok {
		return m
	}
	m = create(eid)
	r.meters[key] = m
	return m
}

// typeMismatch logs the collision and never fails the caller: metric
// instrumentation must not take down the instrumented code path.
func (r *Registry) typeMismatch(id *Id, wanted string) {
	r.log.Warn().
		Str("id", id.String()).
		Str("wanted", wanted).
		Msg("meter already registered with a different type, returning unregistered meter")
}

// Counter returns the counter registered for name and tags, creating it if
// needed.
func (r *Registry) Counter(name string, tags ...Tag) *Counter {
	return r.CounterID(NewId(name, tags...))
}

// CounterID returns the counter registered for id, creating it if needed.
func (r *Registry) CounterID(id *Id) *Counter {
	m := r.getOrCreate(id, func(eid *Id) Meter { return newCounter(eid, r.clock, r.cfg.Step) })
	c, ok := m.(*Counter)
	if !ok {
		r.typeMismatch(id, "counter")
		return newCounter(r.effectiveID(id), r.clock, r.cfg.Step)
	}
	return c
}

// Gauge returns the gauge registered for name and tags, creating it if
// needed.
func (r *Registry) Gauge(name string, tags ...Tag) *Gauge {
	return r.GaugeID(NewId(name, tags...))
}

// GaugeID returns the gauge registered for id, creating it if needed.
func (r *Registry) GaugeID(id *Id) *Gauge {
	m := r.getOrCreate(id, func(eid *Id) Meter { return newGauge(eid, r.clock) })
	g, ok := m.(*Gauge)
	if !ok {
		r.typeMismatch(id, "gauge")
		return newGauge(r.effectiveID(id), r.clock)
	}
	return g
}

// MaxGauge returns the max gauge registered for name and tags, creating it
// if needed.
func (r *Registry) MaxGauge(name string, tags ...Tag) *MaxGauge {
	return r.MaxGaugeID(NewId(name, tags...))
}

// MaxGaugeID returns the max gauge registered for id, creating it if
// needed.
func (r *Registry) MaxGaugeID(id *Id) *MaxGauge {
	m := r.getOrCreate(id, func(eid *Id) Meter { return newMaxGauge(eid, r.clock, r.cfg.Step) })
	g, ok := m.(*MaxGauge)
	if !ok {
		r.typeMismatch(id, "max gauge")
		return newMaxGauge(r.effectiveID(id), r.clock, r.cfg.Step)
	}
	return g
}

// Timer returns the timer registered for name and tags, creating it if
// needed.
func (r *Registry) Timer(name string, tags ...Tag) *Timer {
	return r.TimerID(NewId(name, tags...))
}

// TimerID returns the timer registered for id, creating it if needed.
func (r *Registry) TimerID(id *Id) *Timer {
	m := r.getOrCreate(id, func(eid *Id) Meter { return newTimer(eid, r.clock, r.cfg.Step) })
	t, ok := m.(*Timer)
	if !ok {
		r.typeMismatch(id, "timer")
		return newTimer(r.effectiveID(id), r.clock, r.cfg.Step)
	}
	return t
}

// DistributionSummary returns the distribution summary registered for name
// and tags, creating it if needed.
func (r *Registry) DistributionSummary(name string, tags ...Tag) *DistributionSummary {
	return r.DistributionSummaryID(NewId(name, tags...))
}

// DistributionSummaryID returns the distribution summary registered for id,
// creating it if needed.
func (r *Registry) DistributionSummaryID(id *Id) *DistributionSummary {
	m := r.getOrCreate(id, func(eid *Id) Meter { return newDistributionSummary(eid, r.clock, r.cfg.Step) })
	s, ok := m.(*DistributionSummary)
	if !ok {
		r.typeMismatch(id, "distribution summary")
		return newDistributionSummary(r.effectiveID(id), r.clock, r.cfg.Step)
	}
	return s
}

// Size returns the number of registered meters.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meters)
}

// Meters returns a snapshot of the registered meters.
func (r *Registry) Meters() []Meter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Meter, 0, len(r.meters))
	for _, m := range r.meters {
		out = append(out, m)
	}
	return out
}

// Measurements gathers one sample batch from every live meter, evicting
// meters that have gone unwritten longer than Config.MeterTTL. This is the
// sole read interface of a reporting cycle.
func (r *Registry) Measurements() []Measurement {
	now := r.clock.WallTime()

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Measurement, 0, len(r.meters))
	for key, m := range r.meters {
		if m.HasExpired(now, r.cfg.MeterTTL) {
			delete(r.meters, key)
			r.log.Debug().Str("id", m.MeterID().String()).Msg("evicted stale meter")
			continue
		}
		out = append(out, m.Measure()...)
	}
	return out
}
