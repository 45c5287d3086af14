package prombridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/pulsemetrics/pulse"
)

var (
	// ErrNilGatherer is returned when the bridge is created without a gatherer.
	ErrNilGatherer = errors.New("nil gatherer")
	// ErrNilRegistry is returned when the bridge is created without a registry.
	ErrNilRegistry = errors.New("nil registry")
	// ErrInvalidInterval is returned when Run is given a non-positive interval.
	ErrInvalidInterval = errors.New("interval must be > 0")
)

// NameFunc maps a Prometheus family name to a pulse id. Returning nil
// skips the family for the cycle; that is a deliberate filter, not an
// error.
type NameFunc func(name string) *pulse.Id

// Bridge reads a Prometheus gatherer and re-records every family into a
// pulse registry. One bridge instance expects one caller at a time per
// Collect; Run provides the scheduled loop.
type Bridge struct {
	gatherer prometheus.Gatherer
	registry *pulse.Registry
	nameFn   NameFunc
	log      zerolog.Logger

	mu   sync.Mutex
	prev map[string]float64
}

// New creates a bridge from gatherer into registry. A nil nameFn maps
// every family name to an untagged id of the same name.
func New(gatherer prometheus.Gatherer, registry *pulse.Registry, nameFn NameFunc) (*Bridge, error) {
	if gatherer == nil {
		return nil, ErrNilGatherer
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if nameFn == nil {
		nameFn = func(name string) *pulse.Id { return pulse.NewId(name) }
	}
	return &Bridge{
		gatherer: gatherer,
		registry: registry,
		nameFn:   nameFn,
		log:      registry.Logger(),
		prev:     make(map[string]float64),
	}, nil
}

// Collect gathers once and re-records every family.
func (b *Bridge) Collect() error {
	families, err := b.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}

	var gauges, counters, histograms, summaries int
	for _, mf := range families {
		id := b.nameFn(mf.GetName())
		if id == nil {
			continue
		}
		switch mf.GetType() {
		case dto.MetricType_GAUGE:
			gauges++
			for _, m := range mf.GetMetric() {
				b.setGauge(id, m, m.GetGauge().GetValue())
			}
		case dto.MetricType_UNTYPED:
			gauges++
			for _, m := range mf.GetMetric() {
				b.setGauge(id, m, m.GetUntyped().GetValue())
			}
		case dto.MetricType_COUNTER:
			counters++
			for _, m := range mf.GetMetric() {
				b.addDelta(id.WithTags(labelTags(m)...), m.GetCounter().GetValue())
			}
		case dto.MetricType_HISTOGRAM:
			histograms++
			for _, m := range mf.GetMetric() {
				b.recordHistogram(id, m)
			}
		case dto.MetricType_SUMMARY:
			summaries++
			for _, m := range mf.GetMetric() {
				b.recordSummary(id, m)
			}
		}
	}

	b.log.Debug().
		Int("gauges", gauges).
		Int("counters", counters).
		Int("histograms", histograms).
		Int("summaries", summaries).
		Msg("bridged prometheus families")
	return nil
}

// Run collects on a fixed interval until ctx is done.
func (b *Bridge) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.Collect(); err != nil {
				b.log.Error().Err(err).Msg("prometheus bridge collect failed")
			}
		}
	}
}

func (b *Bridge) setGauge(id *pulse.Id, m *dto.Metric, v float64) {
	b.registry.GaugeID(id.WithTags(labelTags(m)...)).Set(v)
}

// addDelta feeds a cumulative source value into a pulse counter as the
// delta since the previous cycle. A value below the baseline means the
// source restarted; the whole value counts again.
func (b *Bridge) addDelta(id *pulse.Id, curr float64) {
	key := id.String()

	b.mu.Lock()
	prev := b.prev[key]
	b.prev[key] = curr
	b.mu.Unlock()

	delta := curr - prev
	if delta < 0 {
		delta = curr
	}
	if delta > 0 {
		b.registry.CounterID(id).Add(delta)
	}
}

func (b *Bridge) recordHistogram(id *pulse.Id, m *dto.Metric) {
	tagged := id.WithTags(labelTags(m)...)
	h := m.GetHistogram()
	b.addDelta(tagged.WithStat(pulse.StatCount), float64(h.GetSampleCount()))
	b.addDelta(tagged.WithStat(pulse.StatTotalAmount), h.GetSampleSum())
	for _, bucket := range h.GetBucket() {
		le := strconv.FormatFloat(bucket.GetUpperBound(), 'g', -1, 64)
		b.addDelta(tagged.WithStat(pulse.StatCount).WithTag("le", le), float64(bucket.GetCumulativeCount()))
	}
}

func (b *Bridge) recordSummary(id *pulse.Id, m *dto.Metric) {
	tagged := id.WithTags(labelTags(m)...)
	s := m.GetSummary()
	b.addDelta(tagged.WithStat(pulse.StatCount), float64(s.GetSampleCount()))
	b.addDelta(tagged.WithStat(pulse.StatTotalAmount), s.GetSampleSum())
	for _, q := range s.GetQuantile() {
		quantile := strconv.FormatFloat(q.GetQuantile(), 'g', -1, 64)
		b.registry.GaugeID(tagged.WithTag("quantile", quantile)).Set(q.GetValue())
	}
}

func labelTags(m *dto.Metric) []pulse.Tag {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return nil
	}
	tags := make([]pulse.Tag, 0, len(labels))
	for _, l := range labels {
		tags = append(tags, pulse.Tag{Key: l.GetName(), Value: l.GetValue()})
	}
	return tags
}
