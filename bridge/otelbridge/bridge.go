package otelbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/pulsemetrics/pulse"
)

var (
	// ErrNilReader is returned when the bridge is created without a reader.
	ErrNilReader = errors.New("nil reader")
	// ErrNilRegistry is returned when the bridge is created without a registry.
	ErrNilRegistry = errors.New("nil registry")
	// ErrInvalidInterval is returned when Run is given a non-positive interval.
	ErrInvalidInterval = errors.New("interval must be > 0")
)

// NameFunc maps an OpenTelemetry instrument name to a pulse id. Returning
// nil skips the instrument for the cycle.
type NameFunc func(name string) *pulse.Id

// Bridge reads an OpenTelemetry SDK reader and re-records every instrument
// into a pulse registry.
type Bridge struct {
	reader   sdkmetric.Reader
	registry *pulse.Registry
	nameFn   NameFunc
	log      zerolog.Logger

	mu   sync.Mutex
	prev map[string]float64
}

// New creates a bridge from reader into registry. A nil nameFn maps every
// instrument name to an untagged id of the same name.
func New(reader sdkmetric.Reader, registry *pulse.Registry, nameFn NameFunc) (*Bridge, error) {
	if reader == nil {
		return nil, ErrNilReader
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if nameFn == nil {
		nameFn = func(name string) *pulse.Id { return pulse.NewId(name) }
	}
	return &Bridge{
		reader:   reader,
		registry: registry,
		nameFn:   nameFn,
		log:      registry.Logger(),
		prev:     make(map[string]float64),
	}, nil
}

// Collect reads one snapshot from the reader and re-records it.
func (b *Bridge) Collect(ctx context.Context) error {
	var rm metricdata.ResourceMetrics
	if err := b.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	var instruments int
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			id := b.nameFn(m.Name)
			if id == nil {
				continue
			}
			instruments++
			switch data := m.Data.(type) {
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					b.registry.GaugeID(id.WithTags(attrTags(dp.Attributes)...)).Set(dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					b.registry.GaugeID(id.WithTags(attrTags(dp.Attributes)...)).Set(float64(dp.Value))
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					b.recordSum(id.WithTags(attrTags(dp.Attributes)...), dp.Value, data)
				}
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					b.recordSum(id.WithTags(attrTags(dp.Attributes)...), float64(dp.Value), metricdata.Sum[float64]{
						Temporality: data.Temporality,
						IsMonotonic: data.IsMonotonic,
					})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					b.recordHistogram(id.WithTags(attrTags(dp.Attributes)...), float64(dp.Count), dp.Sum, dp.Max, data.Temporality)
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					max := metricdata.Extrema[float64]{}
					if v, ok := dp.Max.Value(); ok {
						max = metricdata.NewExtrema(float64(v))
					}
					b.recordHistogram(id.WithTags(attrTags(dp.Attributes)...), float64(dp.Count), float64(dp.Sum), max, data.Temporality)
				}
			default:
				b.log.Debug().Str("name", m.Name).Msg("unsupported otel aggregation, skipping")
			}
		}
	}

	b.log.Debug().Int("instruments", instruments).Msg("bridged otel instruments")
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
			if err := b.Collect(ctx); err != nil {
				b.log.Error().Err(err).Msg("otel bridge collect failed")
			}
		}
	}
}

func (b *Bridge) recordSum(id *pulse.Id, curr float64, data metricdata.Sum[float64]) {
	if !data.IsMonotonic {
		b.registry.GaugeID(id).Set(curr)
		return
	}
	if data.Temporality == metricdata.DeltaTemporality {
		b.registry.CounterID(id).Add(curr)
		return
	}
	b.addDelta(id, curr)
}

func (b *Bridge) recordHistogram(id *pulse.Id, count, sum float64, max metricdata.Extrema[float64], temporality metricdata.Temporality) {
	if temporality == metricdata.DeltaTemporality {
		b.registry.CounterID(id.WithStat(pulse.StatCount)).Add(count)
		b.registry.CounterID(id.WithStat(pulse.StatTotalAmount)).Add(sum)
	} else {
		b.addDelta(id.WithStat(pulse.StatCount), count)
		b.addDelta(id.WithStat(pulse.StatTotalAmount), sum)
	}
	if v, ok := max.Value(); ok {
		b.registry.MaxGaugeID(id).Set(v)
	}
}

// addDelta feeds a cumulative source value into a pulse counter as the
// delta since the previous cycle; a value below the baseline means the
// source restarted and the whole value counts again.
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

func attrTags(set attribute.Set) []pulse.Tag {
	if set.Len() == 0 {
		return nil
	}
	tags := make([]pulse.Tag, 0, set.Len())
	iter := set.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		tags = append(tags, pulse.Tag{Key: string(kv.Key), Value: kv.Value.Emit()})
	}
	return tags
}
