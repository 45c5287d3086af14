package otelbridge

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/pulsemetrics/pulse"
)

const testStep = 10 * time.Millisecond

func newTestRegistry(t *testing.T) (*pulse.Registry, *pulse.ManualClock) {
	t.Helper()
	clock := pulse.NewManualClock(0)
	registry, err := pulse.New().
		WithStep(testStep).
		WithMeterTTL(0).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return registry, clock
}

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, otelmetric.Meter) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, provider.Meter("otelbridge-test")
}

func TestNewRejectsNilArgs(t *testing.T) {
	registry, _ := newTestRegistry(t)
	reader, _ := newTestMeter(t)

	if _, err := New(nil, registry, nil); err != ErrNilReader {
		t.Fatalf("expected ErrNilReader, got %v", err)
	}
	if _, err := New(reader, nil, nil); err != ErrNilRegistry {
		t.Fatalf("expected ErrNilRegistry, got %v", err)
	}
}

func TestCounterDeltas(t *testing.T) {
	registry, clock := newTestRegistry(t)
	reader, meter := newTestMeter(t)
	ctx := context.Background()

	counter, err := meter.Float64Counter("requests")
	if err != nil {
		t.Fatalf("Float64Counter failed: %v", err)
	}

	bridge, err := New(reader, registry, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	counter.Add(ctx, 5)
	if err := bridge.Collect(ctx); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	counter.Add(ctx, 2)
	if err := bridge.Collect(ctx); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	clock.SetTime(10)
	got := registry.Counter("requests").Count()
	if got != 7.0 {
		t.Fatalf("expected count 7, got %v", got)
	}
}

func TestCounterNoDoubleCount(t *testing.T) {
	registry, clock := newTestRegistry(t)
	reader, meter := newTestMeter(t)
	ctx := context.Background()

	counter, err := meter.Float64Counter("requests")
	if err != nil {
		t.Fatalf("Float64Counter failed: %v", err)
	}

	bridge, err := New(reader, registry, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	counter.Add(ctx, 4)
	for i := 0; i < 3; i++ {
		if err := bridge.Collect(ctx); err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
	}

	clock.SetTime(10)
	got := registry.Counter("requests").Count()
	if got != 4.0 {
		t.Fatalf("expected count 4, got %v", got)
	}
}

func TestGaugeWithAttributes(t *testing.T) {
	registry, _ := newTestRegistry(t)
	reader, meter := newTestMeter(t)
	ctx := context.Background()

	gauge, err := meter.Int64Gauge("pool.size")
	if err != nil {
		t.Fatalf("Int64Gauge failed: %v", err)
	}

	bridge, err := New(reader, registry, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	gauge.Record(ctx, 12, otelmetric.WithAttributes(attribute.String("pool", "primary")))
	if err := bridge.Collect(ctx); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	got := registry.Gauge("pool.size", pulse.Tag{Key: "pool", Value: "primary"}).Get()
	if got != 12.0 {
		t.Fatalf("expected gauge 12, got %v", got)
	}
}

func TestUpDownCounterBecomesGauge(t *testing.T) {
	registry, _ := newTestRegistry(t)
	reader, meter := newTestMeter(t)
	ctx := context.Background()

	updown, err := meter.Int64UpDownCounter("inflight")
	if err != nil {
		t.Fatalf("Int64UpDownCounter failed: %v", err)
	}

	bridge, err := New(reader, registry, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	updown.Add(ctx, 5)
	updown.Add(ctx, -2)
	if err := bridge.Collect(ctx); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	got := registry.Gauge("inflight").Get()
	if got != 3.0 {
		t.Fatalf("expected gauge 3, got %v", got)
	}
}

func TestHistogramCountSumMax(t *testing.T) {
	registry, clock := newTestRegistry(t)
	reader, meter := newTestMeter(t)
	ctx := context.Background()

	hist, err := meter.Float64Histogram("latency")
	if err != nil {
		t.Fatalf("Float64Histogram failed: %v", err)
	}

	bridge, err := New(reader, registry, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	hist.Record(ctx, 0.25)
	hist.Record(ctx, 0.5)
	hist.Record(ctx, 0.25)
	if err := bridge.Collect(ctx); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	id := pulse.NewId("latency")
	clock.SetTime(10)
	count := registry.CounterID(id.WithStat(pulse.StatCount)).Count()
	if count != 3.0 {
		t.Fatalf("expected count 3, got %v", count)
	}
	sum := registry.CounterID(id.WithStat(pulse.StatTotalAmount)).Count()
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("expected sum close to 1, got %v", sum)
	}
	if got := registry.MaxGaugeID(id).Value(); got != 0.5 {
		t.Fatalf("expected max 0.5, got %v", got)
	}
}

func TestNameFuncFiltersAndRenames(t *testing.T) {
	registry, _ := newTestRegistry(t)
	reader, meter := newTestMeter(t)
	ctx := context.Background()

	keep, err := meter.Int64Gauge("keep.me")
	if err != nil {
		t.Fatalf("Int64Gauge failed: %v", err)
	}
	drop, err := meter.Int64Gauge("drop.me")
	if err != nil {
		t.Fatalf("Int64Gauge failed: %v", err)
	}

	bridge, err := New(reader, registry, func(name string) *pulse.Id {
		if name != "keep.me" {
			return nil
		}
		return pulse.NewId("renamed", pulse.Tag{Key: "source", Value: "otel"})
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	keep.Record(ctx, 1)
	drop.Record(ctx, 1)
	if err := bridge.Collect(ctx); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if got := registry.Size(); got != 1 {
		t.Fatalf("expected 1 meter, got %d", got)
	}
	got := registry.Gauge("renamed", pulse.Tag{Key: "source", Value: "otel"}).Get()
	if got != 1.0 {
		t.Fatalf("expected gauge 1, got %v", got)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	registry, _ := newTestRegistry(t)
	reader, _ := newTestMeter(t)

	bridge, err := New(reader, registry, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := bridge.Run(context.Background(), 0); err != ErrInvalidInterval {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
