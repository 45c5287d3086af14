package pulse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu      sync.Mutex
	batches [][]Measurement
	err     error
}

func (s *captureSink) Publish(_ context.Context, batch []Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := make([]Measurement, len(batch))
	copy(cp, batch)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *captureSink) last() []Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}

func TestNewReporterRejectsNilArguments(t *testing.T) {
	r := newTestRegistry(t, NewManualClock(0))
	if _, err := NewReporter(nil, 0, &captureSink{}); !errors.Is(err, ErrNilRegistry) {
		t.Fatalf("expected ErrNilRegistry, got %v", err)
	}
	if _, err := NewReporter(r, 0, nil); !errors.Is(err, ErrNilSink) {
		t.Fatalf("expected ErrNilSink, got %v", err)
	}
}

func TestReporterFlushPublishesBatch(t *testing.T) {
	clock := NewManualClock(0)
	reg := newTestRegistry(t, clock)
	sink := &captureSink{}

	// A long interval keeps the scheduled loop out of the test's way.
	rep, err := NewReporter(reg, time.Hour, sink)
	if err != nil {
		t.Fatalf("NewReporter failed: %v", err)
	}
	defer rep.Close()

	reg.MaxGauge("depth").Set(9)
	clock.SetTime(10)

	if err := rep.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 batch, got %d", sink.count())
	}
	batch := sink.last()
	if len(batch) != 1 || batch[0].Value != 9.0 {
		t.Fatalf("expected the window max 9.0, got %+v", batch)
	}
	if rep.Published() != 1 {
		t.Fatalf("expected 1 published measurement, got %d", rep.Published())
	}
}

func TestReporterFlushSkipsEmptyRegistry(t *testing.T) {
	reg := newTestRegistry(t, NewManualClock(0))
	sink := &captureSink{}

	rep, err := NewReporter(reg, time.Hour, sink)
	if err != nil {
		t.Fatalf("NewReporter failed: %v", err)
	}
	defer rep.Close()

	if err := rep.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if sink.count() != 0 {
		t.Fatalf("expected no batch for an empty registry, got %d", sink.count())
	}
}

func TestReporterCountsFailures(t *testing.T) {
	clock := NewManualClock(0)
	reg := newTestRegistry(t, clock)
	sinkErr := errors.New("backend down")
	sink := &captureSink{err: sinkErr}

	rep, err := NewReporter(reg, time.Hour, sink)
	if err != nil {
		t.Fatalf("NewReporter failed: %v", err)
	}
	defer rep.Close()

	reg.Counter("hits").Increment()
	clock.SetTime(10)

	if err := rep.Flush(context.Background()); !errors.Is(err, sinkErr) {
		t.Fatalf("expected the sink error, got %v", err)
	}
	if rep.Failures() != 1 {
		t.Fatalf("expected 1 failure, got %d", rep.Failures())
	}
	if rep.Published() != 0 {
		t.Fatalf("expected 0 published, got %d", rep.Published())
	}
}

func TestReporterCloseDrains(t *testing.T) {
	clock := NewManualClock(0)
	reg := newTestRegistry(t, clock)
	sink := &captureSink{}

	rep, err := NewReporter(reg, time.Hour, sink)
	if err != nil {
		t.Fatalf("NewReporter failed: %v", err)
	}

	reg.MaxGauge("depth").Set(4)
	clock.SetTime(10)

	rep.Close()
	if sink.count() != 1 {
		t.Fatalf("expected the final drain to publish, got %d batches", sink.count())
	}

	// Close is idempotent and Flush after Close is a no-op.
	rep.Close()
	if err := rep.Flush(context.Background()); err != nil {
		t.Fatalf("expected Flush after Close to be a no-op, got %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected no further batches, got %d", sink.count())
	}
}

func TestReporterScheduledPublish(t *testing.T) {
	clock := NewManualClock(0)
	reg := newTestRegistry(t, clock)
	sink := &captureSink{}

	rep, err := NewReporter(reg, 5*time.Millisecond, sink)
	if err != nil {
		t.Fatalf("NewReporter failed: %v", err)
	}
	defer rep.Close()

	reg.Gauge("temp").Set(20)

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the scheduled loop to publish")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSinkFunc(t *testing.T) {
	var got int
	sink := SinkFunc(func(_ context.Context, batch []Measurement) error {
		got = len(batch)
		return nil
	})
	if err := sink.Publish(context.Background(), make([]Measurement, 3)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
