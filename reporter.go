package pulse

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Sink receives measurement batches from a Reporter. Implementations own
// transport and encoding; the reporter only schedules, gathers, and drains.
type Sink interface {
	Publish(ctx context.Context, batch []Measurement) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, batch []Measurement) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, batch []Measurement) error {
	return f(ctx, batch)
}

// LogSink writes each measurement as a structured log line. Useful in
// development and examples.
type LogSink struct {
	Logger zerolog.Logger
}

// Publish logs every measurement in the batch.
func (s LogSink) Publish(_ context.Context, batch []Measurement) error {
	for _, m := range batch {
		s.Logger.Info().
			Str("id", m.ID.String()).
			Int64("timestamp", m.Timestamp).
			Float64("value", m.Value).
			Msg("measurement")
	}
	return nil
}

// Reporter runs the periodic poll cycle: once per interval it gathers
// Registry.Measurements and hands the batch to the sink. Close stops the
// loop after one final gather so a closing window is not lost.
type Reporter struct {
	registry *Registry
	interval time.Duration
	sink     Sink
	log      zerolog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
	published atomic.Uint64
	failures  atomic.Uint64
}

// NewReporter starts a reporter polling registry every interval. An
// interval of zero defaults to the registry's step.
func NewReporter(registry *Registry, interval time.Duration, sink Sink) (*Reporter, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	if interval <= 0 {
		interval = registry.cfg.Step
	}

	r := &Reporter{
		registry: registry,
		interval: interval,
		sink:     sink,
		log:      registry.log,
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r, nil
}

func (r *Reporter) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flush(context.Background())
		case <-r.done:
			r.flush(context.Background())
			return
		}
	}
}

// Flush runs one gather-and-publish cycle synchronously and returns the
// sink error, if any. The scheduled loop keeps running independently.
func (r *Reporter) Flush(ctx context.Context) error {
	if r == nil || r.closed.Load() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return r.flush(ctx)
}

func (r *Reporter) flush(ctx context.Context) error {
	batch := r.registry.Measurements()
	if len(batch) == 0 {
		return nil
	}
	if err := r.sink.Publish(ctx, batch); err != nil {
		r.failures.Add(1)
		r.log.Error().Err(err).Int("batch", len(batch)).Msg("sink publish failed")
		return err
	}
	r.published.Add(uint64(len(batch)))
	return nil
}

// Close stops the loop, performs the final drain, and waits for it.
// Close is idempotent.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.closed.Store(true)
	})
}

// Published returns the number of measurements successfully handed to the
// sink.
func (r *Reporter) Published() uint64 {
	if r == nil {
		return 0
	}
	return r.published.Load()
}

// Failures returns the number of failed publish cycles.
func (r *Reporter) Failures() uint64 {
	if r == nil {
		return 0
	}
	return r.failures.Load()
}
