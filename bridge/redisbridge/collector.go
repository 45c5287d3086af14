package redisbridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pulsemetrics/pulse"
)

var (
	// ErrNilProvider is returned when the collector is created without a
	// stats provider.
	ErrNilProvider = errors.New("nil stats provider")
	// ErrNilRegistry is returned when the collector is created without a
	// registry.
	ErrNilRegistry = errors.New("nil registry")
	// ErrInvalidInterval is returned when Run is given a non-positive
	// interval.
	ErrInvalidInterval = errors.New("interval must be > 0")
)

// StatsProvider supplies pool statistics. *redis.Client, *redis.Ring and
// *redis.ClusterClient all satisfy it.
type StatsProvider interface {
	PoolStats() *redis.PoolStats
}

// Collector polls a provider's pool stats into a pulse registry. All
// meters carry the collector's tags, so one registry can host several
// pools distinguished by a pool tag.
type Collector struct {
	provider StatsProvider
	registry *pulse.Registry
	tags     []pulse.Tag
	log      zerolog.Logger

	mu   sync.Mutex
	prev redis.PoolStats
}

// New creates a collector for provider. The tags are applied to every
// meter the collector records.
func New(provider StatsProvider, registry *pulse.Registry, tags ...pulse.Tag) (*Collector, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}
	return &Collector{
		provider: provider,
		registry: registry,
		tags:     tags,
		log:      registry.Logger(),
	}, nil
}

// Collect reads the pool stats once and records them.
func (c *Collector) Collect() {
	stats := c.provider.PoolStats()
	if stats == nil {
		return
	}

	c.mu.Lock()
	prev := c.prev
	c.prev = *stats
	c.mu.Unlock()

	c.addDelta("redis.pool.hits", stats.Hits, prev.Hits)
	c.addDelta("redis.pool.misses", stats.Misses, prev.Misses)
	c.addDelta("redis.pool.timeouts", stats.Timeouts, prev.Timeouts)
	c.addDelta("redis.pool.staleRemoved", stats.StaleConns, prev.StaleConns)

	c.registry.Gauge("redis.pool.totalConns", c.tags...).Set(float64(stats.TotalConns))
	c.registry.Gauge("redis.pool.idleConns", c.tags...).Set(float64(stats.IdleConns))
}

// Run collects on a fixed interval until ctx is done.
func (c *Collector) Run(ctx context.Context, interval time.Duration) error {
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
			c.Collect()
		}
	}
}

// addDelta records the growth of a cumulative uint32 stat. Unsigned
// subtraction keeps the delta correct across a wraparound.
func (c *Collector) addDelta(name string, curr, prev uint32) {
	if delta := curr - prev; delta > 0 {
		c.registry.Counter(name, c.tags...).Add(float64(delta))
	}
}
