package pulse

import (
	"time"

	"github.com/rs/zerolog"
)

// Builder assembles a Registry, starting from defaults (one-minute step,
// fifteen-minute meter TTL, system clock, logging off).
type Builder struct {
	config Config
	built  bool
}

// New returns a builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStep sets the aggregation window.
func (b *Builder) WithStep(step time.Duration) *Builder {
	b.config.Step = step
	return b
}

// WithMeterTTL sets the staleness eviction horizon. Zero disables eviction.
func (b *Builder) WithMeterTTL(ttl time.Duration) *Builder {
	b.config.MeterTTL = ttl
	return b
}

// WithClock sets the clock. Tests pass a ManualClock here.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.config.Clock = clock
	return b
}

// WithLogger sets the diagnostics logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.config.Logger = &logger
	return b
}

// WithCommonTags appends tags merged into every meter id.
func (b *Builder) WithCommonTags(tags ...Tag) *Builder {
	b.config.CommonTags = append(b.config.CommonTags, tags...)
	return b
}

// WithInstanceTag enables the generated per-process "instance" common tag.
func (b *Builder) WithInstanceTag() *Builder {
	b.config.InstanceTag = true
	return b
}

// Build validates the configuration and creates the registry. A Builder
// builds at most once.
func (b *Builder) Build() (*Registry, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	r, err := NewRegistry(b.config)
	if err != nil {
		return nil, err
	}
	b.built = true
	return r, nil
}
