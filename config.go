package pulse

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Config controls a Registry. Configure once before Build; a Config is
// treated as immutable afterwards.
type Config struct {
	// Step is the aggregation window for all step-windowed meters.
	Step time.Duration

	// MeterTTL evicts meters that have not been written for this long.
	// Zero disables eviction. Eviction happens during Measurements, never
	// on the write path.
	MeterTTL time.Duration

	// Clock drives rotation and measurement timestamps. Defaults to
	// SystemClock; tests inject a ManualClock.
	Clock Clock

	// Logger receives registry and reporter diagnostics. Nil disables
	// logging.
	Logger *zerolog.Logger

	// CommonTags are merged into every meter id at creation. A meter's own
	// tags win on key conflicts.
	CommonTags []Tag

	// InstanceTag adds a generated "instance" common tag so measurements
	// from different processes of the same service stay distinguishable.
	InstanceTag bool
}

func defaultConfig() Config {
	return Config{
		Step:     time.Minute,
		MeterTTL: 15 * time.Minute,
		Clock:    SystemClock{},
	}
}

// Validate rejects configurations the registry cannot run with. A
// non-positive step or an absent clock is fatal at construction time.
func (c *Config) Validate() error {
	if c.Step <= 0 {
		return errors.New("Step must be > 0")
	}
	if c.Step < time.Millisecond {
		return errors.New("Step must be at least 1ms")
	}
	if c.Clock == nil {
		return errors.New("Clock must not be nil")
	}
	if c.MeterTTL < 0 {
		return errors.New("MeterTTL must be >= 0")
	}
	if c.MeterTTL > 0 && c.MeterTTL < c.Step {
		return errors.New("MeterTTL must be at least one Step")
	}
	for _, t := range c.CommonTags {
		if t.Key == "" {
			return errors.New("CommonTags must not contain empty keys")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.CommonTags) > 0 {
		out.CommonTags = make([]Tag, len(cfg.CommonTags))
		copy(out.CommonTags, cfg.CommonTags)
	}
	return out
}
