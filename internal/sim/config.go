package sim

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/orrery/pkg/config"
)

// Config holds the host loop and camera framing settings.
type Config struct {
	TickRate      int             `yaml:"tick_rate" toml:"tick_rate"`
	FrameInterval config.Duration `yaml:"frame_interval" toml:"frame_interval"`
	CommandBuffer int             `yaml:"command_buffer" toml:"command_buffer"`

	// Orbit camera framing: distance at galaxy level, multiple of a system
	// radius inside a system, multiple of a planet radius after landing.
	GalaxyDistance   float32 `yaml:"galaxy_distance" toml:"galaxy_distance"`
	SystemFactor     float32 `yaml:"system_factor" toml:"system_factor"`
	LandingFactor    float32 `yaml:"landing_factor" toml:"landing_factor"`
	OrbitMinDistance float32 `yaml:"orbit_min_distance" toml:"orbit_min_distance"`
	OrbitMaxDistance float32 `yaml:"orbit_max_distance" toml:"orbit_max_distance"`
}

// DefaultConfig returns 60 Hz ticks with frames published ten times a second.
func DefaultConfig() Config {
	return Config{
		TickRate:         60,
		FrameInterval:    config.Duration(100 * time.Millisecond),
		CommandBuffer:    64,
		GalaxyDistance:   4000,
		SystemFactor:     3,
		LandingFactor:    8,
		OrbitMinDistance: 5,
		OrbitMaxDistance: 500000,
	}
}

// TickInterval is the wall-clock time between ticks.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Validate checks the settings.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TickRate, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.FrameInterval, validation.Required),
		validation.Field(&c.CommandBuffer, validation.Required, validation.Min(1)),
		validation.Field(&c.GalaxyDistance, validation.Required),
		validation.Field(&c.SystemFactor, validation.Required),
		validation.Field(&c.LandingFactor, validation.Required),
		validation.Field(&c.OrbitMinDistance, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&c.OrbitMaxDistance, validation.Required, validation.Min(c.OrbitMinDistance)),
	)
}
