package layout

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Strategy names accepted by Config.Strategy.
const (
	StrategySpiral = "spiral"
	StrategyForce  = "force"
)

// Config holds the layout constants. Lengths are in world units.
type Config struct {
	Strategy string `yaml:"strategy" toml:"strategy"`

	BaseSpacing       float32 `yaml:"base_spacing" toml:"base_spacing"`
	DepthSpacing      float32 `yaml:"depth_spacing" toml:"depth_spacing"`
	SpiralSkew        float32 `yaml:"spiral_skew" toml:"spiral_skew"`
	VerticalAmplitude float32 `yaml:"vertical_amplitude" toml:"vertical_amplitude"`
	SiblingMargin     float32 `yaml:"sibling_margin" toml:"sibling_margin"`

	StarBaseRadius float32 `yaml:"star_base_radius" toml:"star_base_radius"`
	StarGrowth     float32 `yaml:"star_growth" toml:"star_growth"`
	StarMaxRadius  float32 `yaml:"star_max_radius" toml:"star_max_radius"`

	PlanetBaseRadius float32 `yaml:"planet_base_radius" toml:"planet_base_radius"`
	PlanetGrowth     float32 `yaml:"planet_growth" toml:"planet_growth"`
	PlanetMaxRadius  float32 `yaml:"planet_max_radius" toml:"planet_max_radius"`

	// Orbit radius of file i is VisualRadius*OrbitScale + (i+1)*OrbitStep,
	// its angular speed OrbitSpeed/(i+1).
	OrbitScale float32 `yaml:"orbit_scale" toml:"orbit_scale"`
	OrbitStep  float32 `yaml:"orbit_step" toml:"orbit_step"`
	OrbitSpeed float32 `yaml:"orbit_speed" toml:"orbit_speed"`

	Force ForceConfig `yaml:"force" toml:"force"`
}

// ForceConfig tunes the force-directed relaxation.
type ForceConfig struct {
	Repulsion           float32 `yaml:"repulsion" toml:"repulsion"`
	MinDistance         float32 `yaml:"min_distance" toml:"min_distance"`
	SpringStrength      float32 `yaml:"spring_strength" toml:"spring_strength"`
	IdealFolderDistance float32 `yaml:"ideal_folder_distance" toml:"ideal_folder_distance"`
	IdealFileDistance   float32 `yaml:"ideal_file_distance" toml:"ideal_file_distance"`
	Centering           float32 `yaml:"centering" toml:"centering"`
	Damping             float32 `yaml:"damping" toml:"damping"`
	MaxStep             float32 `yaml:"max_step" toml:"max_step"`
	Epsilon             float32 `yaml:"epsilon" toml:"epsilon"`
	MaxIterations       int     `yaml:"max_iterations" toml:"max_iterations"`
	Seed                uint64  `yaml:"seed" toml:"seed"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:          StrategySpiral,
		BaseSpacing:       420,
		DepthSpacing:      140,
		SpiralSkew:        0.45,
		VerticalAmplitude: 90,
		SiblingMargin:     40,
		StarBaseRadius:    18,
		StarGrowth:        6,
		StarMaxRadius:     60,
		PlanetBaseRadius:  2.5,
		PlanetGrowth:      0.6,
		PlanetMaxRadius:   9,
		OrbitScale:        1.8,
		OrbitStep:         22,
		OrbitSpeed:        0.8,
		Force: ForceConfig{
			Repulsion:           40000,
			MinDistance:         10,
			SpringStrength:      0.02,
			IdealFolderDistance: 400,
			IdealFileDistance:   60,
			Centering:           0.002,
			Damping:             0.85,
			MaxStep:             50,
			Epsilon:             0.5,
			MaxIterations:       300,
			Seed:                1,
		},
	}
}

// Validate checks the constants. VerticalAmplitude must stay below
// BaseSpacing so children remain farther from the centre than their parent
// in 3D, and OrbitStep must exceed a planet diameter so neighbouring orbits
// never intersect bodies.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Strategy, validation.Required, validation.In(StrategySpiral, StrategyForce)),
		validation.Field(&c.BaseSpacing, validation.Required, validation.Min(float32(1))),
		validation.Field(&c.DepthSpacing, validation.Min(float32(0))),
		validation.Field(&c.VerticalAmplitude, validation.Min(float32(0)), validation.Max(c.BaseSpacing).Exclusive()),
		validation.Field(&c.SiblingMargin, validation.Required, validation.Min(float32(0))),
		validation.Field(&c.StarBaseRadius, validation.Required, validation.Min(float32(0))),
		validation.Field(&c.StarGrowth, validation.Min(float32(0))),
		validation.Field(&c.StarMaxRadius, validation.Required, validation.Min(c.StarBaseRadius)),
		validation.Field(&c.PlanetBaseRadius, validation.Required, validation.Min(float32(0))),
		validation.Field(&c.PlanetGrowth, validation.Min(float32(0))),
		validation.Field(&c.PlanetMaxRadius, validation.Required, validation.Min(c.PlanetBaseRadius)),
		validation.Field(&c.OrbitScale, validation.Required, validation.Min(float32(1))),
		validation.Field(&c.OrbitStep, validation.Required, validation.Min(2*c.PlanetMaxRadius).Exclusive()),
		validation.Field(&c.OrbitSpeed, validation.Required),
	); err != nil {
		return err
	}
	return c.Force.Validate()
}

// Validate checks the relaxation parameters.
func (c ForceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Repulsion, validation.Min(float32(0))),
		validation.Field(&c.MinDistance, validation.Required, validation.Min(float32(0))),
		validation.Field(&c.SpringStrength, validation.Min(float32(0))),
		validation.Field(&c.IdealFolderDistance, validation.Required),
		validation.Field(&c.IdealFileDistance, validation.Required),
		validation.Field(&c.Centering, validation.Min(float32(0))),
		validation.Field(&c.Damping, validation.Required, validation.Min(float32(0)), validation.Max(float32(1)).Exclusive()),
		validation.Field(&c.MaxStep, validation.Required),
		validation.Field(&c.Epsilon, validation.Required),
		validation.Field(&c.MaxIterations, validation.Required, validation.Min(1)),
	)
}
