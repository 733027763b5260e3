// Package proximity finds the orbiting body nearest to the flying camera and
// classifies it for the landing affordance.
package proximity

import (
	"cogentcore.org/core/math32"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// LandingState classifies the camera relative to the nearest body.
type LandingState string

// Landing states.
const (
	StateFlying      LandingState = "flying"
	StateApproaching LandingState = "approaching"
	StateLanded      LandingState = "landed"
)

// Body is an orbiting body at its current position.
type Body struct {
	Path   string
	Center math32.Vector3
	Radius float32
}

// Nearest is the closest body and its surface distance.
type Nearest struct {
	Path     string  `json:"path"`
	Distance float32 `json:"distance"`
}

// State is the detector output.
type State struct {
	Landing LandingState `json:"landing_state"`
	Nearest *Nearest     `json:"nearest,omitempty"`
	CanLand bool         `json:"can_land"`
}

// Config holds the thresholds. LandDistance must be strictly below
// ApproachDistance.
type Config struct {
	ApproachDistance float32 `yaml:"approach_distance" toml:"approach_distance"`
	LandDistance     float32 `yaml:"land_distance" toml:"land_distance"`
	SampleEvery      int     `yaml:"sample_every" toml:"sample_every"`
}

// DefaultConfig returns the default thresholds, sampling every third tick.
func DefaultConfig() Config {
	return Config{ApproachDistance: 120, LandDistance: 40, SampleEvery: 3}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ApproachDistance, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&c.LandDistance, validation.Required, validation.Min(float32(0)).Exclusive(),
			validation.Max(c.ApproachDistance).Exclusive()),
		validation.Field(&c.SampleEvery, validation.Required, validation.Min(1)),
	)
}

// Detector is driven once per tick from the simulation goroutine.
type Detector struct {
	cfg     Config
	state   State
	counter int
}

// NewDetector returns a detector in the flying state.
func NewDetector(cfg Config) *Detector {
	if cfg.SampleEvery < 1 {
		cfg.SampleEvery = 1
	}
	return &Detector{cfg: cfg, state: State{Landing: StateFlying}}
}

// State returns the latest classification.
func (d *Detector) State() State {
	return d.state
}

// Update samples the bodies when active (fly mode) and not landed. Bodies
// are only requested on sampling ticks; the first eligible tick always
// samples.
func (d *Detector) Update(active bool, camera math32.Vector3, bodies func() []Body) State {
	if !active || d.state.Landing == StateLanded {
		d.counter = 0
		return d.state
	}
	sample := d.counter%d.cfg.SampleEvery == 0
	d.counter++
	if !sample || bodies == nil {
		return d.state
	}
	d.state = d.classify(camera, bodies())
	return d.state
}

func (d *Detector) classify(camera math32.Vector3, bodies []Body) State {
	var best *Nearest
	for _, b := range bodies {
		dist := max(camera.DistanceTo(b.Center)-b.Radius, 0)
		if math32.IsNaN(dist) || math32.IsInf(dist, 0) {
			continue
		}
		if best == nil || dist < best.Distance {
			best = &Nearest{Path: b.Path, Distance: dist}
		}
	}
	if best == nil || best.Distance > d.cfg.ApproachDistance {
		return State{Landing: StateFlying}
	}
	return State{
		Landing: StateApproaching,
		Nearest: best,
		CanLand: best.Distance <= d.cfg.LandDistance,
	}
}

// MarkLanded freezes the detector in the landed state until Reset.
func (d *Detector) MarkLanded() {
	d.state.Landing = StateLanded
	d.state.CanLand = false
}

// Reset returns to flying with no nearest body.
func (d *Detector) Reset() {
	d.state = State{Landing: StateFlying}
	d.counter = 0
}
