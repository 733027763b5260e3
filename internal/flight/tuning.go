// Package flight integrates the ship's speed and orientation from raw input
// each tick and drives the camera transform.
package flight

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Tuning holds the flight-model constants. Speeds are in units/s, rates in
// rad/s, responses are exponential filter rates in 1/s.
type Tuning struct {
	MaxSpeed     float32 `yaml:"max_speed" toml:"max_speed"`
	BoostSpeed   float32 `yaml:"boost_speed" toml:"boost_speed"`
	MinSpeed     float32 `yaml:"min_speed" toml:"min_speed"`
	Acceleration float32 `yaml:"acceleration" toml:"acceleration"`
	BrakeForce   float32 `yaml:"brake_force" toml:"brake_force"`
	SnapEpsilon  float32 `yaml:"snap_epsilon" toml:"snap_epsilon"`

	AgilityAtMinSpeed float32 `yaml:"agility_at_min_speed" toml:"agility_at_min_speed"`
	AgilityAtMaxSpeed float32 `yaml:"agility_at_max_speed" toml:"agility_at_max_speed"`
	AgilityAtBoost    float32 `yaml:"agility_at_boost" toml:"agility_at_boost"`

	MouseSensitivity float32 `yaml:"mouse_sensitivity" toml:"mouse_sensitivity"`
	BaseTurnRate     float32 `yaml:"base_turn_rate" toml:"base_turn_rate"`
	// TurnSmoothing of 0 applies pointer turns directly, so turning stops
	// the moment input stops.
	TurnSmoothing float32 `yaml:"turn_smoothing" toml:"turn_smoothing"`

	RollRate     float32 `yaml:"roll_rate" toml:"roll_rate"`
	RollResponse float32 `yaml:"roll_response" toml:"roll_response"`

	BankFactor   float32 `yaml:"bank_factor" toml:"bank_factor"`
	BankResponse float32 `yaml:"bank_response" toml:"bank_response"`
	MaxBank      float32 `yaml:"max_bank" toml:"max_bank"`

	// MaxDelta caps the tick length to survive frame hitches.
	MaxDelta float32 `yaml:"max_delta" toml:"max_delta"`
}

// DefaultTuning returns the arcade flight feel.
func DefaultTuning() Tuning {
	return Tuning{
		MaxSpeed:          3000,
		BoostSpeed:        6000,
		MinSpeed:          -500,
		Acceleration:      150,
		BrakeForce:        300,
		SnapEpsilon:       15,
		AgilityAtMinSpeed: 1.0,
		AgilityAtMaxSpeed: 0.35,
		AgilityAtBoost:    0.2,
		MouseSensitivity:  0.002,
		BaseTurnRate:      60,
		TurnSmoothing:     0,
		RollRate:          1.5,
		RollResponse:      8,
		BankFactor:        0.5,
		BankResponse:      4,
		MaxBank:           0.6,
		MaxDelta:          0.1,
	}
}

// Validate checks the tuning.
func (t Tuning) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.MaxSpeed, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&t.BoostSpeed, validation.Required, validation.Min(t.MaxSpeed)),
		validation.Field(&t.MinSpeed, validation.Max(float32(0))),
		validation.Field(&t.Acceleration, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&t.BrakeForce, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&t.SnapEpsilon, validation.Min(float32(0))),
		validation.Field(&t.AgilityAtMinSpeed, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&t.AgilityAtMaxSpeed, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&t.AgilityAtBoost, validation.Required, validation.Min(float32(0)).Exclusive()),
		validation.Field(&t.MouseSensitivity, validation.Required),
		validation.Field(&t.BaseTurnRate, validation.Required),
		validation.Field(&t.TurnSmoothing, validation.Min(float32(0))),
		validation.Field(&t.RollRate, validation.Min(float32(0))),
		validation.Field(&t.RollResponse, validation.Min(float32(0))),
		validation.Field(&t.BankResponse, validation.Min(float32(0))),
		validation.Field(&t.MaxBank, validation.Min(float32(0))),
		validation.Field(&t.MaxDelta, validation.Required, validation.Min(float32(0)).Exclusive()),
	)
}
