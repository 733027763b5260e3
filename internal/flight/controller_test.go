package flight

import (
	"math/rand/v2"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dt is a power of two so float32 speed sums are exact.
const dt = 0.0625

func run(c *Controller, cam *Camera, ticks int, in Controls) {
	for range ticks {
		c.Update(dt, in, cam)
	}
}

func TestThrustTwoSeconds(t *testing.T) {
	c := NewController(DefaultTuning())
	run(c, NewCamera(math32.Vector3{}), 32, Controls{Keys: KeyThrust})
	assert.Equal(t, float32(300), c.State().Speed)
	assert.False(t, c.State().IsBoosting)
}

func TestBoostOneSecond(t *testing.T) {
	c := NewController(DefaultTuning())
	run(c, NewCamera(math32.Vector3{}), 16, Controls{Keys: KeyThrust | KeyBoost})
	assert.Equal(t, float32(450), c.State().Speed)
	assert.True(t, c.State().IsBoosting)
}

func TestBoostWithoutThrustIsIdle(t *testing.T) {
	c := NewController(DefaultTuning())
	c.Update(dt, Controls{Keys: KeyBoost}, nil)
	assert.Zero(t, c.State().Speed)
	assert.False(t, c.State().IsBoosting)
}

func TestThrustCapsAtMaxSpeedAndHoldsBoostedSpeed(t *testing.T) {
	tn := DefaultTuning()
	c := NewController(tn)
	cam := NewCamera(math32.Vector3{})

	run(c, cam, 400, Controls{Keys: KeyThrust})
	assert.Equal(t, tn.MaxSpeed, c.State().Speed)

	run(c, cam, 200, Controls{Keys: KeyThrust | KeyBoost})
	assert.Equal(t, tn.BoostSpeed, c.State().Speed)

	// Thrust alone never raises speed above MaxSpeed but does not pull it down.
	run(c, cam, 10, Controls{Keys: KeyThrust})
	assert.Equal(t, tn.BoostSpeed, c.State().Speed)

	// Idle coasts.
	run(c, cam, 10, Controls{})
	assert.Equal(t, tn.BoostSpeed, c.State().Speed)
}

func TestBrakeReversesToMinSpeed(t *testing.T) {
	tn := DefaultTuning()
	c := NewController(tn)
	run(c, nil, 200, Controls{Keys: KeyBrake | KeyThrust})
	assert.Equal(t, tn.MinSpeed, c.State().Speed)
}

func TestSnapToZero(t *testing.T) {
	for _, v := range []float32{14.9, -14.9, 1, -0.001} {
		c := NewController(DefaultTuning())
		c.state.Speed = v
		c.Update(dt, Controls{}, nil)
		assert.Equal(t, float32(0), c.State().Speed, "speed %v", v)
	}

	c := NewController(DefaultTuning())
	c.state.Speed = 20
	c.Update(dt, Controls{}, nil)
	assert.Equal(t, float32(20), c.State().Speed, "idle holds speed above epsilon")
}

func TestSpeedAlwaysClamped(t *testing.T) {
	tn := DefaultTuning()
	rng := rand.New(rand.NewPCG(42, 7))
	c := NewController(tn)
	cam := NewCamera(math32.Vector3{})
	for range 20000 {
		in := Controls{Keys: Key(rng.IntN(32))}
		step := float32(rng.Float64() * 0.5)
		c.Update(step, in, cam)
		s := c.State().Speed
		require.GreaterOrEqual(t, s, tn.MinSpeed)
		require.LessOrEqual(t, s, tn.BoostSpeed)
	}
}

func TestOrientationStaysUnit(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	tn := DefaultTuning()
	tn.TurnSmoothing = 6
	c := NewController(tn)
	cam := NewCamera(math32.Vector3{})
	for range 50000 {
		in := Controls{
			PointerDX: float32(rng.NormFloat64() * 40),
			PointerDY: float32(rng.NormFloat64() * 40),
			Keys:      Key(rng.IntN(32)),
		}
		c.Update(1.0/60, in, cam)
	}
	assert.InDelta(t, 1, cam.Orientation.Length(), 1e-4)
	assert.InDelta(t, 1, cam.Forward().Length(), 1e-3)
}

func TestDegenerateInputsStayFinite(t *testing.T) {
	c := NewController(DefaultTuning())
	cam := NewCamera(math32.Vector3{})
	nan := math32.NaN()

	c.Update(nan, Controls{PointerDX: nan, PointerDY: math32.Inf(1)}, cam)
	c.Update(-1, Controls{}, cam)
	c.Update(0, Controls{}, cam)

	cam.Orientation = math32.Quat{}
	c.Update(dt, Controls{PointerDX: 3, Keys: KeyThrust}, cam)

	assert.True(t, finiteQuat(cam.Orientation))
	assert.True(t, finiteVec(cam.Position))
	assert.InDelta(t, 1, cam.Orientation.Length(), 1e-5)
}

func TestClampDelta(t *testing.T) {
	assert.Equal(t, float32(0.1), ClampDelta(0.5, 0.1))
	assert.Equal(t, float32(0.05), ClampDelta(0.05, 0.1))
	assert.Equal(t, float32(0), ClampDelta(-1, 0.1))
	assert.Equal(t, float32(0), ClampDelta(math32.NaN(), 0.1))
}

func TestPointerRightTurnsRight(t *testing.T) {
	c := NewController(DefaultTuning())
	cam := NewCamera(math32.Vector3{})
	c.Update(dt, Controls{PointerDX: 50}, cam)

	assert.Less(t, c.State().YawVelocity, float32(0))
	assert.Greater(t, cam.Forward().X, float32(0))
	assert.Greater(t, c.State().AutoBankAngle, float32(0), "banks into the turn")
}

func TestPointerUpPitchesUp(t *testing.T) {
	c := NewController(DefaultTuning())
	cam := NewCamera(math32.Vector3{})
	c.Update(dt, Controls{PointerDY: -50}, cam)
	assert.Greater(t, cam.Forward().Y, float32(0))
}

func TestDirectTurnStopsWithInput(t *testing.T) {
	c := NewController(DefaultTuning())
	c.Update(dt, Controls{PointerDX: 30}, nil)
	require.NotZero(t, c.State().YawVelocity)
	c.Update(dt, Controls{}, nil)
	assert.Zero(t, c.State().YawVelocity)
}

func TestAgility(t *testing.T) {
	tn := DefaultTuning()
	c := NewController(tn)
	assert.InDelta(t, tn.AgilityAtMinSpeed, c.agility(0, false), 1e-6)
	assert.InDelta(t, tn.AgilityAtMaxSpeed, c.agility(tn.MaxSpeed, false), 1e-6)
	assert.InDelta(t, tn.AgilityAtMaxSpeed, c.agility(tn.BoostSpeed, false), 1e-6)
	assert.InDelta(t, tn.AgilityAtBoost, c.agility(0, true), 1e-6)
	assert.Greater(t, c.agility(500, false), c.agility(2500, false))
	assert.Equal(t, c.agility(-500, false), c.agility(500, false))
}

func TestTranslatesAlongForward(t *testing.T) {
	c := NewController(DefaultTuning())
	cam := NewCamera(math32.Vec3(0, 0, 0))
	c.state.Speed = 100
	c.Update(dt, Controls{}, cam)
	assert.InDelta(t, -6.25, cam.Position.Z, 1e-4)
	assert.InDelta(t, 0, cam.Position.X, 1e-6)
	assert.InDelta(t, 0, cam.Position.Y, 1e-6)
}

func TestRollKeys(t *testing.T) {
	c := NewController(DefaultTuning())
	cam := NewCamera(math32.Vector3{})
	run(c, cam, 40, Controls{Keys: KeyRollLeft})
	assert.InDelta(t, DefaultTuning().RollRate, c.State().RollVelocity, 0.01)

	run(c, cam, 80, Controls{})
	assert.InDelta(t, 0, c.State().RollVelocity, 0.01)

	c.Reset()
	run(c, cam, 40, Controls{Keys: KeyRollLeft | KeyRollRight})
	assert.Zero(t, c.State().RollVelocity)
}

func TestResetZeroesEverything(t *testing.T) {
	c := NewController(DefaultTuning())
	run(c, NewCamera(math32.Vector3{}), 30, Controls{PointerDX: 20, PointerDY: 5, Keys: KeyThrust | KeyBoost | KeyRollRight})
	require.NotZero(t, c.State().Speed)

	c.Reset()
	assert.Equal(t, State{}, c.State())
}

func TestTuningValidate(t *testing.T) {
	require.NoError(t, DefaultTuning().Validate())

	bad := DefaultTuning()
	bad.BoostSpeed = bad.MaxSpeed - 1
	assert.Error(t, bad.Validate())

	bad = DefaultTuning()
	bad.MinSpeed = 10
	assert.Error(t, bad.Validate())

	bad = DefaultTuning()
	bad.MaxDelta = 0
	assert.Error(t, bad.Validate())
}
