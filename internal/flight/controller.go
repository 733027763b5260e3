package flight

import (
	"cogentcore.org/core/math32"
)

// State is the flight-state snapshot published after every tick.
type State struct {
	Speed         float32 `json:"speed"`
	IsBoosting    bool    `json:"is_boosting"`
	YawVelocity   float32 `json:"yaw_velocity"`
	PitchVelocity float32 `json:"pitch_velocity"`
	RollVelocity  float32 `json:"roll_velocity"`
	AutoBankAngle float32 `json:"auto_bank_angle"`
}

// Controller integrates speed and orientation. It is driven from a single
// goroutine.
type Controller struct {
	tuning Tuning
	state  State
}

// NewController creates a stationary controller.
func NewController(t Tuning) *Controller {
	return &Controller{tuning: t}
}

// Tuning returns the controller constants.
func (c *Controller) Tuning() Tuning {
	return c.tuning
}

// State returns the latest snapshot.
func (c *Controller) State() State {
	return c.state
}

// Reset returns to the stationary baseline: no speed, no angular velocity,
// no bank.
func (c *Controller) Reset() {
	c.state = State{}
}

// ClampDelta bounds a tick length to [0, limit]. NaN counts as 0.
func ClampDelta(dt, limit float32) float32 {
	if !(dt > 0) {
		return 0
	}
	if dt > limit {
		return limit
	}
	return dt
}

// Update advances one tick: integrates speed, turns the camera about its
// local axes, and moves it along its forward axis.
func (c *Controller) Update(dt float32, in Controls, cam *Camera) State {
	t := c.tuning
	dt = ClampDelta(dt, t.MaxDelta)
	s := &c.state

	dx, dy := in.PointerDX, in.PointerDY
	if !finiteScalar(dx) || !finiteScalar(dy) {
		dx, dy = 0, 0
	}
	thrust := in.Held(KeyThrust)
	brake := in.Held(KeyBrake)
	boost := thrust && in.Held(KeyBoost) && !brake

	s.Speed = c.integrateSpeed(s.Speed, dt, thrust, brake, boost)
	s.IsBoosting = boost

	agility := c.agility(s.Speed, boost)
	turn := t.MouseSensitivity * t.BaseTurnRate * agility
	yawTarget := -dx * turn
	pitchTarget := -dy * turn
	if t.TurnSmoothing <= 0 {
		s.YawVelocity = yawTarget
		s.PitchVelocity = pitchTarget
	} else {
		a := response(t.TurnSmoothing, dt)
		s.YawVelocity += (yawTarget - s.YawVelocity) * a
		s.PitchVelocity += (pitchTarget - s.PitchVelocity) * a
	}

	var rollTarget float32
	if in.Held(KeyRollLeft) {
		rollTarget += t.RollRate
	}
	if in.Held(KeyRollRight) {
		rollTarget -= t.RollRate
	}
	s.RollVelocity += (rollTarget - s.RollVelocity) * response(t.RollResponse, dt)

	bankTarget := clamp(-s.YawVelocity*t.BankFactor, -t.MaxBank, t.MaxBank)
	s.AutoBankAngle += (bankTarget - s.AutoBankAngle) * response(t.BankResponse, dt)

	c.sanitize()
	if cam != nil {
		c.move(cam, dt)
	}
	return *s
}

// integrateSpeed applies brake, then boost, then thrust; idle holds speed
// except for the snap to zero near rest.
func (c *Controller) integrateSpeed(v, dt float32, thrust, brake, boost bool) float32 {
	t := c.tuning
	switch {
	case brake:
		v -= t.BrakeForce * dt
	case boost:
		if v < t.BoostSpeed {
			v = min(v+3*t.Acceleration*dt, t.BoostSpeed)
		}
	case thrust:
		if v < t.MaxSpeed {
			v = min(v+t.Acceleration*dt, t.MaxSpeed)
		}
	default:
		if math32.Abs(v) < t.SnapEpsilon {
			v = 0
		}
	}
	return clamp(v, t.MinSpeed, t.BoostSpeed)
}

// agility falls from AgilityAtMinSpeed at rest to AgilityAtMaxSpeed at
// MaxSpeed; boosting uses AgilityAtBoost.
func (c *Controller) agility(speed float32, boosting bool) float32 {
	t := c.tuning
	if boosting {
		return t.AgilityAtBoost
	}
	frac := float32(1)
	if t.MaxSpeed > 0 {
		frac = min(math32.Abs(speed)/t.MaxSpeed, 1)
	}
	return t.AgilityAtMinSpeed + (t.AgilityAtMaxSpeed-t.AgilityAtMinSpeed)*frac
}

// move applies yaw about local up, pitch about local right and roll about
// local forward, in that order, then translates along the new heading.
func (c *Controller) move(cam *Camera, dt float32) {
	s := c.state
	prev := cam.Orientation
	if !finiteQuat(prev) || prev.Length() < 1e-6 {
		prev = identity()
	}
	q := prev
	q.SetMul(math32.NewQuatAxisAngle(axisUp, s.YawVelocity*dt))
	q.SetMul(math32.NewQuatAxisAngle(axisRight, s.PitchVelocity*dt))
	q.SetMul(math32.NewQuatAxisAngle(axisForward, s.RollVelocity*dt))
	q.Normalize()
	if !finiteQuat(q) || q.Length() < 0.5 {
		q = prev
	}
	cam.Orientation = q
	cam.Bank = s.AutoBankAngle

	step := cam.Forward().MulScalar(s.Speed * dt)
	if finiteVec(step) {
		cam.Position = cam.Position.Add(step)
	}
}

// sanitize zeroes any non-finite accumulator.
func (c *Controller) sanitize() {
	s := &c.state
	for _, v := range []*float32{&s.Speed, &s.YawVelocity, &s.PitchVelocity, &s.RollVelocity, &s.AutoBankAngle} {
		if !finiteScalar(*v) {
			*v = 0
		}
	}
}

// response is the fraction of the gap an exponential filter with the given
// rate closes in dt. A non-positive rate closes it at once.
func response(rate, dt float32) float32 {
	if rate <= 0 {
		return 1
	}
	return 1 - math32.Exp(-rate*dt)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
