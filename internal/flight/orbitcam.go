package flight

import (
	"cogentcore.org/core/math32"
)

const maxOrbitPitch = math32.Pi/2 - 0.01

// OrbitCamera circles a target for inspection. Yaw and Pitch are spherical
// angles of the eye around the target; Pitch stays short of the poles so
// the look-at frame is always defined.
type OrbitCamera struct {
	Target      math32.Vector3 `json:"target"`
	Distance    float32        `json:"distance"`
	Yaw         float32        `json:"yaw"`
	Pitch       float32        `json:"pitch"`
	MinDistance float32        `json:"-"`
	MaxDistance float32        `json:"-"`
	Sensitivity float32        `json:"-"`
}

// NewOrbitCamera returns an orbit camera looking at target from distance,
// slightly above the galactic plane.
func NewOrbitCamera(target math32.Vector3, distance, minDistance, maxDistance float32) *OrbitCamera {
	o := &OrbitCamera{
		Target:      target,
		Pitch:       0.35,
		MinDistance: minDistance,
		MaxDistance: maxDistance,
		Sensitivity: 0.005,
	}
	o.setDistance(distance)
	return o
}

// Orbit rotates the eye around the target by pointer deltas.
func (o *OrbitCamera) Orbit(dx, dy float32) {
	if !finiteScalar(dx) || !finiteScalar(dy) {
		return
	}
	o.Yaw = wrap(o.Yaw - dx*o.Sensitivity)
	o.Pitch = clamp(o.Pitch+dy*o.Sensitivity, -maxOrbitPitch, maxOrbitPitch)
}

// Zoom changes the distance by pct percent; positive zooms out.
func (o *OrbitCamera) Zoom(pct float32) {
	if !finiteScalar(pct) {
		return
	}
	o.setDistance(o.Distance * (1 + pct/100))
}

// Focus retargets the camera, keeping its angles.
func (o *OrbitCamera) Focus(target math32.Vector3, distance float32) {
	if !finiteVec(target) {
		return
	}
	o.Target = target
	o.setDistance(distance)
}

// FromEye derives the orbit angles and distance so that the eye sits at
// eye looking at target. Used to hand over from flight without a jump.
func (o *OrbitCamera) FromEye(eye, target math32.Vector3) {
	d := eye.Sub(target)
	dist := d.Length()
	if !finiteVec(d) || dist < 1e-4 {
		return
	}
	o.Target = target
	o.setDistance(dist)
	o.Yaw = wrap(math32.Atan2(d.X, d.Z))
	o.Pitch = clamp(math32.Asin(clamp(d.Y/dist, -1, 1)), -maxOrbitPitch, maxOrbitPitch)
}

// Eye is the camera position in world space.
func (o *OrbitCamera) Eye() math32.Vector3 {
	cp := math32.Cos(o.Pitch)
	dir := math32.Vec3(cp*math32.Sin(o.Yaw), math32.Sin(o.Pitch), cp*math32.Cos(o.Yaw))
	return o.Target.Add(dir.MulScalar(o.Distance))
}

// Apply writes the eye position and a look-at orientation into cam and
// clears the bank.
func (o *OrbitCamera) Apply(cam *Camera) {
	eye := o.Eye()
	var q math32.Quat
	q.SetFromRotationMatrix(math32.NewLookAt(eye, o.Target, axisUp))
	q.Normalize()
	if !finiteQuat(q) {
		q = identity()
	}
	cam.Position = eye
	cam.Orientation = q
	cam.Bank = 0
}

func (o *OrbitCamera) setDistance(d float32) {
	if !finiteScalar(d) || d <= 0 {
		d = o.MinDistance
	}
	lo := max(o.MinDistance, 1)
	hi := max(o.MaxDistance, lo)
	o.Distance = clamp(d, lo, hi)
}

func wrap(a float32) float32 {
	a = math32.Mod(a, 2*math32.Pi)
	if a < 0 {
		a += 2 * math32.Pi
	}
	return a
}
