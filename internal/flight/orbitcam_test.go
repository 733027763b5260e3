package flight

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
)

func TestOrbitCameraLooksAtTarget(t *testing.T) {
	target := math32.Vec3(100, 20, -300)
	o := NewOrbitCamera(target, 250, 10, 5000)
	o.Orbit(120, -40)

	cam := NewCamera(math32.Vector3{})
	cam.Bank = 0.4
	o.Apply(cam)

	assert.InDelta(t, 250, cam.Position.DistanceTo(target), 1e-2)
	want := target.Sub(cam.Position).Normal()
	got := cam.Forward()
	assert.InDelta(t, want.X, got.X, 1e-3)
	assert.InDelta(t, want.Y, got.Y, 1e-3)
	assert.InDelta(t, want.Z, got.Z, 1e-3)
	assert.Zero(t, cam.Bank)
}

func TestOrbitPitchClamped(t *testing.T) {
	o := NewOrbitCamera(math32.Vector3{}, 100, 10, 1000)
	o.Orbit(0, 1e6)
	assert.LessOrEqual(t, o.Pitch, float32(maxOrbitPitch))
	o.Orbit(0, -1e7)
	assert.GreaterOrEqual(t, o.Pitch, float32(-maxOrbitPitch))
}

func TestOrbitZoomBounds(t *testing.T) {
	o := NewOrbitCamera(math32.Vector3{}, 100, 10, 1000)
	o.Zoom(50)
	assert.InDelta(t, 150, o.Distance, 1e-3)
	o.Zoom(10000)
	assert.Equal(t, float32(1000), o.Distance)
	o.Zoom(-100)
	assert.Equal(t, float32(10), o.Distance)
	o.Zoom(math32.NaN())
	assert.Equal(t, float32(10), o.Distance)
}

func TestOrbitFocus(t *testing.T) {
	o := NewOrbitCamera(math32.Vector3{}, 100, 10, 1000)
	o.Focus(math32.Vec3(5, 5, 5), 40)
	assert.Equal(t, math32.Vec3(5, 5, 5), o.Target)
	assert.Equal(t, float32(40), o.Distance)

	o.Focus(math32.Vec3(math32.NaN(), 0, 0), 40)
	assert.Equal(t, math32.Vec3(5, 5, 5), o.Target)
}

func TestOrbitFromEyeRoundTrips(t *testing.T) {
	o := NewOrbitCamera(math32.Vector3{}, 100, 10, 1000)
	eye := math32.Vec3(30, 40, -120)
	target := math32.Vec3(0, 10, 0)
	o.FromEye(eye, target)

	got := o.Eye()
	assert.InDelta(t, eye.X, got.X, 1e-2)
	assert.InDelta(t, eye.Y, got.Y, 1e-2)
	assert.InDelta(t, eye.Z, got.Z, 1e-2)

	o.FromEye(target, target)
	assert.Equal(t, target, o.Target, "degenerate eye keeps previous state")
}

func TestViewOrientationAddsBank(t *testing.T) {
	cam := NewCamera(math32.Vector3{})
	assert.Equal(t, cam.Orientation, cam.ViewOrientation())

	cam.Bank = 0.5
	v := cam.ViewOrientation()
	assert.InDelta(t, 1, v.Length(), 1e-5)
	up := axisUp.MulQuat(v)
	assert.Greater(t, up.X, float32(0), "positive bank tilts the view right")
}
