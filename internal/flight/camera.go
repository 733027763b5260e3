package flight

import (
	"cogentcore.org/core/math32"
)

// Local axes of the camera frame. The camera looks down -Z with +Y up.
var (
	axisUp      = math32.Vec3(0, 1, 0)
	axisRight   = math32.Vec3(1, 0, 0)
	axisForward = math32.Vec3(0, 0, -1)
)

// Camera is the render camera transform. Orientation is the ship heading;
// Bank is a cosmetic roll layered on top for the view only.
type Camera struct {
	Position    math32.Vector3 `json:"position"`
	Orientation math32.Quat    `json:"orientation"`
	Bank        float32        `json:"bank"`
}

// NewCamera returns a camera at pos with identity orientation.
func NewCamera(pos math32.Vector3) *Camera {
	return &Camera{Position: pos, Orientation: identity()}
}

// Forward is the heading direction in world space.
func (c *Camera) Forward() math32.Vector3 {
	return axisForward.MulQuat(c.Orientation)
}

// Up is the heading's up direction in world space.
func (c *Camera) Up() math32.Vector3 {
	return axisUp.MulQuat(c.Orientation)
}

// Right is the heading's right direction in world space.
func (c *Camera) Right() math32.Vector3 {
	return axisRight.MulQuat(c.Orientation)
}

// ViewOrientation is the heading with the bank roll applied about the
// local forward axis.
func (c *Camera) ViewOrientation() math32.Quat {
	q := c.Orientation
	if c.Bank != 0 {
		q.SetMul(math32.NewQuatAxisAngle(axisForward, c.Bank))
		q.Normalize()
	}
	return q
}

func identity() math32.Quat {
	return math32.Quat{W: 1}
}

func finiteQuat(q math32.Quat) bool {
	return finiteScalar(q.X) && finiteScalar(q.Y) && finiteScalar(q.Z) && finiteScalar(q.W)
}

func finiteVec(v math32.Vector3) bool {
	return finiteScalar(v.X) && finiteScalar(v.Y) && finiteScalar(v.Z)
}
