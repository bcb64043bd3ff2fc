package splat

import "math"

// Camera holds a right-handed column-major view matrix (camera looking
// down -z) and pinhole intrinsics derived from a vertical field of view.
type Camera struct {
	Pos  [3]float32
	View [16]float32

	FX, FY float32
	CX, CY float32
}

// NewCamera derives square-pixel intrinsics from a vertical fov and the
// surface size. The view matrix starts as identity.
func NewCamera(fovDeg float32, width, height int) *Camera {
	fov := float64(fovDeg) * math.Pi / 180.0
	fy := float32(float64(height) / 2.0 / math.Tan(fov/2.0))

	c := &Camera{
		FX: fy,
		FY: fy,
		CX: float32(width) / 2,
		CY: float32(height) / 2,
	}
	c.View[0], c.View[5], c.View[10], c.View[15] = 1, 1, 1, 1
	return c
}

func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func normalize3(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(dot3(v, v))))
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// LookAt rebuilds the view matrix from eye/target/up using the standard
// right-handed basis: forward f, side s = f x up, true up u = s x f.
func (c *Camera) LookAt(eye, target, up [3]float32) {
	f := normalize3([3]float32{target[0] - eye[0], target[1] - eye[1], target[2] - eye[2]})
	s := normalize3(cross3(f, up))
	u := cross3(s, f)

	c.Pos = eye

	m := &c.View
	m[0], m[4], m[8], m[12] = s[0], s[1], s[2], -dot3(s, eye)
	m[1], m[5], m[9], m[13] = u[0], u[1], u[2], -dot3(u, eye)
	m[2], m[6], m[10], m[14] = -f[0], -f[1], -f[2], dot3(f, eye)
	m[3], m[7], m[11], m[15] = 0, 0, 0, 1
}
