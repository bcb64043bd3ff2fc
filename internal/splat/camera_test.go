package splat

import (
	"math"
	"testing"
)

func TestNewCameraIntrinsics(t *testing.T) {
	cam := NewCamera(60, 128, 128)

	wantFY := float32(64.0 / math.Tan(30*math.Pi/180))
	if math.Abs(float64(cam.FY-wantFY)) > 1e-3 {
		t.Errorf("FY = %g, want %g", cam.FY, wantFY)
	}
	if cam.FX != cam.FY {
		t.Errorf("FX = %g, want square pixels (FY = %g)", cam.FX, cam.FY)
	}
	if cam.CX != 64 || cam.CY != 64 {
		t.Errorf("principal point = (%g,%g), want (64,64)", cam.CX, cam.CY)
	}
}

func viewTransform(cam *Camera, p [3]float32) [3]float32 {
	m := &cam.View
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

func TestLookAtMapsTargetToNegativeZ(t *testing.T) {
	cam := NewCamera(60, 128, 128)
	cam.LookAt([3]float32{0, 0, 5}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})

	got := viewTransform(cam, [3]float32{0, 0, 0})
	want := [3]float32{0, 0, -5}
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Fatalf("origin in camera space = %v, want %v", got, want)
		}
	}

	// The eye itself maps to the camera origin.
	got = viewTransform(cam, [3]float32{0, 0, 5})
	for i := range got {
		if math.Abs(float64(got[i])) > 1e-5 {
			t.Fatalf("eye in camera space = %v, want origin", got)
		}
	}
}

func TestLookAtBasisOrthonormal(t *testing.T) {
	cam := NewCamera(60, 640, 480)
	cam.LookAt([3]float32{3, 2, -4}, [3]float32{0.5, -1, 2}, [3]float32{0, 1, 0})

	m := &cam.View
	rows := [3][3]float32{
		{m[0], m[4], m[8]},
		{m[1], m[5], m[9]},
		{m[2], m[6], m[10]},
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dot := float64(dot3(rows[i], rows[j]))
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(dot-want) > 1e-5 {
				t.Errorf("rows %d,%d: dot = %g, want %g", i, j, dot, want)
			}
		}
	}
}
