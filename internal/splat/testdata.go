package splat

import (
	"math"
	"math/rand"
)

// GenerateTestSplats fills the store with a deterministic cloud of
// splats sampled uniformly inside a radius-2 ball, colored by position.
// The same seed always produces the same scene.
func GenerateTestSplats(st *Store, count int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	st.Clear()

	for i := 0; i < count; i++ {
		u := rng.Float64()
		v := rng.Float64()
		w := rng.Float64()

		theta := 2 * math.Pi * u
		phi := math.Acos(2*v - 1)
		r := 2 * math.Cbrt(w)

		x := float32(r * math.Sin(phi) * math.Cos(theta))
		y := float32(r * math.Sin(phi) * math.Sin(theta))
		z := float32(r * math.Cos(phi))

		variance := float32(0.005 + 0.02*rng.Float64())

		s := Splat3D{
			X: x, Y: y, Z: z,
			Cov:   [6]float32{variance, 0, 0, variance, 0, variance},
			R:     uint8(128 + 60*x),
			G:     uint8(128 + 60*y),
			B:     uint8(128 + 60*z),
			Alpha: uint8(180 + rng.Intn(75)),
		}
		if st.Append(s) != nil {
			break
		}
	}
}

// OrbitCamera positions the camera on a horizontal orbit around the
// origin, one frame step per call index. This is the stock animation
// used by the render loop and the windowed view.
func OrbitCamera(cam *Camera, frame int) {
	angle := float64(frame) * 0.02
	const dist = 5.0
	eye := [3]float32{
		float32(dist * math.Cos(angle)),
		1.0,
		float32(dist * math.Sin(angle)),
	}
	cam.LookAt(eye, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})
}
