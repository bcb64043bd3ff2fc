package splat

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// testSurface is a minimal in-memory Surface with a configurable stride
// pad, so the pipeline tests need no collaborator package.
type testSurface struct {
	pix    []byte
	w, h   int
	stride int
	bpp    int
}

func newTestSurface(w, h, bpp, pad int) *testSurface {
	stride := w*bpp/8 + pad
	return &testSurface{
		pix:    make([]byte, stride*h),
		w:      w,
		h:      h,
		stride: stride,
		bpp:    bpp,
	}
}

func (s *testSurface) PixelBase(y int) []byte { return s.pix[y*s.stride:] }
func (s *testSurface) Width() int             { return s.w }
func (s *testSurface) Height() int            { return s.h }
func (s *testSurface) BPP() int               { return s.bpp }

func (s *testSurface) at32(x, y int) uint32 {
	return binary.LittleEndian.Uint32(s.pix[y*s.stride+x*4:])
}

func newFloatRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("float")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

const opaqueBlack = 0xFF000000

func TestFrameEmptyScene(t *testing.T) {
	st := NewStore(16)
	cam := originCamera(64, 64)
	dst := newTestSurface(64, 64, 32, 0)

	r := newFloatRenderer(t)
	if err := r.Frame(st, cam, dst); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if p := dst.at32(x, y); p != opaqueBlack {
				t.Fatalf("pixel (%d,%d) = %08x, want opaque black", x, y, p)
			}
		}
	}
}

func TestFrameSingleCentralSplat(t *testing.T) {
	st := NewStore(16)
	appendOne(t, st, Splat3D{
		X: 0, Y: 0, Z: -5,
		Cov: isotropic(0.02),
		R:   255, G: 0, B: 0, Alpha: 255,
	})

	cam := originCamera(128, 128)
	dst := newTestSurface(128, 128, 32, 0)

	r := newFloatRenderer(t)
	if err := r.Frame(st, cam, dst); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	p := dst.at32(64, 64)
	red := p >> 16 & 0xFF
	green := p >> 8 & 0xFF
	blue := p & 0xFF
	if red < 0xF0 {
		t.Errorf("centre R = %#x, want >= 0xF0", red)
	}
	if green != 0 || blue != 0 {
		t.Errorf("centre G,B = %#x,%#x, want 0,0", green, blue)
	}
	if p := dst.at32(0, 0); p != opaqueBlack {
		t.Errorf("corner = %08x, want opaque black", p)
	}
}

func TestFrameDepthOrder(t *testing.T) {
	red := Splat3D{X: 0, Y: 0, Z: -4, Cov: isotropic(0.02), R: 255, Alpha: 255}
	blue := Splat3D{X: 0, Y: 0, Z: -6, Cov: isotropic(0.02), B: 255, Alpha: 255}

	render := func(a, b Splat3D) uint32 {
		st := NewStore(16)
		st.Append(a)
		st.Append(b)
		cam := originCamera(128, 128)
		dst := newTestSurface(128, 128, 32, 0)
		r, _ := NewRenderer("float")
		r.Frame(st, cam, dst)
		return dst.at32(64, 64)
	}

	p := render(red, blue)
	if r, b := p>>16&0xFF, p&0xFF; r <= b {
		t.Errorf("near red should dominate: R=%#x B=%#x", r, b)
	}

	// Swap the world positions: blue now in front.
	red.Z, blue.Z = -6, -4
	p = render(red, blue)
	if r, b := p>>16&0xFF, p&0xFF; b <= r {
		t.Errorf("near blue should dominate after swap: R=%#x B=%#x", r, b)
	}
}

func TestFrameBehindCameraCull(t *testing.T) {
	st := NewStore(16)
	appendOne(t, st, Splat3D{X: 0, Y: 0, Z: 1, Cov: isotropic(0.02), R: 255, Alpha: 255})

	cam := originCamera(64, 64)
	dst := newTestSurface(64, 64, 32, 0)

	r := newFloatRenderer(t)
	if err := r.Frame(st, cam, dst); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if p := dst.at32(x, y); p != opaqueBlack {
				t.Fatalf("pixel (%d,%d) = %08x, want opaque black", x, y, p)
			}
		}
	}
}

// A culled splat in the scene must not suppress the visible ones: the
// sentinel sorts behind every visible splat, and the rasterizer's walk
// covers all of them before it stops.
func TestFrameCulledSplatDoesNotMaskVisible(t *testing.T) {
	st := NewStore(16)
	// Behind the camera: culled at projection.
	appendOne(t, st, Splat3D{X: 0, Y: 0, Z: 1, Cov: isotropic(0.02), B: 255, Alpha: 255})
	// In front: must still render.
	appendOne(t, st, Splat3D{
		X: 0, Y: 0, Z: -5,
		Cov: isotropic(0.02),
		R:   255, Alpha: 255,
	})

	cam := originCamera(128, 128)

	for _, regime := range []string{"float", "fixed"} {
		dst := newTestSurface(128, 128, 32, 0)
		r, err := NewRenderer(regime)
		if err != nil {
			t.Fatalf("NewRenderer(%s): %v", regime, err)
		}
		if err := r.Frame(st, cam, dst); err != nil {
			t.Fatalf("Frame (%s): %v", regime, err)
		}

		p := dst.at32(64, 64)
		if red := p >> 16 & 0xFF; red < 0xE0 {
			t.Errorf("%s regime: centre R = %#x, visible splat was masked by the culled one", regime, red)
		}
	}
}

func TestFrameDegenerateCovariance(t *testing.T) {
	st := NewStore(16)
	appendOne(t, st, Splat3D{
		X: 0, Y: 0, Z: -5,
		Cov: [6]float32{0, 10, 0, 0, 0, 0},
		R:   255, Alpha: 255,
	})

	cam := originCamera(64, 64)
	dst := newTestSurface(64, 64, 32, 0)

	r := newFloatRenderer(t)
	if err := r.Frame(st, cam, dst); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if p := dst.at32(x, y); p != opaqueBlack {
				t.Fatalf("pixel (%d,%d) = %08x, want opaque black", x, y, p)
			}
		}
	}
}

func TestFrameIdempotent(t *testing.T) {
	st := NewStore(512)
	GenerateTestSplats(st, 512, 99)

	cam := NewCamera(60, 128, 96)
	cam.LookAt([3]float32{3, 1, 4}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})

	a := newTestSurface(128, 96, 32, 0)
	b := newTestSurface(128, 96, 32, 0)

	r := newFloatRenderer(t)
	if err := r.Frame(st, cam, a); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if err := r.Frame(st, cam, b); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	if !bytes.Equal(a.pix, b.pix) {
		t.Error("identical inputs produced different pixels")
	}
}

func TestFrameUnsupportedBPP(t *testing.T) {
	st := NewStore(16)
	cam := originCamera(64, 64)
	dst := newTestSurface(64, 64, 24, 0)

	r := newFloatRenderer(t)
	if err := r.Frame(st, cam, dst); err == nil {
		t.Error("24bpp surface should be rejected")
	}
}

func TestFrameFixedRegimeScene(t *testing.T) {
	st := NewStore(16)
	appendOne(t, st, Splat3D{
		X: 0, Y: 0, Z: -5,
		Cov: isotropic(0.02),
		R:   255, Alpha: 255,
	})

	cam := originCamera(128, 128)
	dst := newTestSurface(128, 128, 32, 0)

	r, err := NewRenderer("fixed")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if err := r.Frame(st, cam, dst); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	p := dst.at32(64, 64)
	if red := p >> 16 & 0xFF; red < 0xE0 {
		t.Errorf("centre R = %#x, want bright red", red)
	}
	if p := dst.at32(0, 0); p != opaqueBlack {
		t.Errorf("corner = %08x, want opaque black", p)
	}
}

// referenceRender composites the sorted splats over the whole surface
// without tiling, using the same arithmetic as the tile path.
func referenceRender(st *Store, w, h int) []float32 {
	acc := make([]float32, w*h*4)
	for _, idx := range st.Order() {
		s := &st.Projected()[idx]
		if s.Culled() {
			break
		}
		for y := int(s.Y0); y <= int(s.Y1); y++ {
			dy := float32(y) + 0.5 - s.SY
			for x := int(s.X0); x <= int(s.X1); x++ {
				dx := float32(x) + 0.5 - s.SX
				blendPixel(acc[(y*w+x)*4:], 0, dx, dy, s)
			}
		}
	}
	return acc
}

func TestFrameMatchesUntiledReference(t *testing.T) {
	const w, h = 128, 96
	st := NewStore(256)
	GenerateTestSplats(st, 256, 5)

	cam := NewCamera(60, w, h)
	cam.LookAt([3]float32{4, 1.5, 2}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})

	dst := newTestSurface(w, h, 32, 0)
	r := newFloatRenderer(t)
	if err := r.Frame(st, cam, dst); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	ref := referenceRender(st, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := dst.at32(x, y)
			o := (y*w + x) * 4
			wantR := floatTo8(ref[o])
			wantG := floatTo8(ref[o+1])
			wantB := floatTo8(ref[o+2])
			gotR := p >> 16 & 0xFF
			gotG := p >> 8 & 0xFF
			gotB := p & 0xFF
			if absDiff(gotR, wantR) > 1 || absDiff(gotG, wantG) > 1 || absDiff(gotB, wantB) > 1 {
				t.Fatalf("pixel (%d,%d) = %02x%02x%02x, reference %02x%02x%02x",
					x, y, gotR, gotG, gotB, wantR, wantG, wantB)
			}
		}
	}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func BenchmarkFrameFloat(b *testing.B) {
	st := NewStore(10000)
	GenerateTestSplats(st, 10000, 42)
	cam := NewCamera(60, 640, 480)
	dst := newTestSurface(640, 480, 32, 0)
	r, _ := NewRenderer("float")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		OrbitCamera(cam, i)
		r.Frame(st, cam, dst)
	}
}

func BenchmarkFrameFixed(b *testing.B) {
	st := NewStore(10000)
	GenerateTestSplats(st, 10000, 42)
	cam := NewCamera(60, 640, 480)
	dst := newTestSurface(640, 480, 32, 0)
	r, _ := NewRenderer("fixed")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		OrbitCamera(cam, i)
		r.Frame(st, cam, dst)
	}
}
