package splat

import (
	"log/slog"

	"golang.org/x/sys/cpu"
)

// Minimum per-pixel contribution; anything below one 8-bit step is
// invisible in every supported surface format.
const minWeight = 1.0 / 255.0

// RasterBackend indicates which float blend kernel is active.
type RasterBackend int

const (
	RasterBackendScalar RasterBackend = iota
	RasterBackendAVX2
	RasterBackendNEON
)

func (b RasterBackend) String() string {
	switch b {
	case RasterBackendAVX2:
		return "AVX2"
	case RasterBackendNEON:
		return "NEON"
	case RasterBackendScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// ActiveRasterBackend reports which kernel was selected at init.
var ActiveRasterBackend RasterBackend

// rasterRow is the runtime-dispatched float blend kernel. It evaluates
// the Gaussian at n consecutive pixel centres of one accumulator row and
// blends front-over-back. Both implementations perform identical
// per-pixel arithmetic; the quad variant is unrolled four wide so the
// vector units on AVX2/ASIMD hosts keep their pipes full.
var rasterRow func(row []float32, n int, dx0, dy float32, s *Splat2D)

func init() {
	if cpu.X86.HasAVX2 {
		ActiveRasterBackend = RasterBackendAVX2
		rasterRow = rasterRowQuad
		slog.Debug("raster kernel initialized", "backend", "AVX2")
	} else if cpu.ARM64.HasASIMD {
		ActiveRasterBackend = RasterBackendNEON
		rasterRow = rasterRowQuad
		slog.Debug("raster kernel initialized", "backend", "NEON")
	} else {
		ActiveRasterBackend = RasterBackendScalar
		rasterRow = rasterRowScalar
		slog.Debug("raster kernel initialized", "backend", "scalar")
	}
}

func blendPixel(row []float32, o int, dx, dy float32, s *Splat2D) {
	d2 := s.InvA*dx*dx + s.InvB2*dx*dy + s.InvC*dy*dy
	if d2 >= GaussCutoff {
		return
	}
	w := Gauss(d2) * s.Opacity
	if w < minWeight {
		return
	}
	omw := 1 - w
	row[o+0] = s.RF*w + row[o+0]*omw
	row[o+1] = s.GF*w + row[o+1]*omw
	row[o+2] = s.BF*w + row[o+2]*omw
	row[o+3] = w + row[o+3]*omw
}

func rasterRowScalar(row []float32, n int, dx0, dy float32, s *Splat2D) {
	for i := 0; i < n; i++ {
		blendPixel(row, i*4, dx0+float32(i), dy, s)
	}
}

func rasterRowQuad(row []float32, n int, dx0, dy float32, s *Splat2D) {
	i := 0
	for ; i+4 <= n; i += 4 {
		blendPixel(row, i*4, dx0+float32(i), dy, s)
		blendPixel(row, (i+1)*4, dx0+float32(i+1), dy, s)
		blendPixel(row, (i+2)*4, dx0+float32(i+2), dy, s)
		blendPixel(row, (i+3)*4, dx0+float32(i+3), dy, s)
	}
	for ; i < n; i++ {
		blendPixel(row, i*4, dx0+float32(i), dy, s)
	}
}

// rasterSplatFloat blends one splat into the float tile accumulator.
// tpx/tpy is the tile origin in surface coordinates.
func rasterSplatFloat(tile *[TileH * TileW * 4]float32, s *Splat2D, tpx, tpy int) {
	x0 := int(s.X0) - tpx
	y0 := int(s.Y0) - tpy
	x1 := int(s.X1) - tpx
	y1 := int(s.Y1) - tpy

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= TileW {
		x1 = TileW - 1
	}
	if y1 >= TileH {
		y1 = TileH - 1
	}
	if x0 > x1 || y0 > y1 {
		return
	}

	for ty := y0; ty <= y1; ty++ {
		dy := float32(tpy+ty) + 0.5 - s.SY
		dx0 := float32(tpx+x0) + 0.5 - s.SX
		row := tile[(ty*TileW+x0)*4 : (ty*TileW+x1)*4+4]
		rasterRow(row, x1-x0+1, dx0, dy, s)
	}
}

// rasterTileFloat clears the accumulator and composites every splat
// overlapping the tile, in permutation order.
func (r *Renderer) rasterTileFloat(st *Store, tpx, tpy int) {
	for i := range r.tileF {
		r.tileF[i] = 0
	}

	proj := st.proj
	for _, idx := range st.Order() {
		s := &proj[idx]
		// Sentinels sort to the far end of the permutation, so the
		// first one ends the walk.
		if s.Depth >= culledThreshold {
			break
		}
		if int(s.X1) < tpx || int(s.X0) >= tpx+TileW {
			continue
		}
		if int(s.Y1) < tpy || int(s.Y0) >= tpy+TileH {
			continue
		}
		rasterSplatFloat(&r.tileF, s, tpx, tpy)
	}
}
