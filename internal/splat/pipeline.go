package splat

import (
	"fmt"
	"time"
)

// StageTimes accumulates per-stage wall time across frames. Reset it
// whenever a reporting interval ends.
type StageTimes struct {
	Project   time.Duration
	Sort      time.Duration
	Rasterize time.Duration
	Frames    int
}

// Renderer runs the per-frame pipeline: project, sort, rasterize tiles,
// flush. The tile accumulators are members so no frame-time allocation
// happens; a Renderer therefore serves one frame at a time, though
// distinct Renderers may work on disjoint surfaces concurrently.
type Renderer struct {
	regime Regime

	tileF [TileH * TileW * 4]float32
	tileU [TileH * TileW * 4]uint16

	Times StageTimes
}

// Regime returns the numeric regime the renderer was built with.
func (r *Renderer) Regime() Regime { return r.regime }

// Frame renders the store through the camera onto dst. Stages run
// strictly in order with no reordering; identical inputs produce
// identical pixels. The only failure is an unsupported surface format.
func (r *Renderer) Frame(st *Store, cam *Camera, dst Surface) error {
	bpp := dst.BPP()
	if bpp != 16 && bpp != 32 {
		return fmt.Errorf("unsupported surface depth %d bpp (need 16 or 32)", bpp)
	}

	w := dst.Width()
	h := dst.Height()

	t0 := time.Now()
	Project(st, cam, w, h, r.regime == RegimeFixed)
	t1 := time.Now()
	Sort(st)
	t2 := time.Now()

	tilesX := (w + TileW - 1) / TileW
	tilesY := (h + TileH - 1) / TileH

	for tileY := 0; tileY < tilesY; tileY++ {
		tpy := tileY * TileH
		for tileX := 0; tileX < tilesX; tileX++ {
			tpx := tileX * TileW

			if r.regime == RegimeFixed {
				r.rasterTileFixed(st, tpx, tpy)
				flushFixedTile(dst, &r.tileU, tpx, tpy)
			} else {
				r.rasterTileFloat(st, tpx, tpy)
				flushFloatTile(dst, &r.tileF, tpx, tpy)
			}
		}
	}
	t3 := time.Now()

	r.Times.Project += t1.Sub(t0)
	r.Times.Sort += t2.Sub(t1)
	r.Times.Rasterize += t3.Sub(t2)
	r.Times.Frames++

	return nil
}
