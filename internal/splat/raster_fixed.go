package splat

// Fixed-point rasterization. Entirely integer; designed so every product
// fits an 18x18 multiplier:
//
//	dx, dy:    s14.4
//	dx², dxdy: products >> 4, ~17/18 bits
//	a, c:      u2.14
//	2b:        s2.14 (17 signed bits)
//	d²:        u4.18 accumulator
//	LUT out:   u0.16
//	w:         u0.7 (0..128, 128 = 1.0)
//	tile:      u0.10 per channel (0..1023)

// rasterSplatFixed blends one splat into the u0.10 tile accumulator.
//
// dx² and dx·dy are updated incrementally along the row:
// (dx+16)² = dx² + 32·dx + 256 and (dx+16)·dy = dx·dy + 16·dy in s14.4,
// which removes two multiplies from the per-pixel path.
func rasterSplatFixed(tile *[TileH * TileW * 4]uint16, s *Splat2DFixed, tpx, tpy int) {
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

	aFP := int32(s.AFP)
	b2FP := s.B2FP
	cFP := int32(s.CFP)

	// Color scaled to u0.10: [0,255] -> [0,1020].
	cr := int32(s.R) << 2
	cg := int32(s.G) << 2
	cb := int32(s.B) << 2
	opacity := uint32(s.Opacity)

	for ty := y0; ty <= y1; ty++ {
		// Pixel centre in s14.4: 16*coord + 8.
		dyFP := int32((tpy+ty)*16+8) - s.SyFP

		dy2 := int32((int64(dyFP) * int64(dyFP)) >> 4)
		termC := int64(cFP) * int64(dy2)

		row := tile[ty*TileW*4 : (ty+1)*TileW*4]

		dxFP := int32((tpx+x0)*16+8) - s.SxFP
		dx2Raw := int32(int64(dxFP) * int64(dxFP))
		dxdyRaw := int32(int64(dxFP) * int64(dyFP))

		for tx := x0; tx <= x1; tx++ {
			dx2 := dx2Raw >> 4
			dxdy := dxdyRaw >> 4

			termA := int64(aFP) * int64(dx2)
			termB := int64(b2FP) * int64(dxdy)
			d2 := int32(termA + termB + termC)

			if g := GaussFixed(d2); g != 0 {
				// u0.16 * u0.8 = u0.24, scaled to u0.7.
				w := int32((uint32(g) * opacity) >> 17)
				if w > 0 {
					if w > 128 {
						w = 128
					}
					omw := 128 - w

					o := tx * 4
					row[o+0] = uint16((cr*w + int32(row[o+0])*omw) >> 7)
					row[o+1] = uint16((cg*w + int32(row[o+1])*omw) >> 7)
					row[o+2] = uint16((cb*w + int32(row[o+2])*omw) >> 7)
					row[o+3] = uint16((1020*w + int32(row[o+3])*omw) >> 7)
				}
			}

			dx2Raw += dxFP<<5 + 256
			dxdyRaw += dyFP << 4
			dxFP += 16
		}
	}
}

func (r *Renderer) rasterTileFixed(st *Store, tpx, tpy int) {
	for i := range r.tileU {
		r.tileU[i] = 0
	}

	fixed := st.projFixed
	for _, idx := range st.Order() {
		s := &fixed[idx]
		if s.Depth >= culledThreshold {
			break
		}
		if int(s.X1) < tpx || int(s.X0) >= tpx+TileW {
			continue
		}
		if int(s.Y1) < tpy || int(s.Y0) >= tpy+TileH {
			continue
		}
		rasterSplatFixed(&r.tileU, s, tpx, tpy)
	}
}
