package splat

import "encoding/binary"

// Surface is the destination a flush writes into. PixelBase returns the
// scanline's bytes starting at pixel 0; implementations with padded
// strides hand out a slice into the right offset, so the flush never
// needs the stride itself.
type Surface interface {
	PixelBase(y int) []byte
	Width() int
	Height() int
	BPP() int
}

func clamp255(v uint32) uint32 {
	if v > 255 {
		return 255
	}
	return v
}

// flushFloatTile converts the [0,1] float accumulator to surface pixels,
// clipping at the right and bottom surface edges.
func flushFloatTile(dst Surface, tile *[TileH * TileW * 4]float32, tpx, tpy int) {
	w := dst.Width()
	h := dst.Height()
	bpp := dst.BPP()

	nx := TileW
	if tpx+nx > w {
		nx = w - tpx
	}

	for ty := 0; ty < TileH; ty++ {
		sy := tpy + ty
		if sy >= h {
			break
		}
		row := dst.PixelBase(sy)
		src := tile[ty*TileW*4:]

		if bpp == 32 {
			for tx := 0; tx < nx; tx++ {
				r8 := clamp255(floatTo8(src[tx*4+0]))
				g8 := clamp255(floatTo8(src[tx*4+1]))
				b8 := clamp255(floatTo8(src[tx*4+2]))
				binary.LittleEndian.PutUint32(row[(tpx+tx)*4:],
					0xFF000000|r8<<16|g8<<8|b8)
			}
		} else {
			for tx := 0; tx < nx; tx++ {
				r5 := clampN(floatToN(src[tx*4+0], 31), 31)
				g6 := clampN(floatToN(src[tx*4+1], 63), 63)
				b5 := clampN(floatToN(src[tx*4+2], 31), 31)
				binary.LittleEndian.PutUint16(row[(tpx+tx)*2:],
					uint16(r5<<11|g6<<5|b5))
			}
		}
	}
}

func floatTo8(v float32) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint32(v*255 + 0.5)
}

func floatToN(v float32, max uint32) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return max
	}
	return uint32(v*float32(max) + 0.5)
}

func clampN(v, max uint32) uint32 {
	if v > max {
		return max
	}
	return v
}

// flushFixedTile converts the u0.10 accumulator to surface pixels.
// Right-shifts do the depth conversion: >>2 to 8 bits, >>5/>>4 to the
// 5-6-5 channels.
func flushFixedTile(dst Surface, tile *[TileH * TileW * 4]uint16, tpx, tpy int) {
	w := dst.Width()
	h := dst.Height()
	bpp := dst.BPP()

	nx := TileW
	if tpx+nx > w {
		nx = w - tpx
	}

	for ty := 0; ty < TileH; ty++ {
		sy := tpy + ty
		if sy >= h {
			break
		}
		row := dst.PixelBase(sy)
		src := tile[ty*TileW*4:]

		if bpp == 32 {
			for tx := 0; tx < nx; tx++ {
				r8 := clamp255(uint32(src[tx*4+0]) >> 2)
				g8 := clamp255(uint32(src[tx*4+1]) >> 2)
				b8 := clamp255(uint32(src[tx*4+2]) >> 2)
				binary.LittleEndian.PutUint32(row[(tpx+tx)*4:],
					0xFF000000|r8<<16|g8<<8|b8)
			}
		} else {
			for tx := 0; tx < nx; tx++ {
				r5 := clampN(uint32(src[tx*4+0])>>5, 31)
				g6 := clampN(uint32(src[tx*4+1])>>4, 63)
				b5 := clampN(uint32(src[tx*4+2])>>5, 31)
				binary.LittleEndian.PutUint16(row[(tpx+tx)*2:],
					uint16(r5<<11|g6<<5|b5))
			}
		}
	}
}
