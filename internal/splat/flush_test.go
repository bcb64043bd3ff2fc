package splat

import (
	"encoding/binary"
	"testing"
)

func TestFlushFloat32bpp(t *testing.T) {
	dst := newTestSurface(TileW, TileH, 32, 0)

	var tile [TileH * TileW * 4]float32
	tile[0], tile[1], tile[2], tile[3] = 1.0, 0.5, 0.0, 1.0 // pixel (0,0)
	o := (1*TileW + 2) * 4                                  // pixel (2,1)
	tile[o], tile[o+1], tile[o+2] = 0.25, 2.0, -0.5         // out-of-range channels clamp

	flushFloatTile(dst, &tile, 0, 0)

	p := binary.LittleEndian.Uint32(dst.PixelBase(0))
	want := uint32(0xFF000000 | 255<<16 | 128<<8 | 0)
	if p != want {
		t.Errorf("pixel (0,0) = %08x, want %08x", p, want)
	}

	p = binary.LittleEndian.Uint32(dst.PixelBase(1)[2*4:])
	want = 0xFF000000 | 64<<16 | 255<<8 | 0
	if p != want {
		t.Errorf("pixel (2,1) = %08x, want %08x", p, want)
	}

	// Untouched accumulator entries flush to opaque black.
	p = binary.LittleEndian.Uint32(dst.PixelBase(5)[7*4:])
	if p != 0xFF000000 {
		t.Errorf("background pixel = %08x, want opaque black", p)
	}
}

func TestFlushFloat16bpp(t *testing.T) {
	dst := newTestSurface(TileW, TileH, 16, 0)

	var tile [TileH * TileW * 4]float32
	tile[0], tile[1], tile[2] = 1.0, 0.5, 0.25

	flushFloatTile(dst, &tile, 0, 0)

	p := binary.LittleEndian.Uint16(dst.PixelBase(0))
	const r5 = 31 // 1.0 at 5 bits
	const g6 = 32 // 0.5*63 + 0.5 truncated
	const b5 = 8  // 0.25*31 + 0.5 truncated
	want := uint16(r5<<11 | g6<<5 | b5)
	if p != want {
		t.Errorf("pixel = %04x, want %04x", p, want)
	}
}

func TestFlushFixed32bpp(t *testing.T) {
	dst := newTestSurface(TileW, TileH, 32, 0)

	var tile [TileH * TileW * 4]uint16
	tile[0], tile[1], tile[2] = 1020, 512, 100

	flushFixedTile(dst, &tile, 0, 0)

	p := binary.LittleEndian.Uint32(dst.PixelBase(0))
	want := uint32(0xFF000000) | uint32(1020>>2)<<16 | uint32(512>>2)<<8 | uint32(100>>2)
	if p != want {
		t.Errorf("pixel = %08x, want %08x", p, want)
	}
}

func TestFlushFixed16bpp(t *testing.T) {
	dst := newTestSurface(TileW, TileH, 16, 0)

	var tile [TileH * TileW * 4]uint16
	tile[0], tile[1], tile[2] = 1020, 1020, 1020

	flushFixedTile(dst, &tile, 0, 0)

	p := binary.LittleEndian.Uint16(dst.PixelBase(0))
	want := uint16(31<<11 | 63<<5 | 31)
	if p != want {
		t.Errorf("full-scale pixel = %04x, want %04x", p, want)
	}
}

func TestFlushClipsAtSurfaceEdge(t *testing.T) {
	// 40x40 surface: the second tile row/column only partially exists.
	dst := newTestSurface(40, 40, 32, 0)

	var tile [TileH * TileW * 4]float32
	for i := range tile {
		tile[i] = 1
	}

	flushFloatTile(dst, &tile, 32, 32) // bottom-right partial tile

	// In-range pixel written.
	p := binary.LittleEndian.Uint32(dst.PixelBase(39)[39*4:])
	if p != 0xFFFFFFFF {
		t.Errorf("pixel (39,39) = %08x, want white", p)
	}
	// No write beyond row 39 or column 39 happened: the surface buffer
	// is exactly 40x40, so an overrun would have panicked above.
}

func TestFlushHonoursStride(t *testing.T) {
	// Stride padded by 16 bytes per row.
	dst := newTestSurface(TileW, 2, 32, 16)

	var tile [TileH * TileW * 4]float32
	tile[(1*TileW)*4] = 1 // pixel (0,1) red

	flushFloatTile(dst, &tile, 0, 0)

	p := binary.LittleEndian.Uint32(dst.PixelBase(1))
	if p != 0xFFFF0000 {
		t.Errorf("pixel (0,1) = %08x, want opaque red", p)
	}
	// Padding bytes stay zero.
	pad := dst.pix[dst.stride-4:]
	if pad[0] != 0 || pad[1] != 0 || pad[2] != 0 || pad[3] != 0 {
		t.Error("flush wrote into stride padding")
	}
}
