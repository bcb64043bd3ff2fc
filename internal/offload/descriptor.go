// Package offload hands sorted, projected splats to the accelerator
// fabric as per-tile linked descriptor lists in shared memory.
package offload

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cwbudde/gsplat/internal/splat"
)

// Descriptor layout, all little-endian:
//
//	qword 0:  bits [28:0]  tile's surface base, in qwords
//	          bits [60:32] next descriptor base, in qwords (0 = last)
//	qword 1:  bits [15:0]  splat count
//	          bits [31:16] tile origin x
//	          bits [47:32] tile origin y
//	then count fixed splat records, 32 bytes each, in traversal order.
//
// The fabric walks the chain, rasterizing each tile into the surface at
// its qword base.

const (
	headerBytes = 16
	qaddrMask   = 0x1FFFFFFF
)

// Control block word indices. The block is four 32-bit words in shared
// memory coordinating the handoff.
const (
	CtrlFirstDesc = 0 // driver: first descriptor qword address
	CtrlRequest   = 1 // driver sets to 1 to request a frame
	CtrlDone      = 2 // fabric sets to 1 when the frame is out
	CtrlFrame     = 3 // fabric: frame counter
)

// ErrDescOverflow means the descriptor window cannot hold the frame.
var ErrDescOverflow = fmt.Errorf("offload: descriptor region overflow")

func putRecord(dst []byte, s *splat.Splat2DFixed) {
	binary.LittleEndian.PutUint32(dst[0:], uint32(s.SxFP))
	binary.LittleEndian.PutUint32(dst[4:], uint32(s.SyFP))
	binary.LittleEndian.PutUint16(dst[8:], s.AFP)
	binary.LittleEndian.PutUint16(dst[10:], s.CFP)
	binary.LittleEndian.PutUint32(dst[12:], uint32(s.B2FP))
	dst[16], dst[17], dst[18], dst[19] = s.R, s.G, s.B, s.Opacity
	binary.LittleEndian.PutUint16(dst[20:], uint16(s.X0))
	binary.LittleEndian.PutUint16(dst[22:], uint16(s.Y0))
	binary.LittleEndian.PutUint16(dst[24:], uint16(s.X1))
	binary.LittleEndian.PutUint16(dst[26:], uint16(s.Y1))
	binary.LittleEndian.PutUint32(dst[28:], math.Float32bits(s.Depth))
}

// Build writes the frame's tile descriptors into buf, whose first byte
// lives at bus address descBase. fbBase is the bus address of a 32bpp
// surface of the given size. Returns the qword address of the first
// descriptor.
//
// Splats must already be projected under the fixed regime and sorted;
// the descriptor bodies carry the permutation order so the fabric blends
// back-to-front exactly as the CPU would.
func Build(buf []byte, descBase, fbBase uint32, st *splat.Store, width, height int) (uint32, int, error) {
	fixed := st.ProjectedFixed()
	order := st.Order()

	tilesX := (width + splat.TileW - 1) / splat.TileW
	tilesY := (height + splat.TileH - 1) / splat.TileH

	offset := 0
	prevHdr := 0
	hasPrev := false
	var first uint32

	for ty := 0; ty < tilesY; ty++ {
		tpy := ty * splat.TileH
		for tx := 0; tx < tilesX; tx++ {
			tpx := tx * splat.TileW

			offset = (offset + 7) &^ 7
			if offset+headerBytes > len(buf) {
				return 0, 0, fmt.Errorf("%w: tile %d,%d", ErrDescOverflow, tx, ty)
			}

			tileQaddr := (descBase + uint32(offset)) >> 3
			if !hasPrev {
				first = tileQaddr
			} else {
				// Patch the previous header's next pointer.
				prev := binary.LittleEndian.Uint64(buf[prevHdr:])
				prev = prev&qaddrMask | uint64(tileQaddr)<<32
				binary.LittleEndian.PutUint64(buf[prevHdr:], prev)
			}

			count := 0
			for _, idx := range order {
				s := &fixed[idx]
				if s.Culled() {
					break
				}
				if int(s.X1) < tpx || int(s.X0) >= tpx+splat.TileW {
					continue
				}
				if int(s.Y1) < tpy || int(s.Y0) >= tpy+splat.TileH {
					continue
				}

				rec := offset + headerBytes + count*splat.FixedRecordSize
				if rec+splat.FixedRecordSize > len(buf) {
					return 0, 0, fmt.Errorf("%w: splat %d in tile %d,%d",
						ErrDescOverflow, count, tx, ty)
				}
				putRecord(buf[rec:], s)
				count++
			}

			// Surface qword base for this tile's first pixel (32bpp:
			// 2 pixels per qword).
			fbQaddr := fbBase>>3 + uint32(tpy)*uint32(width)/2 + uint32(tpx)/2

			binary.LittleEndian.PutUint64(buf[offset:], uint64(fbQaddr&qaddrMask))
			binary.LittleEndian.PutUint64(buf[offset+8:],
				uint64(uint16(count))|uint64(uint16(tpx))<<16|uint64(uint16(tpy))<<32)

			prevHdr = offset
			hasPrev = true
			offset += headerBytes + count*splat.FixedRecordSize
		}
	}

	return first, offset, nil
}
