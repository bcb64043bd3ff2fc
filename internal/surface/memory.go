// Package surface provides render destinations for the splat pipeline:
// an in-memory pixel buffer, the Linux framebuffer device and a portable
// pixmap debug writer.
package surface

import "fmt"

// Memory is a heap-backed surface. It is the headless destination and
// the backing store for the windowed view.
type Memory struct {
	Pix    []byte
	W, H   int
	Stride int
	Depth  int // bits per pixel, 16 or 32
}

// NewMemory allocates a surface with a tight stride.
func NewMemory(w, h, bpp int) (*Memory, error) {
	if bpp != 16 && bpp != 32 {
		return nil, fmt.Errorf("unsupported surface depth %d bpp (need 16 or 32)", bpp)
	}
	stride := w * bpp / 8
	return &Memory{
		Pix:    make([]byte, stride*h),
		W:      w,
		H:      h,
		Stride: stride,
		Depth:  bpp,
	}, nil
}

func (m *Memory) PixelBase(y int) []byte { return m.Pix[y*m.Stride:] }
func (m *Memory) Width() int             { return m.W }
func (m *Memory) Height() int            { return m.H }
func (m *Memory) BPP() int               { return m.Depth }

// Clear zeroes the whole buffer.
func (m *Memory) Clear() {
	for i := range m.Pix {
		m.Pix[i] = 0
	}
}
