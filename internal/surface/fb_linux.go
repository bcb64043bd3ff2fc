//go:build linux

package surface

import (
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/cwbudde/gsplat/internal/splat"
)

// fbVarScreeninfo / fbFixScreeninfo mirror the kernel structures read by
// FBIOGET_VSCREENINFO / FBIOGET_FSCREENINFO.
type fbBitfield struct {
	Offset, Length, MSBRight uint32
}

type fbVarScreeninfo struct {
	XRes, YRes               uint32
	XResVirtual, YResVirtual uint32
	XOffset, YOffset         uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp fbBitfield
	NonStd                   uint32
	Activate                 uint32
	Height, Width            uint32
	AccelFlags               uint32
	PixClock                 uint32
	LeftMargin, RightMargin  uint32
	UpperMargin, LowerMargin uint32
	HsyncLen, VsyncLen       uint32
	Sync, VMode, Rotate      uint32
	Colorspace               uint32
	Reserved                 [4]uint32
}

type fbFixScreeninfo struct {
	ID           [16]byte
	SMemStart    uintptr
	SMemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MMIOStart    uintptr
	MMIOLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

const (
	ioctlGetVScreeninfo = 0x4600
	ioctlGetFScreeninfo = 0x4602
)

// Framebuffer is a memory-mapped /dev/fb0 surface. The render size is
// the mode rounded down to tile alignment; the mapping keeps the real
// stride so padded lines are honoured.
type Framebuffer struct {
	pix    []byte
	w, h   int
	stride int
	bpp    int
	fd     int
}

// OpenFramebuffer maps the named device (usually /dev/fb0). Unsupported
// depths are a configuration error.
func OpenFramebuffer(dev string) (*Framebuffer, error) {
	fd, err := unix.Open(dev, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}

	var vinfo fbVarScreeninfo
	var finfo fbFixScreeninfo
	if err := ioctlPtr(fd, ioctlGetVScreeninfo, unsafe.Pointer(&vinfo)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("FBIOGET_VSCREENINFO %s: %w", dev, err)
	}
	if err := ioctlPtr(fd, ioctlGetFScreeninfo, unsafe.Pointer(&finfo)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("FBIOGET_FSCREENINFO %s: %w", dev, err)
	}

	bpp := int(vinfo.BitsPerPixel)
	if bpp != 16 && bpp != 32 {
		unix.Close(fd)
		return nil, fmt.Errorf("unsupported framebuffer depth %d bpp (need 16 or 32)", bpp)
	}

	w := int(vinfo.XRes) / splat.TileW * splat.TileW
	h := int(vinfo.YRes) / splat.TileH * splat.TileH

	size := int(finfo.LineLength) * int(vinfo.YRes)
	pix, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %w", dev, err)
	}

	for i := range pix {
		pix[i] = 0
	}

	slog.Info("framebuffer mapped",
		"device", dev,
		"mode", fmt.Sprintf("%dx%d", vinfo.XRes, vinfo.YRes),
		"bpp", bpp,
		"stride", finfo.LineLength,
		"render", fmt.Sprintf("%dx%d", w, h),
	)

	return &Framebuffer{
		pix:    pix,
		w:      w,
		h:      h,
		stride: int(finfo.LineLength),
		bpp:    bpp,
		fd:     fd,
	}, nil
}

func ioctlPtr(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (fb *Framebuffer) PixelBase(y int) []byte { return fb.pix[y*fb.stride:] }
func (fb *Framebuffer) Width() int             { return fb.w }
func (fb *Framebuffer) Height() int            { return fb.h }
func (fb *Framebuffer) BPP() int               { return fb.bpp }

// Close blanks the screen and releases the mapping.
func (fb *Framebuffer) Close() error {
	for i := range fb.pix {
		fb.pix[i] = 0
	}
	if err := unix.Munmap(fb.pix); err != nil {
		unix.Close(fb.fd)
		return err
	}
	return unix.Close(fb.fd)
}
