//go:build linux

package offload

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/cwbudde/gsplat/internal/splat"
)

// Shared-memory map. The fabric scans the surface out of the window at
// fbBase; the driver builds descriptors after the 256-byte control page.
const (
	fbBase   = 0x30000000
	ctrlBase = 0x30400000
	descOff  = 0x100
	descBase = ctrlBase + descOff

	ctrlMapSize = 0x1000
	descSize    = 30 * 1024 * 1024

	pollInterval = 10 * time.Millisecond
)

// DefaultTimeout bounds the request/poll handshake for one frame.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when the fabric does not raise the done flag in
// time. Non-fatal: the driver is expected to render the next frame on
// the CPU.
var ErrTimeout = errors.New("offload: frame timeout")

// Device is the memory-mapped accelerator handoff.
type Device struct {
	memFd    int
	ctrlMap  []byte
	descMap  []byte
	ctrl     []uint32
	desc     []byte
	Timeout  time.Duration
	frameSeq uint32
}

// Open maps the control block and descriptor window from /dev/mem.
// Failure here is a configuration error.
func Open() (*Device, error) {
	fd, err := unix.Open("/dev/mem", unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("offload: open /dev/mem: %w", err)
	}

	ctrlMap, err := unix.Mmap(fd, ctrlBase, ctrlMapSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("offload: mmap control block: %w", err)
	}

	descMap, err := unix.Mmap(fd, ctrlBase, descSize+descOff,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Munmap(ctrlMap)
		unix.Close(fd)
		return nil, fmt.Errorf("offload: mmap descriptor window: %w", err)
	}

	d := &Device{
		memFd:   fd,
		ctrlMap: ctrlMap,
		descMap: descMap,
		ctrl:    unsafe.Slice((*uint32)(unsafe.Pointer(&ctrlMap[0])), 4),
		desc:    descMap[descOff:],
		Timeout: DefaultTimeout,
	}

	d.ctrl[CtrlFirstDesc] = 0
	d.ctrl[CtrlRequest] = 0
	d.ctrl[CtrlDone] = 0
	d.ctrl[CtrlFrame] = 0

	slog.Info("offload device mapped",
		"ctrl", fmt.Sprintf("0x%08x", ctrlBase),
		"desc", fmt.Sprintf("0x%08x", descBase),
		"desc_size", descSize,
	)
	return d, nil
}

// Close releases the shared-memory mappings.
func (d *Device) Close() error {
	err := unix.Munmap(d.descMap)
	if e := unix.Munmap(d.ctrlMap); err == nil {
		err = e
	}
	if e := unix.Close(d.memFd); err == nil {
		err = e
	}
	return err
}

// Render builds the frame's descriptors, raises the request flag and
// polls for completion. On ErrTimeout the caller should fall back to CPU
// rendering for the next frame.
func (d *Device) Render(st *splat.Store, width, height int) error {
	first, used, err := Build(d.desc, descBase, fbBase, st, width, height)
	if err != nil {
		return err
	}
	slog.Debug("offload descriptors built", "bytes", used, "first", first)

	d.ctrl[CtrlFirstDesc] = first
	d.ctrl[CtrlDone] = 0
	d.ctrl[CtrlRequest] = 1

	deadline := time.Now().Add(d.Timeout)
	for d.ctrl[CtrlDone] == 0 {
		if time.Now().After(deadline) {
			slog.Warn("offload frame timeout",
				"request", d.ctrl[CtrlRequest],
				"done", d.ctrl[CtrlDone],
				"frame", d.ctrl[CtrlFrame],
			)
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}

	d.frameSeq = d.ctrl[CtrlFrame]
	return nil
}

// Frames returns the fabric's frame counter after the last Render.
func (d *Device) Frames() uint32 { return d.frameSeq }
