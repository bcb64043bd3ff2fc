//go:build !linux

package offload

import (
	"errors"
	"time"

	"github.com/cwbudde/gsplat/internal/splat"
)

// ErrNoDevice indicates the accelerator handoff is not available in this
// build.
var ErrNoDevice = errors.New("offload: accelerator not supported on this platform")

// DefaultTimeout bounds the request/poll handshake for one frame.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when the fabric does not raise the done flag in
// time.
var ErrTimeout = errors.New("offload: frame timeout")

// Device is unavailable off Linux.
type Device struct {
	Timeout time.Duration
}

func Open() (*Device, error) { return nil, ErrNoDevice }

func (d *Device) Close() error { return nil }

func (d *Device) Render(st *splat.Store, width, height int) error { return ErrNoDevice }

func (d *Device) Frames() uint32 { return 0 }
