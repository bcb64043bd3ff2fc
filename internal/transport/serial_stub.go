//go:build !linux

package transport

import (
	"errors"
	"os"
)

// ErrNoSerial indicates serial input is not available in this build.
var ErrNoSerial = errors.New("serial devices not supported on this platform")

// OpenSerial is unavailable off Linux; callers fall back to generated
// data.
func OpenSerial(dev string) (*os.File, error) {
	return nil, ErrNoSerial
}
