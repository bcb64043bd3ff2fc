//go:build linux

package transport

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// OpenSerial opens a serial device raw at 115200 8N1 with a 500ms read
// timeout, the settings the splat source transmits with.
func OpenSerial(dev string) (*os.File, error) {
	fd, err := unix.Open(dev, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}

	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tcgetattr %s: %w", dev, err)
	}

	// Raw mode, matching cfmakeraw.
	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	tio.Oflag &^= unix.OPOST
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL | unix.B115200
	tio.Ispeed = unix.B115200
	tio.Ospeed = unix.B115200
	tio.Cc[unix.VMIN] = 0
	tio.Cc[unix.VTIME] = 5 // deciseconds

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tcsetattr %s: %w", dev, err)
	}
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tcflush %s: %w", dev, err)
	}

	slog.Info("serial device opened", "device", dev, "baud", 115200)
	return os.NewFile(uintptr(fd), dev), nil
}
