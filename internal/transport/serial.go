package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/gsplat/internal/splat"
)

// Serial frame format:
//
//	sync word 0x3FFFF
//	16-bit splat count
//	count records of 11 words each:
//	  X, Y, Z            s1.16
//	  COV[0..5]          u0.18
//	  RGB packed         R[17:12] G[11:6] B[5:0], 6 bits per channel
//	  ALPHA              low 8 bits
//
// Stream errors are non-fatal to the driver, which falls back to
// generated data.

const (
	wordsPerSplat = 11
	recordBytes   = wordsPerSplat * wordBytes

	// How many words to scan before giving up on synchronization.
	maxSyncAttempts = 1000
)

var (
	// ErrNoSync means no sync word was seen within the scan budget.
	ErrNoSync = errors.New("serial: no sync word")
	// ErrBadCount means the frame header advertised an implausible
	// splat count.
	ErrBadCount = errors.New("serial: implausible splat count")
)

func readExact(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("serial: short read: %w", err)
	}
	return nil
}

// ReadSplats hunts for a sync word, then decodes one frame of splats
// into the store (replacing its contents). Returns the number received.
func ReadSplats(r io.Reader, st *splat.Store) (int, error) {
	var buf [recordBytes]byte

	// Hunt for sync.
	attempts := 0
	for {
		if err := readExact(r, buf[:wordBytes]); err != nil {
			return 0, err
		}
		if unpack18(buf[:wordBytes]) == SyncWord {
			break
		}
		attempts++
		if attempts >= maxSyncAttempts {
			return 0, ErrNoSync
		}
	}

	if err := readExact(r, buf[:wordBytes]); err != nil {
		return 0, err
	}
	count := int(unpack18(buf[:wordBytes]) & 0xFFFF)
	if count <= 0 || count > st.Cap() {
		return 0, fmt.Errorf("%w: %d", ErrBadCount, count)
	}

	slog.Debug("serial frame header", "splats", count)
	st.Clear()

	for i := 0; i < count; i++ {
		if err := readExact(r, buf[:]); err != nil {
			return 0, fmt.Errorf("serial: splat %d: %w", i, err)
		}

		var s splat.Splat3D
		s.X = s116ToFloat(unpack18(buf[0:]))
		s.Y = s116ToFloat(unpack18(buf[3:]))
		s.Z = s116ToFloat(unpack18(buf[6:]))

		for j := 0; j < 6; j++ {
			s.Cov[j] = u018ToFloat(unpack18(buf[9+j*3:]))
		}

		rgb := unpack18(buf[27:])
		s.R = expand6(uint8(rgb >> 12 & 0x3F))
		s.G = expand6(uint8(rgb >> 6 & 0x3F))
		s.B = expand6(uint8(rgb & 0x3F))
		s.Alpha = uint8(unpack18(buf[30:]) & 0xFF)

		if err := st.Append(s); err != nil {
			return 0, fmt.Errorf("serial: splat %d: %w", i, err)
		}
	}

	slog.Info("serial frame received", "splats", count)
	return count, nil
}

// WriteSplats encodes one frame in the serial format. Colors are
// truncated to their 6-bit wire channels; positions and covariances
// round to s1.16 / u0.18.
func WriteSplats(w io.Writer, splats []splat.Splat3D) error {
	var buf [recordBytes]byte

	pack18(buf[:], SyncWord)
	pack18(buf[3:], uint32(len(splats))&0xFFFF)
	if _, err := w.Write(buf[:2*wordBytes]); err != nil {
		return fmt.Errorf("serial: write header: %w", err)
	}

	for i := range splats {
		s := &splats[i]
		pack18(buf[0:], floatToS116(s.X))
		pack18(buf[3:], floatToS116(s.Y))
		pack18(buf[6:], floatToS116(s.Z))
		for j := 0; j < 6; j++ {
			pack18(buf[9+j*3:], floatToU018(s.Cov[j]))
		}
		rgb := uint32(s.R>>2)<<12 | uint32(s.G>>2)<<6 | uint32(s.B>>2)
		pack18(buf[27:], rgb)
		pack18(buf[30:], uint32(s.Alpha))

		if _, err := w.Write(buf[:]); err != nil {
			return fmt.Errorf("serial: write splat %d: %w", i, err)
		}
	}
	return nil
}
