package surface

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// Reader is the read side a dump needs; every surface in this package
// satisfies it.
type Reader interface {
	PixelBase(y int) []byte
	Width() int
	Height() int
	BPP() int
}

// DumpPPM writes the surface as a binary P6 portable pixmap, expanding
// 5-6-5 surfaces back to 8-bit channels. Used for headless debugging.
func DumpPPM(src Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ppm: %w", err)
	}
	defer f.Close()

	w := src.Width()
	h := src.Height()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", w, h)

	rgb := make([]byte, 3)
	for y := 0; y < h; y++ {
		row := src.PixelBase(y)
		if src.BPP() == 32 {
			for x := 0; x < w; x++ {
				p := binary.LittleEndian.Uint32(row[x*4:])
				rgb[0] = byte(p >> 16)
				rgb[1] = byte(p >> 8)
				rgb[2] = byte(p)
				bw.Write(rgb)
			}
		} else {
			for x := 0; x < w; x++ {
				p := binary.LittleEndian.Uint16(row[x*2:])
				rgb[0] = byte((p >> 11 & 0x1F) * 255 / 31)
				rgb[1] = byte((p >> 5 & 0x3F) * 255 / 63)
				rgb[2] = byte((p & 0x1F) * 255 / 31)
				bw.Write(rgb)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write ppm: %w", err)
	}
	return nil
}
