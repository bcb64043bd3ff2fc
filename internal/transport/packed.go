package transport

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/png" // packed scenes usually travel as PNG
	"io"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp" // and occasionally as BMP
	xdraw "golang.org/x/image/draw"

	"github.com/cwbudde/gsplat/internal/splat"
)

// Packed-image format: a width x height RGB image read as a raw byte
// stream in row-major RGB order.
//
//	bytes 0-1   splat count, uint16 little-endian
//	bytes 2-17  reserved
//	then 18 bytes per splat starting at offset 18:
//	  0-5   X, Y, Z as int16 LE, s7.8
//	  6-11  cov[0..5] as u0.8
//	  12-15 R, G, B, alpha
//	  16-17 reserved
const packedRecordBytes = 18

// LoadPacked reads a packed scene from an image file into the store.
func LoadPacked(path string, st *splat.Store) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("packed: %w", err)
	}
	defer f.Close()
	return DecodePacked(f, st)
}

// DecodePacked decodes any registered image format and interprets its
// RGB bytes as a packed splat stream.
func DecodePacked(r io.Reader, st *splat.Store) (int, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("packed: decode image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// Flatten to NRGBA once, then walk the RGB bytes.
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.Copy(nrgba, image.Point{}, img, b, xdraw.Src, nil)
	}

	stream := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < w; x++ {
			stream = append(stream, row[x*4], row[x*4+1], row[x*4+2])
		}
	}

	return decodePackedStream(stream, w, h, st)
}

func decodePackedStream(p []byte, w, h int, st *splat.Store) (int, error) {
	if len(p) < packedRecordBytes {
		return 0, fmt.Errorf("packed: image too small: %dx%d", w, h)
	}

	count := int(binary.LittleEndian.Uint16(p))

	maxSplats := (len(p) - packedRecordBytes) / packedRecordBytes
	if count > maxSplats {
		count = maxSplats
	}
	if count > st.Cap() {
		count = st.Cap()
	}

	slog.Debug("packed scene header", "image", fmt.Sprintf("%dx%d", w, h), "splats", count)
	st.Clear()

	for i := 0; i < count; i++ {
		sp := p[packedRecordBytes+i*packedRecordBytes:]

		var s splat.Splat3D
		s.X = float32(int16(binary.LittleEndian.Uint16(sp[0:]))) / 256.0
		s.Y = float32(int16(binary.LittleEndian.Uint16(sp[2:]))) / 256.0
		s.Z = float32(int16(binary.LittleEndian.Uint16(sp[4:]))) / 256.0

		for j := 0; j < 6; j++ {
			s.Cov[j] = float32(sp[6+j]) / 256.0
		}

		s.R = sp[12]
		s.G = sp[13]
		s.B = sp[14]
		s.Alpha = sp[15]

		if err := st.Append(s); err != nil {
			return 0, fmt.Errorf("packed: splat %d: %w", i, err)
		}
	}

	slog.Info("packed scene loaded", "splats", st.Len())
	return st.Len(), nil
}

// EncodePacked builds the packed in-image representation of a scene,
// for producing test inputs and round-trip checks. The image is sized
// just large enough for the payload, rounded to whole rows of the given
// width.
func EncodePacked(splats []splat.Splat3D, width int) *image.NRGBA {
	payload := packedRecordBytes + len(splats)*packedRecordBytes

	rows := (payload + width*3 - 1) / (width * 3)
	img := image.NewNRGBA(image.Rect(0, 0, width, rows))

	stream := make([]byte, payload)
	binary.LittleEndian.PutUint16(stream, uint16(len(splats)))

	for i := range splats {
		s := &splats[i]
		sp := stream[packedRecordBytes+i*packedRecordBytes:]
		binary.LittleEndian.PutUint16(sp[0:], uint16(int16(s.X*256)))
		binary.LittleEndian.PutUint16(sp[2:], uint16(int16(s.Y*256)))
		binary.LittleEndian.PutUint16(sp[4:], uint16(int16(s.Z*256)))
		for j := 0; j < 6; j++ {
			v := s.Cov[j] * 256
			if v > 255 {
				v = 255
			}
			if v < 0 {
				v = 0
			}
			sp[6+j] = uint8(v)
		}
		sp[12], sp[13], sp[14], sp[15] = s.R, s.G, s.B, s.Alpha
	}

	// Spread the stream over the image's RGB bytes; alpha stays opaque.
	k := 0
	for y := 0; y < rows && k < len(stream); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width && k < len(stream); x++ {
			for c := 0; c < 3 && k < len(stream); c++ {
				row[x*4+c] = stream[k]
				k++
			}
			row[x*4+3] = 255
		}
	}
	return img
}
