package surface

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestDumpPPM32bpp(t *testing.T) {
	mem, err := NewMemory(2, 2, 32)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	binary.LittleEndian.PutUint32(mem.PixelBase(0)[0:], 0xFFFF0000) // red
	binary.LittleEndian.PutUint32(mem.PixelBase(0)[4:], 0xFF00FF00) // green
	binary.LittleEndian.PutUint32(mem.PixelBase(1)[0:], 0xFF0000FF) // blue
	binary.LittleEndian.PutUint32(mem.PixelBase(1)[4:], 0xFF102030)

	path := filepath.Join(t.TempDir(), "out.ppm")
	if err := DumpPPM(mem, path); err != nil {
		t.Fatalf("DumpPPM: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	wantHeader := []byte("P6\n2 2\n255\n")
	if !bytes.HasPrefix(data, wantHeader) {
		t.Fatalf("header = %q", data[:len(wantHeader)])
	}

	body := data[len(wantHeader):]
	want := []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 0x10, 0x20, 0x30,
	}
	if !bytes.Equal(body, want) {
		t.Errorf("body = % x, want % x", body, want)
	}
}

func TestDumpPPM16bpp(t *testing.T) {
	mem, err := NewMemory(1, 1, 16)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	// Full-scale 5-6-5 white expands back to 255,255,255.
	binary.LittleEndian.PutUint16(mem.PixelBase(0), 0xFFFF)

	path := filepath.Join(t.TempDir(), "out.ppm")
	if err := DumpPPM(mem, path); err != nil {
		t.Fatalf("DumpPPM: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	body := data[len("P6\n1 1\n255\n"):]
	if len(body) != 3 || body[0] != 255 || body[1] != 255 || body[2] != 255 {
		t.Errorf("body = % x, want ff ff ff", body)
	}
}

func TestNewMemoryRejectsBadDepth(t *testing.T) {
	if _, err := NewMemory(8, 8, 24); err == nil {
		t.Error("24bpp should be rejected")
	}
}
