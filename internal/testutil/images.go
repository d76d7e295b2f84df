package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Gradient returns a w x h RGBA image with a deterministic gradient seeded by
// seed, so different seeds produce different content hashes.
func Gradient(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x*255/max(w, 1)) + seed,
				G: uint8(y*255/max(h, 1)) ^ seed,
				B: seed,
				A: 255,
			})
		}
	}
	return img
}

// Pattern returns a w x h image of an 8x8 checkerboard with a disc in the
// middle, which has the mid-frequency structure perceptual hashes key on.
func Pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	cx, cy, r := w/2, h/2, min(w, h)/4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 40, G: 40, B: 40, A: 255}
			if (x*8/max(w, 1)+y*8/max(h, 1))%2 == 0 {
				c = color.RGBA{R: 220, G: 220, B: 220, A: 255}
			}
			if dx, dy := x-cx, y-cy; dx*dx+dy*dy <= r*r {
				c = color.RGBA{R: 200, G: 30, B: 30, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// EncodeJPEG encodes img as JPEG at quality 90.
func EncodeJPEG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// EncodePNG encodes img as PNG.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEGBytes encodes a gradient image as JPEG.
func JPEGBytes(t testing.TB, w, h int, seed uint8) []byte {
	t.Helper()
	return EncodeJPEG(t, Gradient(w, h, seed))
}

// PNGBytes encodes a gradient image as PNG.
func PNGBytes(t testing.TB, w, h int, seed uint8) []byte {
	t.Helper()
	return EncodePNG(t, Gradient(w, h, seed))
}

// WithOrientation inserts an EXIF APP1 segment declaring the given
// orientation tag value right after the JPEG SOI marker.
func WithOrientation(t testing.TB, jpegData []byte, orientation uint16) []byte {
	t.Helper()
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		t.Fatalf("not a JPEG stream")
	}

	var tiff bytes.Buffer
	tiff.WriteString("MM\x00\x2A")
	_ = binary.Write(&tiff, binary.BigEndian, uint32(8))
	_ = binary.Write(&tiff, binary.BigEndian, uint16(1))      // entry count
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0x0112)) // orientation tag
	_ = binary.Write(&tiff, binary.BigEndian, uint16(3))      // SHORT
	_ = binary.Write(&tiff, binary.BigEndian, uint32(1))
	_ = binary.Write(&tiff, binary.BigEndian, orientation)
	_ = binary.Write(&tiff, binary.BigEndian, uint16(0))
	_ = binary.Write(&tiff, binary.BigEndian, uint32(0)) // next IFD

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes()
}

// WriteFile writes data under dir, creating parent directories.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteJPEG writes a generated JPEG under dir and returns its path.
func WriteJPEG(t testing.TB, dir, name string, w, h int, seed uint8) string {
	t.Helper()
	return WriteFile(t, dir, name, JPEGBytes(t, w, h, seed))
}
