package asset

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: 90, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantFormat string
		wantW      int
		wantH      int
	}{
		{"png", pngBytes(t, 12, 7), "png", 12, 7},
		{"jpeg", jpegBytes(t, 16, 9), "jpeg", 16, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Probe(tt.data)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if info.Format != tt.wantFormat || info.Width != tt.wantW || info.Height != tt.wantH {
				t.Errorf("Probe() = %+v, want %s %dx%d", info, tt.wantFormat, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProbeRejects(t *testing.T) {
	full := pngBytes(t, 32, 32)
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"truncated png", full[:len(full)/2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Probe(tt.data)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("Probe() error = %v, want *DecodeError", err)
			}
		})
	}
}

func TestProbeEmptyIsErrEmpty(t *testing.T) {
	_, err := Probe([]byte{})
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Probe(empty) = %v, want ErrEmpty", err)
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(testImage(5, 4))
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	info, err := Probe(data)
	if err != nil {
		t.Fatalf("Probe(encoded) error = %v", err)
	}
	if info.Format != "png" || info.Width != 5 || info.Height != 4 {
		t.Errorf("round trip info = %+v", info)
	}

	if _, err := EncodePNG(nil); err == nil {
		t.Error("EncodePNG(nil) succeeded, want error")
	}
}
