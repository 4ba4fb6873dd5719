// Package asset validates and decodes the raster payloads that become board items.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned for a zero-length payload.
var ErrEmpty = errors.New("empty image payload")

// DecodeError reports bytes that do not form a supported raster image.
type DecodeError struct {
	Format string // detected format, empty if unknown
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s image: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Info describes a successfully decoded payload.
type Info struct {
	Width  int
	Height int
	Format string
}

// Probe validates data as a complete, supported raster and returns its size.
// The whole image is decoded, so truncated files are rejected too.
func Probe(data []byte) (Info, error) {
	_, info, err := Decode(data)
	return info, err
}

// Decode decodes data into an image.
func Decode(data []byte) (image.Image, Info, error) {
	if len(data) == 0 {
		return nil, Info{}, &DecodeError{Err: ErrEmpty}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, Info{}, &DecodeError{Format: format, Err: fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, &DecodeError{Format: format, Err: err}
	}

	bounds := img.Bounds()
	return img, Info{Width: bounds.Dx(), Height: bounds.Dy(), Format: format}, nil
}

// EncodePNG encodes an already rasterized image (e.g. a clipboard bitmap)
// into PNG bytes suitable for storing on the board.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &DecodeError{Format: "png", Err: ErrEmpty}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
