package document

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

type sampleTile struct {
	x, y, scale float64
	w, h        int
	fill        color.RGBA
}

var sampleTiles = []sampleTile{
	{x: 0, y: 0, scale: 1, w: 320, h: 200, fill: color.RGBA{0xe0, 0x6c, 0x4c, 0xff}},
	{x: 360, y: 40, scale: 0.5, w: 400, h: 400, fill: color.RGBA{0x4c, 0x9a, 0xe0, 0xff}},
	{x: 120, y: 260, scale: 2, w: 120, h: 80, fill: color.RGBA{0x7a, 0xc0, 0x5a, 0xff}},
}

// NewSampleBoard returns a small board of generated PNG tiles, used for demos
// and for seeding empty rooms during development.
func NewSampleBoard() ([]Image, error) {
	images := make([]Image, 0, len(sampleTiles))
	for _, t := range sampleTiles {
		data, err := tilePNG(t.w, t.h, t.fill)
		if err != nil {
			return nil, err
		}
		images = append(images, Image{X: t.x, Y: t.y, Scale: t.scale, Data: data})
	}
	return images, nil
}

// tilePNG draws a filled tile with a one-pixel darker border.
func tilePNG(w, h int, fill color.RGBA) ([]byte, error) {
	border := color.RGBA{fill.R / 2, fill.G / 2, fill.B / 2, 0xff}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				img.SetRGBA(x, y, border)
			} else {
				img.SetRGBA(x, y, fill)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
