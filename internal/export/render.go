// Package export renders boards to PNG and PDF.
package export

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/document"
	"github.com/refboard/refboard/internal/engine"
)

var ErrEmptyBoard = errors.New("board has no images")

const (
	minGridSpacing = 8      // output pixels
	maxGridDots    = 200000 // per export
)

// Options controls the output raster.
type Options struct {
	PixelScale float64 // output pixels per scene unit
	Padding    float64 // scene units around the images
	MaxDim     int     // longest output side in pixels; PixelScale shrinks to fit
}

func DefaultOptions() Options {
	return Options{PixelScale: 1, Padding: 40, MaxDim: 8192}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if !(o.PixelScale > 0) {
		o.PixelScale = d.PixelScale
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.MaxDim <= 0 {
		o.MaxDim = d.MaxDim
	}
	return o
}

type placed struct {
	img   image.Image
	rec   document.Image
	local engine.Rect
}

// Render draws the background, dot grid and every image onto a raster
// cropped to the images' bounds plus padding. Images whose bytes do not
// decode are skipped with a warning.
func Render(images []document.Image, display config.DisplayConfig, opts Options) (image.Image, error) {
	dc, err := render(images, display, opts)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// RenderPNG renders the board and writes it as PNG.
func RenderPNG(w io.Writer, images []document.Image, display config.DisplayConfig, opts Options) error {
	dc, err := render(images, display, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func render(images []document.Image, display config.DisplayConfig, opts Options) (*gg.Context, error) {
	opts = opts.withDefaults()

	items := make([]placed, 0, len(images))
	var extent engine.Rect
	for i, rec := range images {
		img, info, err := asset.Decode(rec.Data)
		if err != nil {
			slog.Warn("export skip image", "index", i, "error", err)
			continue
		}
		w, h := float64(info.Width), float64(info.Height)
		local := engine.Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h}
		bounds := engine.ItemTransform(engine.Pt(rec.X, rec.Y), rec.Scale, rec.Rotation).TransformRect(local)
		items = append(items, placed{img: img, rec: rec, local: local})
		extent = extent.Union(bounds)
	}
	if len(items) == 0 {
		return nil, ErrEmptyBoard
	}
	extent = extent.Adjusted(opts.Padding)

	scale := opts.PixelScale
	if longest := max(extent.Width, extent.Height) * scale; longest > float64(opts.MaxDim) {
		scale *= float64(opts.MaxDim) / longest
	}
	width := max(1, int(math.Ceil(extent.Width*scale)))
	height := max(1, int(math.Ceil(extent.Height*scale)))

	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.Hex(display.BackgroundColor))
	if err := drawGrid(dc, extent, scale, display); err != nil {
		dc.Close()
		return nil, err
	}

	// scene -> output pixels
	toOut := engine.Scale(scale, scale).Multiply(engine.Translate(-extent.X, -extent.Y))
	for _, it := range items {
		drawItem(dc, it, toOut)
	}
	// Pixels are read back by the callers.
	if err := dc.FlushGPU(); err != nil {
		dc.Close()
		return nil, fmt.Errorf("flush gpu: %w", err)
	}
	return dc, nil
}

func drawGrid(dc *gg.Context, extent engine.Rect, scale float64, display config.DisplayConfig) error {
	if !display.GridEnabled || display.GridSize <= 0 {
		return nil
	}
	step := display.GridSize
	if step*scale < minGridSpacing {
		return nil
	}
	cols := int(extent.Width/step) + 2
	rows := int(extent.Height/step) + 2
	if cols*rows > maxGridDots {
		slog.Debug("export grid too dense, skipped", "dots", cols*rows)
		return nil
	}

	x0 := math.Floor(extent.X/step) * step
	y0 := math.Floor(extent.Y/step) * step
	radius := max(1, scale)

	dc.SetHexColor(display.GridColor)
	for gx := x0; gx <= extent.X+extent.Width; gx += step {
		for gy := y0; gy <= extent.Y+extent.Height; gy += step {
			dc.DrawCircle((gx-extent.X)*scale, (gy-extent.Y)*scale, radius)
		}
	}
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("draw grid: %w", err)
	}
	return nil
}

func drawItem(dc *gg.Context, it placed, toOut engine.Matrix2D) {
	m := toOut.Multiply(engine.ItemTransform(engine.Pt(it.rec.X, it.rec.Y), it.rec.Scale, it.rec.Rotation))
	DrawImage(dc, it.img, it.local, m)
}

// DrawImage places img, whose pixels span the rect local, onto dc through m
// (local to output pixels). Rotated or sheared placements are resampled
// into an upright raster first because gg draws images axis-aligned.
func DrawImage(dc *gg.Context, img image.Image, local engine.Rect, m engine.Matrix2D) {
	box := m.TransformRect(local)
	if box.IsEmpty() {
		return
	}
	src := img
	if math.Abs(m[1]) > 1e-12 || math.Abs(m[2]) > 1e-12 {
		src = resample(img, local, m, box)
	}
	dc.DrawImageEx(gg.ImageBufFromImage(src), gg.DrawImageOptions{
		X:             box.X,
		Y:             box.Y,
		DstWidth:      box.Width,
		DstHeight:     box.Height,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
	})
}

func resample(img image.Image, local engine.Rect, m engine.Matrix2D, box engine.Rect) image.Image {
	w := max(1, int(math.Ceil(box.Width)))
	h := max(1, int(math.Ceil(box.Height)))
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	b := img.Bounds()
	// source pixel -> local -> output -> box
	t := engine.Translate(-box.X, -box.Y).
		Multiply(m).
		Multiply(engine.Translate(local.X-float64(b.Min.X), local.Y-float64(b.Min.Y)))

	aff := f64.Aff3{t[0], t[2], t[4], t[1], t[3], t[5]}
	draw.BiLinear.Transform(out, aff, img, b, draw.Over, nil)
	return out
}
