package ui

import (
	"image"
	"log/slog"
	"math"

	"github.com/gogpu/gg"

	"github.com/refboard/refboard/internal/engine"
	"github.com/refboard/refboard/internal/export"
)

const maxGridDots = 40000

// ImageSource resolves an item id from a draw list to its decoded image.
type ImageSource func(id string) image.Image

// Paint rasterizes a draw list into a width x height image. pixelScale maps
// the list's screen units to raster pixels (HiDPI).
func Paint(cmds []engine.DrawCommand, width, height int, pixelScale float64, images ImageSource) image.Image {
	dc := gg.NewContext(max(1, width), max(1, height))
	defer dc.Close()

	px := engine.Scale(pixelScale, pixelScale)
	for _, cmd := range cmds {
		switch cmd.Op {
		case "fill":
			if cmd.Rect == nil {
				continue
			}
			r := px.TransformRect(*cmd.Rect)
			dc.SetHexColor(cmd.Color)
			dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
			fill(dc, cmd.Op)

		case "grid":
			paintGrid(dc, cmd, float64(width), float64(height), pixelScale)

		case "image":
			img := images(cmd.ItemID)
			if img == nil || len(cmd.Transform) != 6 {
				continue
			}
			m := px.Multiply(engine.Matrix2D(cmd.Transform))
			local := engine.Rect{X: -cmd.ImageWidth / 2, Y: -cmd.ImageHeight / 2, Width: cmd.ImageWidth, Height: cmd.ImageHeight}
			export.DrawImage(dc, img, local, m)

		case "outline":
			if cmd.Rect == nil || len(cmd.Transform) != 6 {
				continue
			}
			m := px.Multiply(engine.Matrix2D(cmd.Transform))
			r := *cmd.Rect
			dc.SetHexColor(cmd.Color)
			dc.SetLineWidth(1.5 * pixelScale)
			for i, c := range []engine.Point{r.TopLeft(), r.TopRight(), r.BottomRight(), r.BottomLeft()} {
				p := m.Apply(c)
				if i == 0 {
					dc.MoveTo(p.X, p.Y)
				} else {
					dc.LineTo(p.X, p.Y)
				}
			}
			dc.ClosePath()
			if err := dc.Stroke(); err != nil {
				slog.Debug("paint outline", "error", err)
			}

		case "handle":
			if cmd.At == nil {
				continue
			}
			p := px.Apply(*cmd.At)
			dc.SetHexColor(cmd.Color)
			dc.DrawCircle(p.X, p.Y, cmd.Radius*pixelScale)
			fill(dc, cmd.Op)

		case "band":
			if cmd.Rect == nil {
				continue
			}
			r := px.TransformRect(*cmd.Rect)
			dc.SetHexColor(cmd.Color)
			dc.SetLineWidth(pixelScale)
			dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
			if err := dc.Stroke(); err != nil {
				slog.Debug("paint band", "error", err)
			}
		}
	}
	if err := dc.FlushGPU(); err != nil {
		slog.Debug("paint flush", "error", err)
	}
	return dc.Image()
}

func fill(dc *gg.Context, op string) {
	if err := dc.Fill(); err != nil {
		slog.Debug("paint", "op", op, "error", err)
	}
}

func paintGrid(dc *gg.Context, cmd engine.DrawCommand, width, height, pixelScale float64) {
	if cmd.At == nil || cmd.Spacing <= 0 {
		return
	}
	step := cmd.Spacing * pixelScale
	cols := int(width/step) + 2
	rows := int(height/step) + 2
	if cols*rows > maxGridDots {
		return
	}
	x0 := math.Mod(cmd.At.X*pixelScale, step)
	y0 := math.Mod(cmd.At.Y*pixelScale, step)
	if x0 < 0 {
		x0 += step
	}
	if y0 < 0 {
		y0 += step
	}
	radius := max(1, cmd.Radius*pixelScale)

	dc.SetHexColor(cmd.Color)
	for x := x0; x <= width; x += step {
		for y := y0; y <= height; y += step {
			dc.DrawCircle(x, y, radius)
		}
	}
	fill(dc, cmd.Op)
}
