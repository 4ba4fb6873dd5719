package engine

import (
	"encoding/json"
	"math"

	"github.com/refboard/refboard/internal/config"
)

const (
	selectionColor = "#4da3ff"
	handleRadius   = 5 // screen pixels
	minGridSpacing = 6 // screen pixels; denser grids are not drawn
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// All coordinates are in viewport (screen) pixels, back to front.
type DrawCommand struct {
	Op          string    `json:"op"`                    // "fill", "grid", "image", "outline", "handle", "band"
	ItemID      string    `json:"itemId,omitempty"`      // For hit correlation and image lookup
	Transform   []float64 `json:"transform,omitempty"`   // [a, b, c, d, e, f] item-local to screen
	Rect        *Rect     `json:"rect,omitempty"`        // "fill", "band": screen rect; "outline": item-local rect
	At          *Point    `json:"at,omitempty"`          // "grid": screen position of one grid point; "handle": center
	Color       string    `json:"color,omitempty"`       // Fill or stroke color
	Spacing     float64   `json:"spacing,omitempty"`     // "grid": distance between dots
	Radius      float64   `json:"radius,omitempty"`      // "grid" dots and "handle" circles
	ImageWidth  float64   `json:"imageWidth,omitempty"`  // Image natural width
	ImageHeight float64   `json:"imageHeight,omitempty"` // Image natural height
}

// CompileDrawCommands generates a draw command buffer for the visible board.
// bands are active rubber-band selections in scene coordinates, drawn last.
func CompileDrawCommands(scene *Scene, view *Viewport, display config.DisplayConfig, bands ...Rect) []DrawCommand {
	screen := Rect{Width: view.Width, Height: view.Height}
	commands := []DrawCommand{{Op: "fill", Rect: &screen, Color: display.BackgroundColor}}

	if grid, ok := compileGrid(view, display); ok {
		commands = append(commands, grid)
	}

	vm := view.Matrix()
	visible := view.VisibleRect()
	for _, it := range scene.items {
		if view.Width > 0 && view.Height > 0 && !intersects(it.SceneBounds(), visible) {
			continue
		}
		w, h := it.Size()
		commands = append(commands, DrawCommand{
			Op:          "image",
			ItemID:      string(it.handle),
			Transform:   vm.Multiply(it.Transform()).ToSlice(),
			ImageWidth:  float64(w),
			ImageHeight: float64(h),
		})
	}

	for _, it := range scene.SelectedItems() {
		m := vm.Multiply(it.Transform())
		local := it.LocalBounds()
		commands = append(commands, DrawCommand{
			Op:        "outline",
			ItemID:    string(it.handle),
			Transform: m.ToSlice(),
			Rect:      &local,
			Color:     selectionColor,
		})
		for _, corner := range rectCorners {
			at := m.Apply(local.Corner(corner))
			commands = append(commands, DrawCommand{
				Op:     "handle",
				ItemID: string(it.handle),
				At:     &at,
				Color:  selectionColor,
				Radius: handleRadius,
			})
		}
	}

	for _, b := range bands {
		r := vm.TransformRect(b)
		commands = append(commands, DrawCommand{Op: "band", Rect: &r, Color: selectionColor})
	}

	return commands
}

// compileGrid describes the dot grid as one origin dot plus a spacing; the
// frontend repeats it across the viewport.
func compileGrid(view *Viewport, display config.DisplayConfig) (DrawCommand, bool) {
	if !display.GridEnabled || display.GridSize <= 0 {
		return DrawCommand{}, false
	}
	spacing := display.GridSize * view.Zoom
	if spacing < minGridSpacing {
		return DrawCommand{}, false
	}
	tl := view.ScreenToScene(Pt(0, 0))
	first := Pt(
		math.Floor(tl.X/display.GridSize)*display.GridSize,
		math.Floor(tl.Y/display.GridSize)*display.GridSize,
	)
	at := view.SceneToScreen(first)
	return DrawCommand{
		Op:      "grid",
		At:      &at,
		Color:   display.GridColor,
		Spacing: spacing,
		Radius:  1,
	}, true
}

func intersects(a, b Rect) bool {
	return a.X <= b.X+b.Width && b.X <= a.X+a.Width && a.Y <= b.Y+b.Height && b.Y <= a.Y+a.Height
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
