package engine

import "github.com/refboard/refboard/internal/config"

// Viewport is the camera onto the scene: screen = scene*Zoom - Scroll.
type Viewport struct {
	Zoom   float64
	Scroll Point
	Width  float64
	Height float64

	minZoom float64
	maxZoom float64
}

// NewViewport returns a camera at zoom 1 with the scene origin at the center
// of an as yet zero-sized viewport.
func NewViewport(cfg config.InteractionConfig) *Viewport {
	v := &Viewport{Zoom: 1, minZoom: cfg.MinZoom, maxZoom: cfg.MaxZoom}
	if v.minZoom <= 0 {
		v.minZoom = 0.02
	}
	if v.maxZoom < v.minZoom {
		v.maxZoom = v.minZoom
	}
	return v
}

// Matrix maps scene coordinates to screen coordinates.
func (v *Viewport) Matrix() Matrix2D {
	return ViewTransform(v.Zoom, v.Scroll)
}

func (v *Viewport) ScreenToScene(p Point) Point {
	return p.Add(v.Scroll).Mul(1 / v.Zoom)
}

func (v *Viewport) SceneToScreen(p Point) Point {
	return p.Mul(v.Zoom).Sub(v.Scroll)
}

// Pan moves the camera so content follows a screen-space pointer delta 1:1.
func (v *Viewport) Pan(delta Point) {
	v.Scroll = v.Scroll.Sub(delta)
}

// ZoomAt multiplies the zoom by factor, clamped to the configured range,
// keeping the scene point under screenPoint fixed on screen. It reports
// whether the zoom changed.
func (v *Viewport) ZoomAt(factor float64, screenPoint Point) bool {
	if !(factor > 0) {
		return false
	}
	newZoom := min(max(v.Zoom*factor, v.minZoom), v.maxZoom)
	if newZoom == v.Zoom {
		return false
	}
	scenePoint := v.ScreenToScene(screenPoint)
	v.Zoom = newZoom
	v.Scroll = scenePoint.Mul(newZoom).Sub(screenPoint)
	return true
}

// Resize changes the viewport size keeping the scene point at the center fixed.
func (v *Viewport) Resize(width, height float64) {
	c := v.Center()
	v.Width, v.Height = width, height
	v.CenterOn(c)
}

// Center returns the scene point at the center of the viewport.
func (v *Viewport) Center() Point {
	return v.ScreenToScene(Pt(v.Width/2, v.Height/2))
}

func (v *Viewport) CenterOn(scenePoint Point) {
	v.Scroll = scenePoint.Mul(v.Zoom).Sub(Pt(v.Width/2, v.Height/2))
}

// VisibleRect is the scene rect currently on screen.
func (v *Viewport) VisibleRect() Rect {
	return RectFromPoints(v.ScreenToScene(Pt(0, 0)), v.ScreenToScene(Pt(v.Width, v.Height)))
}

// FitRect zooms and scrolls so r fills the viewport with margin screen pixels
// to spare on each side.
func (v *Viewport) FitRect(r Rect, margin float64) {
	if r.IsEmpty() || v.Width <= 2*margin || v.Height <= 2*margin {
		return
	}
	zoom := min((v.Width-2*margin)/r.Width, (v.Height-2*margin)/r.Height)
	v.Zoom = min(max(zoom, v.minZoom), v.maxZoom)
	v.CenterOn(r.Center())
}
