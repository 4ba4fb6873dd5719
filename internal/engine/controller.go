package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/config"
)

// Mode is the controller's gesture state.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeGroupResizing
	ModeMoving
	ModeRubberBand
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePanning:
		return "panning"
	case ModeGroupResizing:
		return "resizing"
	case ModeMoving:
		return "moving"
	case ModeRubberBand:
		return "rubber-band"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Cursor is the pointer affordance a presentation layer should show.
type Cursor int

const (
	CursorArrow Cursor = iota
	CursorResizeFDiag // top-left / bottom-right
	CursorResizeBDiag // top-right / bottom-left
	CursorOpenHand
	CursorClosedHand
)

var cursorNames = [...]string{"arrow", "resize-fdiag", "resize-bdiag", "open-hand", "closed-hand"}

func (c Cursor) String() string {
	if c < 0 || int(c) >= len(cursorNames) {
		return "arrow"
	}
	return cursorNames[c]
}

func cornerCursor(c Corner) Cursor {
	switch c {
	case CornerTopLeft, CornerBottomRight:
		return CursorResizeFDiag
	case CornerTopRight, CornerBottomLeft:
		return CursorResizeBDiag
	}
	return CursorArrow
}

type itemSnapshot struct {
	scale float64
	pos   Point
}

// GestureSnapshot holds the pre-gesture transform of every item a gesture
// edits. It lives only as long as the gesture.
type GestureSnapshot map[Handle]itemSnapshot

// Controller turns raw input events into scene and viewport changes. Events
// must be delivered in order from a single goroutine.
type Controller struct {
	scene   *Scene
	view    *Viewport
	cfg     config.InteractionConfig
	workers int

	mode      Mode
	spaceHeld bool

	// armed corner under the pointer, valid while hoverItem is selected
	hover     Corner
	hoverItem Handle

	panStart   Point // screen
	pressScene Point
	anchor     Point
	inert      bool
	snapshot   GestureSnapshot

	// rubber band, scene coordinates; bandBase is the selection it adds to
	bandEnd  Point
	bandBase []Handle
}

func NewController(scene *Scene, view *Viewport, cfg config.InteractionConfig, importWorkers int) *Controller {
	if importWorkers <= 0 {
		importWorkers = 1
	}
	return &Controller{scene: scene, view: view, cfg: cfg, workers: importWorkers}
}

func (c *Controller) Mode() Mode { return c.mode }
func (c *Controller) SpaceHeld() bool { return c.spaceHeld }
func (c *Controller) HoverCorner() Corner { return c.armedCorner() }

// Anchor returns the fixed scene point of the active resize gesture.
func (c *Controller) Anchor() (Point, bool) {
	return c.anchor, c.mode == ModeGroupResizing
}

// RubberBand returns the scene rectangle of the active band selection.
func (c *Controller) RubberBand() (Rect, bool) {
	if c.mode != ModeRubberBand {
		return Rect{}, false
	}
	return RectFromPoints(c.pressScene, c.bandEnd), true
}

func (c *Controller) armedCorner() Corner {
	if c.hover == CornerNone || !c.scene.IsSelected(c.hoverItem) {
		return CornerNone
	}
	return c.hover
}

// Cursor reports the affordance for the current state.
func (c *Controller) Cursor() Cursor {
	switch c.mode {
	case ModePanning:
		return CursorClosedHand
	case ModeGroupResizing:
		return cornerCursor(c.hover)
	case ModeMoving, ModeRubberBand:
		return CursorArrow
	}
	if c.spaceHeld {
		return CursorOpenHand
	}
	return cornerCursor(c.armedCorner())
}

// cornerAt finds a selected item with a corner within the handle margin of
// the screen point. The margin is constant on screen, so it is converted into
// each item's local space. Topmost items win.
func (c *Controller) cornerAt(screen Point) (Handle, Corner) {
	p := c.view.ScreenToScene(screen)
	selected := c.scene.SelectedItems()
	for i := len(selected) - 1; i >= 0; i-- {
		it := selected[i]
		margin := c.cfg.HandleMargin / (it.scale * c.view.Zoom)
		local := it.MapFromScene(p)
		bounds := it.LocalBounds()
		for _, corner := range rectCorners {
			if local.Sub(bounds.Corner(corner)).ManhattanLength() < margin {
				return it.handle, corner
			}
		}
	}
	return "", CornerNone
}

// --- Pointer ---

func (c *Controller) PointerDown(ev PointerEvent) {
	if c.mode != ModeIdle {
		return
	}

	switch {
	case ev.Button == ButtonMiddle, ev.Button == ButtonLeft && c.spaceHeld:
		c.mode = ModePanning
		c.panStart = ev.Pos
		return
	case ev.Button != ButtonLeft:
		return
	}

	scenePos := c.view.ScreenToScene(ev.Pos)

	c.hoverItem, c.hover = c.cornerAt(ev.Pos)
	if c.armedCorner() != CornerNone {
		c.beginResize(scenePos)
		return
	}

	h, hit := c.scene.HitTest(scenePos)
	if !hit {
		if ev.Mods&ModShift == 0 {
			c.scene.ClearSelection()
		}
		c.beginBand(scenePos)
		return
	}

	if ev.Mods&ModShift != 0 {
		// Additive click flips only the clicked item.
		selected, err := c.scene.ToggleSelection(h)
		if err != nil || !selected {
			return
		}
	} else if !c.scene.IsSelected(h) {
		c.scene.SetSelection(h)
	}
	c.beginMove(scenePos)
}

func (c *Controller) PointerMove(ev PointerEvent) {
	switch c.mode {
	case ModeIdle:
		c.hoverItem, c.hover = c.cornerAt(ev.Pos)

	case ModePanning:
		delta := ev.Pos.Sub(c.panStart)
		c.panStart = ev.Pos
		c.view.Pan(delta)

	case ModeGroupResizing:
		if !ev.Buttons.Has(ButtonLeft) {
			c.finish()
			return
		}
		c.resizeTo(c.view.ScreenToScene(ev.Pos))

	case ModeMoving:
		if !ev.Buttons.Has(ButtonLeft) {
			c.finish()
			return
		}
		c.moveTo(c.view.ScreenToScene(ev.Pos))

	case ModeRubberBand:
		if !ev.Buttons.Has(ButtonLeft) {
			c.finish()
			return
		}
		c.bandTo(c.view.ScreenToScene(ev.Pos))
	}
}

func (c *Controller) PointerUp(ev PointerEvent) {
	switch c.mode {
	case ModePanning:
		c.mode = ModeIdle
	case ModeGroupResizing, ModeMoving, ModeRubberBand:
		if ev.Button == ButtonLeft {
			c.finish()
		}
	}
}

func (c *Controller) beginResize(scenePos Point) {
	group := c.scene.SelectedBoundsUnion()
	c.anchor = group.Corner(c.hover.Opposite())
	c.pressScene = scenePos
	c.snapshot = c.takeSnapshot()
	_, ok := AnchorRatio(c.anchor, scenePos, scenePos)
	c.inert = !ok
	c.mode = ModeGroupResizing
}

func (c *Controller) resizeTo(p Point) {
	if c.inert {
		return
	}
	r, ok := AnchorRatio(c.anchor, c.pressScene, p)
	if !ok {
		return
	}
	r = c.clampRatio(r)
	for h, snap := range c.snapshot {
		scale, pos := ScaleAboutAnchor(snap.scale, snap.pos, c.anchor, r)
		if err := c.scene.SetTransform(h, pos, scale); err != nil {
			slog.Debug("resize skipped item", "item", h, "error", err)
		}
	}
}

// clampRatio keeps every item of the gesture at or above MinScale while
// still applying one shared ratio.
func (c *Controller) clampRatio(r float64) float64 {
	smallest := math.Inf(1)
	for _, snap := range c.snapshot {
		smallest = min(smallest, snap.scale)
	}
	if smallest*r < MinScale {
		return MinScale / smallest
	}
	return r
}

func (c *Controller) beginMove(scenePos Point) {
	c.pressScene = scenePos
	c.snapshot = c.takeSnapshot()
	c.mode = ModeMoving
}

func (c *Controller) moveTo(p Point) {
	delta := p.Sub(c.pressScene)
	for h, snap := range c.snapshot {
		if err := c.scene.SetTransform(h, snap.pos.Add(delta), snap.scale); err != nil {
			slog.Debug("move skipped item", "item", h, "error", err)
		}
	}
}

// beginBand starts a band selection on empty canvas. The band adds to
// whatever is selected at the press, which a plain press has just cleared.
func (c *Controller) beginBand(scenePos Point) {
	c.pressScene = scenePos
	c.bandEnd = scenePos
	c.bandBase = c.scene.Selection()
	c.mode = ModeRubberBand
}

// bandTo selects the base selection plus every item the band touches.
func (c *Controller) bandTo(p Point) {
	c.bandEnd = p
	band := RectFromPoints(c.pressScene, p)
	sel := append([]Handle(nil), c.bandBase...)
	for _, it := range c.scene.items {
		if intersects(it.SceneBounds(), band) {
			sel = append(sel, it.handle)
		}
	}
	c.scene.SetSelection(sel...)
}

func (c *Controller) takeSnapshot() GestureSnapshot {
	snap := make(GestureSnapshot, c.scene.SelectionLen())
	for _, it := range c.scene.SelectedItems() {
		snap[it.handle] = itemSnapshot{scale: it.scale, pos: it.pos}
	}
	return snap
}

func (c *Controller) finish() {
	c.snapshot = nil
	c.bandBase = nil
	c.inert = false
	c.hover = CornerNone
	c.hoverItem = ""
	c.mode = ModeIdle
}

// Abort cancels the active gesture. A move or resize restores every item to
// its pre-gesture transform; a band selection restores the selection.
func (c *Controller) Abort() {
	switch c.mode {
	case ModeGroupResizing, ModeMoving:
		for h, snap := range c.snapshot {
			_ = c.scene.SetTransform(h, snap.pos, snap.scale)
		}
	case ModeRubberBand:
		c.scene.SetSelection(c.bandBase...)
	}
	c.finish()
}

// Reset drops any gesture state without touching items. Used when the scene
// contents are replaced underneath the controller.
func (c *Controller) Reset() {
	c.finish()
}

// --- Wheel and keys ---

// Wheel zooms the camera about the pointer, or with the accelerator held
// scales each selected item about its own origin.
func (c *Controller) Wheel(ev WheelEvent) {
	if ev.Delta == 0 {
		return
	}
	factor := math.Pow(c.cfg.ZoomStep, ev.Delta)

	if ev.Mods&ModCtrl != 0 {
		if c.mode == ModeIdle {
			c.scaleSelection(factor)
		}
		return
	}
	c.view.ZoomAt(factor, ev.Pos)
}

func (c *Controller) scaleSelection(factor float64) {
	for _, it := range c.scene.SelectedItems() {
		scale := max(it.scale*factor, MinScale)
		if err := c.scene.SetTransform(it.handle, it.pos, scale); err != nil {
			slog.Debug("scale skipped item", "item", it.handle, "error", err)
		}
	}
}

func (c *Controller) Key(ev KeyEvent) {
	switch ev.Key {
	case KeySpace:
		c.spaceHeld = ev.Down
	case KeyDelete, KeyBackspace:
		if ev.Down && !ev.Repeat {
			c.DeleteSelection()
		}
	case KeyEscape:
		if ev.Down {
			c.Abort()
		}
	}
}

// DeleteSelection removes every selected item and returns how many went.
func (c *Controller) DeleteSelection() int {
	if c.mode != ModeIdle && c.mode != ModePanning {
		c.finish()
	}
	return c.scene.Remove(c.scene.Selection()...)
}

// --- Ingestion ---

// Drop imports a drag-and-drop payload at the drop point.
func (c *Controller) Drop(ctx context.Context, ev DropEvent) ([]Handle, error) {
	return c.Ingest(ctx, ev.Payload, c.view.ScreenToScene(ev.Pos))
}

// Paste imports a clipboard payload at the center of the viewport.
func (c *Controller) Paste(ctx context.Context, p Payload) ([]Handle, error) {
	return c.Ingest(ctx, p, c.view.Center())
}

// Ingest creates one item per image in the payload. The first lands at the
// scene point at and each later one is offset by the cascade step. Items that
// fail to decode are skipped; their errors are joined into the result.
func (c *Controller) Ingest(ctx context.Context, p Payload, at Point) ([]Handle, error) {
	switch {
	case len(p.Data) > 0 || len(p.Images) > 0:
		return c.ingestRaster(p, at)
	case len(p.Paths) > 0:
		return c.ImportFiles(ctx, p.Paths, at)
	case p.Text != "":
		return c.ImportFiles(ctx, asset.PathsFromText(p.Text), at)
	}
	return nil, nil
}

func (c *Controller) ingestRaster(p Payload, at Point) ([]Handle, error) {
	var (
		handles []Handle
		errs    []error
		index   int
	)
	add := func(data []byte) {
		defer func() { index++ }()
		item, err := NewItemAt(data, c.cascade(at, index), 1, 0)
		if err != nil {
			slog.Warn("skip dropped image", "index", index, "error", err)
			errs = append(errs, err)
			return
		}
		handles = append(handles, c.scene.Add(item))
	}

	for _, data := range p.Data {
		add(data)
	}
	for _, img := range p.Images {
		data, err := asset.EncodePNG(img)
		if err != nil {
			slog.Warn("skip dropped bitmap", "index", index, "error", err)
			errs = append(errs, err)
			index++
			continue
		}
		add(data)
	}
	return handles, errors.Join(errs...)
}

// ImportFiles reads and decodes paths in parallel, then adds the images in
// path order, cascading from at. A path that cannot be read or decoded still
// consumes its cascade slot.
func (c *Controller) ImportFiles(ctx context.Context, paths []string, at Point) ([]Handle, error) {
	var (
		handles []Handle
		errs    []error
	)
	for i, res := range asset.LoadFiles(ctx, paths, c.workers) {
		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		item := newItem(res.Data, res.Info)
		item.pos = c.cascade(at, i)
		handles = append(handles, c.scene.Add(item))
	}
	return handles, errors.Join(errs...)
}

func (c *Controller) cascade(at Point, i int) Point {
	off := c.cfg.CascadeOffset * float64(i)
	return at.Add(Pt(off, off))
}
