package ui

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/engine"
)

// BoardView is the canvas widget. It forwards Fyne input to the engine's
// controller and paints the engine's draw list.
type BoardView struct {
	widget.BaseWidget

	mu      sync.Mutex // guards eng and the fields below
	eng     *engine.Engine
	images  map[string]image.Image
	cached  uint64 // scene revision the image cache was pruned at
	buttons engine.Buttons
	mods    engine.Modifiers

	raster   *canvas.Raster
	OnChange func() // called after input that may change board state
}

var (
	_ fyne.Widget        = (*BoardView)(nil)
	_ fyne.Draggable     = (*BoardView)(nil)
	_ fyne.Scrollable    = (*BoardView)(nil)
	_ desktop.Mouseable  = (*BoardView)(nil)
	_ desktop.Hoverable  = (*BoardView)(nil)
	_ desktop.Keyable    = (*BoardView)(nil)
	_ desktop.Cursorable = (*BoardView)(nil)
)

func NewBoardView(eng *engine.Engine) *BoardView {
	v := &BoardView{eng: eng, images: make(map[string]image.Image)}
	v.raster = canvas.NewRaster(v.paint)
	v.ExtendBaseWidget(v)
	return v
}

// Do runs fn with exclusive access to the engine, then repaints.
func (v *BoardView) Do(fn func(eng *engine.Engine)) {
	v.mu.Lock()
	fn(v.eng)
	v.mu.Unlock()
	v.changed()
}

// Read runs fn with exclusive access to the engine without repainting.
func (v *BoardView) Read(fn func(eng *engine.Engine)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.eng)
}

func (v *BoardView) changed() {
	v.raster.Refresh()
	if v.OnChange != nil {
		v.OnChange()
	}
}

func (v *BoardView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

func (v *BoardView) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (v *BoardView) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	v.mu.Lock()
	v.eng.Viewport().Resize(float64(size.Width), float64(size.Height))
	v.mu.Unlock()
	v.raster.Refresh()
}

func (v *BoardView) paint(w, h int) image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()

	vw := v.eng.Viewport().Width
	scale := 1.0
	if vw > 0 {
		scale = float64(w) / vw
	}
	v.pruneImages()
	return Paint(v.eng.Render(), w, h, scale, v.image)
}

// image decodes item bytes on first use. Caller holds mu.
func (v *BoardView) image(id string) image.Image {
	if img, ok := v.images[id]; ok {
		return img
	}
	data, ok := v.eng.ImageData(engine.Handle(id))
	if !ok {
		return nil
	}
	img, _, err := asset.Decode(data)
	if err != nil {
		slog.Warn("decode item for display", "item", id, "error", err)
	}
	v.images[id] = img
	return img
}

func (v *BoardView) pruneImages() {
	rev := v.eng.Scene().Revision()
	if rev == v.cached {
		return
	}
	v.cached = rev
	for id := range v.images {
		if _, ok := v.eng.Scene().Item(engine.Handle(id)); !ok {
			delete(v.images, id)
		}
	}
}

// --- Pointer ---

func (v *BoardView) MouseDown(ev *desktop.MouseEvent) {
	if c := fyne.CurrentApp().Driver().CanvasForObject(v); c != nil {
		c.Focus(v)
	}
	b := button(ev.Button)
	v.Do(func(eng *engine.Engine) {
		v.buttons |= held(b)
		v.mods = modifiers(ev.Modifier)
		eng.Controller().PointerDown(engine.PointerEvent{Pos: point(ev.Position), Button: b, Buttons: v.buttons, Mods: v.mods})
	})
}

func (v *BoardView) MouseUp(ev *desktop.MouseEvent) {
	b := button(ev.Button)
	v.Do(func(eng *engine.Engine) {
		v.buttons &^= held(b)
		eng.Controller().PointerUp(engine.PointerEvent{Pos: point(ev.Position), Button: b, Buttons: v.buttons, Mods: modifiers(ev.Modifier)})
	})
}

func (v *BoardView) MouseIn(ev *desktop.MouseEvent) { v.MouseMoved(ev) }

func (v *BoardView) MouseMoved(ev *desktop.MouseEvent) {
	v.move(ev.Position)
}

func (v *BoardView) MouseOut() {}

func (v *BoardView) Dragged(ev *fyne.DragEvent) {
	v.move(ev.Position)
}

func (v *BoardView) DragEnd() {}

func (v *BoardView) move(pos fyne.Position) {
	v.Do(func(eng *engine.Engine) {
		eng.Controller().PointerMove(engine.PointerEvent{Pos: point(pos), Buttons: v.buttons, Mods: v.mods})
	})
}

func (v *BoardView) Scrolled(ev *fyne.ScrollEvent) {
	v.Do(func(eng *engine.Engine) {
		eng.Controller().Wheel(engine.WheelEvent{
			Pos:   point(ev.Position),
			Delta: float64(ev.Scrolled.DY) / scrollNotch,
			Mods:  v.mods,
		})
	})
}

func (v *BoardView) Cursor() desktop.Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cursor(v.eng.Controller().Cursor())
}

// --- Keyboard ---

func (v *BoardView) FocusGained() {}

// FocusLost drops held modifiers since their key-up goes elsewhere.
func (v *BoardView) FocusLost() {
	v.Do(func(eng *engine.Engine) {
		v.mods = 0
		if eng.Controller().SpaceHeld() {
			eng.Controller().Key(engine.KeyEvent{Key: engine.KeySpace, Down: false})
		}
	})
}

func (v *BoardView) TypedRune(rune) {}

func (v *BoardView) TypedKey(*fyne.KeyEvent) {}

func (v *BoardView) KeyDown(ev *fyne.KeyEvent) { v.keyEvent(ev.Name, true) }

func (v *BoardView) KeyUp(ev *fyne.KeyEvent) { v.keyEvent(ev.Name, false) }

func (v *BoardView) keyEvent(name fyne.KeyName, down bool) {
	if m := modifierKey(name); m != 0 {
		v.mu.Lock()
		if down {
			v.mods |= m
		} else {
			v.mods &^= m
		}
		v.mu.Unlock()
		return
	}
	k, ok := key(name)
	if !ok {
		return
	}
	v.Do(func(eng *engine.Engine) {
		eng.Controller().Key(engine.KeyEvent{Key: k, Down: down, Mods: v.mods})
	})
}

// --- Ingestion ---

// DropURIs imports dropped files at a position relative to the view.
func (v *BoardView) DropURIs(pos fyne.Position, uris []fyne.URI) ([]engine.Handle, error) {
	paths := make([]string, 0, len(uris))
	for _, u := range uris {
		if u.Scheme() == "file" {
			paths = append(paths, u.Path())
		}
	}
	var handles []engine.Handle
	var err error
	v.Do(func(eng *engine.Engine) {
		handles, err = eng.Controller().Drop(context.Background(), engine.DropEvent{
			Pos:     point(pos),
			Payload: engine.Payload{Paths: paths},
		})
	})
	return handles, err
}
