package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/document"
)

// ErrUntitled is returned by Save when the board has never been saved or loaded.
var ErrUntitled = errors.New("board has no file path")

// Options configures an Engine.
type Options struct {
	Display       config.DisplayConfig
	Interaction   config.InteractionConfig
	ImportWorkers int
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Display:       cfg.Display,
		Interaction:   cfg.Interaction,
		ImportWorkers: cfg.ImportWorkers,
	}
}

// Engine owns one open board: the scene, the camera and the input controller.
// Presentation layers call its operations and feed input events to
// Controller(). It is not safe for concurrent use.
type Engine struct {
	scene   *Scene
	view    *Viewport
	ctrl    *Controller
	display config.DisplayConfig

	// Board file state
	path          string
	savedRevision uint64
}

// NewEngine creates an engine with an empty, untitled board.
func NewEngine(opts Options) *Engine {
	scene := NewScene()
	view := NewViewport(opts.Interaction)
	return &Engine{
		scene:         scene,
		view:          view,
		ctrl:          NewController(scene, view, opts.Interaction, opts.ImportWorkers),
		display:       opts.Display,
		savedRevision: scene.Revision(),
	}
}

func (e *Engine) Scene() *Scene { return e.scene }
func (e *Engine) Viewport() *Viewport { return e.view }
func (e *Engine) Controller() *Controller { return e.ctrl }

func (e *Engine) Display() config.DisplayConfig { return e.display }
func (e *Engine) SetDisplay(d config.DisplayConfig) { e.display = d }

// Path is the board file the engine last saved to or loaded from; empty for
// an untitled board.
func (e *Engine) Path() string { return e.path }

// Modified reports whether items changed since the last save or load.
func (e *Engine) Modified() bool { return e.scene.Revision() != e.savedRevision }

// --- Commands ---

// AddImageFromBytes places an image centered on scene point (x, y).
func (e *Engine) AddImageFromBytes(data []byte, x, y, scale float64) (Handle, error) {
	item, err := NewItemAt(data, Pt(x, y), scale, 0)
	if err != nil {
		return "", err
	}
	return e.scene.Add(item), nil
}

func (e *Engine) DeleteSelection() int {
	return e.ctrl.DeleteSelection()
}

// ClearBoard removes every item. The file path is kept.
func (e *Engine) ClearBoard() {
	e.ctrl.Reset()
	e.scene.Clear()
}

func (e *Engine) SelectAll() { e.scene.SelectAll() }

// ImportFiles imports image files cascading from the viewport center.
func (e *Engine) ImportFiles(ctx context.Context, paths []string) ([]Handle, error) {
	return e.ctrl.ImportFiles(ctx, paths, e.view.Center())
}

func (e *Engine) Paste(ctx context.Context, p Payload) ([]Handle, error) {
	return e.ctrl.Paste(ctx, p)
}

// --- Persistence ---

// Records returns the board's items in persisted form, in z-order.
func (e *Engine) Records() []document.Image {
	return Records(e.scene.items)
}

func (e *Engine) EncodeBoard() ([]byte, error) {
	return document.Encode(e.Records())
}

// SaveBoardTo writes the board to path atomically and makes path current.
// On failure the file on disk is left as it was.
func (e *Engine) SaveBoardTo(path string) error {
	if err := document.WriteFile(path, e.Records()); err != nil {
		slog.Error("save board", "path", path, "error", err)
		return err
	}
	e.path = path
	e.savedRevision = e.scene.Revision()
	slog.Info("board saved", "path", path, "images", e.scene.Len())
	return nil
}

// Save writes the board back to its current path.
func (e *Engine) Save() error {
	if e.path == "" {
		return ErrUntitled
	}
	return e.SaveBoardTo(e.path)
}

// LoadBoardFrom replaces the board with the file at path. On an *IOError or
// *ParseError the current board is left untouched.
func (e *Engine) LoadBoardFrom(path string) error {
	board, err := document.ReadFile(path)
	if err != nil {
		slog.Error("load board", "path", path, "error", err)
		return err
	}
	e.apply(board)
	e.path = path
	slog.Info("board loaded", "path", path, "images", e.scene.Len(), "skipped", len(board.Skipped))
	return nil
}

// LoadBoardBytes replaces the board with an encoded board document.
func (e *Engine) LoadBoardBytes(data []byte) error {
	board, err := document.Parse(data)
	if err != nil {
		return err
	}
	e.apply(board)
	return nil
}

// LoadImages replaces the board with already parsed records.
func (e *Engine) LoadImages(images []document.Image) {
	e.apply(&document.Board{Version: document.CurrentVersion, Images: images})
}

// apply swaps in the board's items. Bad records were already logged and
// skipped, so nothing here can fail.
func (e *Engine) apply(board *document.Board) {
	items, _ := BuildItems(board)
	e.ctrl.Reset()
	e.scene.ReplaceAll(items)
	e.savedRevision = e.scene.Revision()
}

// LoadSampleBoard replaces the board with the built-in sample.
func (e *Engine) LoadSampleBoard() error {
	images, err := document.NewSampleBoard()
	if err != nil {
		return err
	}
	e.LoadImages(images)
	return nil
}

// --- Queries ---

// NewController returns another input controller over this board's scene and
// camera, with its own gesture state. Collaborative sessions use one per
// connection.
func (e *Engine) NewController() *Controller {
	return NewController(e.scene, e.view, e.ctrl.cfg, e.ctrl.workers)
}

// Render compiles the visible board into draw commands. Rubber bands of the
// engine's controller and of any extra controllers are included.
func (e *Engine) Render(extra ...*Controller) []DrawCommand {
	var bands []Rect
	for _, c := range append([]*Controller{e.ctrl}, extra...) {
		if b, ok := c.RubberBand(); ok {
			bands = append(bands, b)
		}
	}
	return CompileDrawCommands(e.scene, e.view, e.display, bands...)
}

// RenderJSON is Render serialized for JS frontends.
func (e *Engine) RenderJSON() string {
	result, _ := DrawCommandsToJSON(e.Render())
	return result
}

// HitTest returns the item under a screen point, or "".
func (e *Engine) HitTest(screen Point) Handle {
	h, _ := e.scene.HitTest(e.view.ScreenToScene(screen))
	return h
}

// ImageData returns the stored bytes of an item.
func (e *Engine) ImageData(h Handle) ([]byte, bool) {
	it, ok := e.scene.Item(h)
	if !ok {
		return nil, false
	}
	return it.ImageData(), true
}

// State is a summary of the board for status displays.
type State struct {
	Path      string   `json:"path"`
	Modified  bool     `json:"modified"`
	Items     int      `json:"items"`
	Selection []Handle `json:"selection"`
	Zoom      float64  `json:"zoom"`
	Mode      string   `json:"mode"`
	Cursor    string   `json:"cursor"`
}

func (e *Engine) State() State {
	return e.StateFor(e.ctrl)
}

// StateFor is State with the mode and cursor of controller c.
func (e *Engine) StateFor(c *Controller) State {
	return State{
		Path:      e.path,
		Modified:  e.Modified(),
		Items:     e.scene.Len(),
		Selection: e.scene.Selection(),
		Zoom:      e.view.Zoom,
		Mode:      c.Mode().String(),
		Cursor:    c.Cursor().String(),
	}
}

func (e *Engine) StateJSON() string {
	data, _ := json.Marshal(e.State())
	return string(data)
}
