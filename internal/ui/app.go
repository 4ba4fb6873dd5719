// Package ui is the Fyne desktop front-end. It owns no board logic: menus and
// the canvas widget call engine operations.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/document"
	"github.com/refboard/refboard/internal/engine"
	"github.com/refboard/refboard/internal/export"
)

type window struct {
	win    fyne.Window
	view   *BoardView
	status *widget.Label
}

// Run opens the main window of a and blocks until it closes. A non-empty
// boardPath is loaded at startup.
func Run(a fyne.App, cfg *config.Config, boardPath string) {
	w := &window{
		win:    a.NewWindow("refboard"),
		view:   NewBoardView(engine.NewEngine(engine.OptionsFromConfig(cfg))),
		status: widget.NewLabel("Ready"),
	}
	w.view.OnChange = w.updateTitle

	w.win.Resize(fyne.NewSize(1280, 800))
	w.win.SetContent(container.NewBorder(nil, w.status, nil, nil, w.view))
	w.win.SetMainMenu(w.menu())
	w.win.SetOnDropped(w.dropped)
	w.win.Canvas().AddShortcut(&fyne.ShortcutPaste{}, func(fyne.Shortcut) { w.paste() })

	if boardPath != "" {
		w.load(boardPath)
	}
	w.updateTitle()
	w.win.ShowAndRun()
}

func shortcut(k fyne.KeyName, extra fyne.KeyModifier) fyne.Shortcut {
	return &desktop.CustomShortcut{KeyName: k, Modifier: fyne.KeyModifierShortcutDefault | extra}
}

func (w *window) menu() *fyne.MainMenu {
	item := func(label string, sc fyne.Shortcut, fn func()) *fyne.MenuItem {
		it := fyne.NewMenuItem(label, fn)
		it.Shortcut = sc
		return it
	}
	file := fyne.NewMenu("File",
		item("Open Board…", shortcut(fyne.KeyO, 0), w.openBoard),
		item("Save", shortcut(fyne.KeyS, 0), w.save),
		item("Save As…", shortcut(fyne.KeyS, fyne.KeyModifierShift), w.saveAs),
		fyne.NewMenuItemSeparator(),
		item("Import Images…", shortcut(fyne.KeyI, 0), w.importImages),
		item("Export PNG…", nil, func() { w.exportBoard(".png") }),
		item("Export PDF…", nil, func() { w.exportBoard(".pdf") }),
		fyne.NewMenuItemSeparator(),
		item("Load Sample Board", nil, w.loadSample),
	)
	edit := fyne.NewMenu("Edit",
		item("Paste", nil, w.paste),
		item("Select All", shortcut(fyne.KeyA, 0), func() { w.view.Do(func(e *engine.Engine) { e.SelectAll() }) }),
		item("Delete Selection", nil, func() { w.view.Do(func(e *engine.Engine) { e.DeleteSelection() }) }),
		fyne.NewMenuItemSeparator(),
		item("Clear Board", nil, w.clearBoard),
	)
	view := fyne.NewMenu("View",
		item("Fit Board", shortcut(fyne.Key0, 0), w.fit),
		item("Toggle Grid", nil, func() {
			w.view.Do(func(e *engine.Engine) {
				d := e.Display()
				d.GridEnabled = !d.GridEnabled
				e.SetDisplay(d)
			})
		}),
	)
	return fyne.NewMainMenu(file, edit, view)
}

func (w *window) updateTitle() {
	var st engine.State
	w.view.Read(func(e *engine.Engine) { st = e.State() })

	name := "Untitled"
	if st.Path != "" {
		name = filepath.Base(st.Path)
	}
	if st.Modified {
		name = "*" + name
	}
	w.win.SetTitle(name + " – refboard")
	w.status.SetText(fmt.Sprintf("%d images, %d selected, zoom %.0f%%", st.Items, len(st.Selection), st.Zoom*100))
}

func (w *window) report(op string, err error) {
	slog.Error(op, "error", err)
	dialog.ShowError(fmt.Errorf("%s: %w", op, err), w.win)
}

func (w *window) load(path string) {
	var err error
	w.view.Do(func(e *engine.Engine) { err = e.LoadBoardFrom(path) })
	if err != nil {
		w.report("Open board", err)
	}
}

func boardFilter() storage.FileFilter {
	return storage.NewExtensionFileFilter([]string{document.ExtBoard, document.ExtJSON})
}

func (w *window) openBoard() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		w.load(path)
	}, w.win)
	d.SetFilter(boardFilter())
	d.Show()
}

func (w *window) save() {
	var err error
	w.view.Do(func(e *engine.Engine) { err = e.Save() })
	if errors.Is(err, engine.ErrUntitled) {
		w.saveAs()
		return
	}
	if err != nil {
		w.report("Save board", err)
	}
}

func (w *window) saveAs() {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		wc.Close()
		if ext := strings.ToLower(filepath.Ext(path)); ext != document.ExtBoard && ext != document.ExtJSON {
			path += document.ExtBoard
		}
		var saveErr error
		w.view.Do(func(e *engine.Engine) { saveErr = e.SaveBoardTo(path) })
		if saveErr != nil {
			w.report("Save board", saveErr)
		}
	}, w.win)
	d.SetFilter(boardFilter())
	d.SetFileName("board" + document.ExtBoard)
	d.Show()
}

func (w *window) importImages() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		path := r.URI().Path()
		r.Close()
		var importErr error
		w.view.Do(func(e *engine.Engine) { _, importErr = e.ImportFiles(context.Background(), []string{path}) })
		if importErr != nil {
			w.report("Import image", importErr)
		}
	}, w.win)
	d.SetFilter(storage.NewExtensionFileFilter(asset.Extensions))
	d.Show()
}

func (w *window) exportBoard(ext string) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()

		var images []document.Image
		var display config.DisplayConfig
		w.view.Read(func(e *engine.Engine) { images, display = e.Records(), e.Display() })

		if ext == ".pdf" {
			err = export.WritePDF(wc, images, display, export.DefaultOptions())
		} else {
			err = export.RenderPNG(wc, images, display, export.DefaultOptions())
		}
		if err != nil {
			w.report("Export board", err)
			return
		}
		w.status.SetText("Exported " + wc.URI().Name())
	}, w.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{ext}))
	d.SetFileName("board" + ext)
	d.Show()
}

func (w *window) loadSample() {
	var err error
	w.view.Do(func(e *engine.Engine) { err = e.LoadSampleBoard() })
	if err != nil {
		w.report("Load sample", err)
	}
}

func (w *window) clearBoard() {
	dialog.ShowConfirm("Clear Board", "Remove every image from the board?", func(ok bool) {
		if ok {
			w.view.Do(func(e *engine.Engine) { e.ClearBoard() })
		}
	}, w.win)
}

func (w *window) fit() {
	w.view.Do(func(e *engine.Engine) {
		if r := e.Scene().ItemsBounds(); !r.IsEmpty() {
			e.Viewport().FitRect(r, 40)
		}
	})
}

// paste imports the file paths held as text on the clipboard at the view center.
func (w *window) paste() {
	text := w.win.Clipboard().Content()
	if strings.TrimSpace(text) == "" {
		return
	}
	var err error
	w.view.Do(func(e *engine.Engine) { _, err = e.Paste(context.Background(), engine.Payload{Text: text}) })
	if err != nil {
		w.report("Paste", err)
	}
}

// dropped receives window coordinates; the view wants its own.
func (w *window) dropped(pos fyne.Position, uris []fyne.URI) {
	origin := fyne.CurrentApp().Driver().AbsolutePositionForObject(w.view)
	if _, err := w.view.DropURIs(pos.Subtract(origin), uris); err != nil {
		w.report("Drop", err)
	}
}
