//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/refboard/refboard/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.DefaultOptions())

	// Create the engine API object
	board := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	board.Set("loadBoard", js.FuncOf(loadBoard))
	board.Set("loadSampleBoard", js.FuncOf(loadSampleBoard))
	board.Set("addImage", js.FuncOf(addImage))
	board.Set("deleteSelection", js.FuncOf(deleteSelection))
	board.Set("clearBoard", js.FuncOf(clearBoard))
	board.Set("selectAll", js.FuncOf(selectAll))
	board.Set("resize", js.FuncOf(resize))
	board.Set("pointerDown", js.FuncOf(pointer(func(ev engine.PointerEvent) { eng.Controller().PointerDown(ev) })))
	board.Set("pointerMove", js.FuncOf(pointer(func(ev engine.PointerEvent) { eng.Controller().PointerMove(ev) })))
	board.Set("pointerUp", js.FuncOf(pointer(func(ev engine.PointerEvent) { eng.Controller().PointerUp(ev) })))
	board.Set("wheel", js.FuncOf(wheel))
	board.Set("key", js.FuncOf(key))
	board.Set("drop", js.FuncOf(drop))
	board.Set("paste", js.FuncOf(paste))

	// --- Queries (frontend ← engine) ---
	board.Set("render", js.FuncOf(render))
	board.Set("getState", js.FuncOf(getState))
	board.Set("hitTest", js.FuncOf(hitTest))
	board.Set("saveBoard", js.FuncOf(saveBoard))
	board.Set("getImageData", js.FuncOf(getImageData))

	// Register on global scope
	js.Global().Set("refboardEngine", board)

	// Signal that WASM is ready
	js.Global().Set("refboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

func okResult() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func bytesArg(v js.Value) []byte {
	data := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(data, v)
	return data
}

func bytesList(v js.Value) [][]byte {
	out := make([][]byte, v.Length())
	for i := range out {
		out[i] = bytesArg(v.Index(i))
	}
	return out
}

func floatArg(args []js.Value, i int, def float64) float64 {
	if i >= len(args) || args[i].Type() != js.TypeNumber {
		return def
	}
	return args[i].Float()
}

func intArg(args []js.Value, i int) int {
	if i >= len(args) || args[i].Type() != js.TypeNumber {
		return 0
	}
	return args[i].Int()
}

func handleList(handles []engine.Handle) []any {
	out := make([]any, len(handles))
	for i, h := range handles {
		out[i] = string(h)
	}
	return out
}

// --- Command Handlers ---

func loadBoard(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing board JSON"})
	}
	if err := eng.LoadBoardBytes([]byte(args[0].String())); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func loadSampleBoard(this js.Value, args []js.Value) any {
	if err := eng.LoadSampleBoard(); err != nil {
		return errorResult(err)
	}
	return okResult()
}

// addImage(bytes: Uint8Array, x, y, scale?)
func addImage(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing image bytes"})
	}
	h, err := eng.AddImageFromBytes(bytesArg(args[0]), floatArg(args, 1, 0), floatArg(args, 2, 0), floatArg(args, 3, 1))
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]any{"id": string(h)})
}

func deleteSelection(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.DeleteSelection())
}

func clearBoard(this js.Value, args []js.Value) any {
	eng.ClearBoard()
	return nil
}

func selectAll(this js.Value, args []js.Value) any {
	eng.SelectAll()
	return nil
}

func resize(this js.Value, args []js.Value) any {
	eng.Viewport().Resize(floatArg(args, 0, 0), floatArg(args, 1, 0))
	return nil
}

// pointer adapts (x, y, button, buttons, mods) calls. button uses the
// engine numbering; buttons is the DOM MouseEvent.buttons mask.
func pointer(apply func(engine.PointerEvent)) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		apply(engine.PointerEvent{
			Pos:     engine.Pt(floatArg(args, 0, 0), floatArg(args, 1, 0)),
			Button:  engine.Button(intArg(args, 2)),
			Buttons: engine.Buttons(intArg(args, 3)),
			Mods:    engine.Modifiers(intArg(args, 4)),
		})
		return js.ValueOf(eng.Controller().Cursor().String())
	}
}

// wheel(x, y, notches, mods)
func wheel(this js.Value, args []js.Value) any {
	eng.Controller().Wheel(engine.WheelEvent{
		Pos:   engine.Pt(floatArg(args, 0, 0), floatArg(args, 1, 0)),
		Delta: floatArg(args, 2, 0),
		Mods:  engine.Modifiers(intArg(args, 3)),
	})
	return nil
}

// key(name, down, repeat, mods)
func key(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	ev := engine.KeyEvent{Key: engine.Key(args[0].String()), Down: args[1].Bool()}
	if len(args) > 2 {
		ev.Repeat = args[2].Truthy()
	}
	ev.Mods = engine.Modifiers(intArg(args, 3))
	eng.Controller().Key(ev)
	return nil
}

// drop(x, y, files: Uint8Array[])
func drop(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf(map[string]any{"error": "missing drop payload"})
	}
	handles, err := eng.Controller().Drop(context.Background(), engine.DropEvent{
		Pos:     engine.Pt(floatArg(args, 0, 0), floatArg(args, 1, 0)),
		Payload: engine.Payload{Data: bytesList(args[2])},
	})
	result := map[string]any{"ids": handleList(handles)}
	if err != nil {
		result["error"] = err.Error()
	}
	return js.ValueOf(result)
}

// paste(images: Uint8Array[])
func paste(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing paste payload"})
	}
	handles, err := eng.Paste(context.Background(), engine.Payload{Data: bytesList(args[0])})
	result := map[string]any{"ids": handleList(handles)}
	if err != nil {
		result["error"] = err.Error()
	}
	return js.ValueOf(result)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.RenderJSON())
}

func getState(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.StateJSON())
}

func hitTest(this js.Value, args []js.Value) any {
	h := eng.HitTest(engine.Pt(floatArg(args, 0, 0), floatArg(args, 1, 0)))
	if h == "" {
		return js.Null()
	}
	return js.ValueOf(string(h))
}

// saveBoard returns the encoded board document; the page decides where it goes.
func saveBoard(this js.Value, args []js.Value) any {
	data, err := eng.EncodeBoard()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func getImageData(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.Null()
	}
	data, ok := eng.ImageData(engine.Handle(args[0].String()))
	if !ok {
		return js.Null()
	}
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}
