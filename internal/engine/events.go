package engine

import "image"

// Button identifies a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Buttons is the set of buttons held during an event. Bit values match the
// DOM MouseEvent.buttons mask.
type Buttons uint8

const (
	HeldLeft   Buttons = 1
	HeldRight  Buttons = 2
	HeldMiddle Buttons = 4
)

// Has reports whether b is held.
func (bs Buttons) Has(b Button) bool {
	switch b {
	case ButtonLeft:
		return bs&HeldLeft != 0
	case ButtonMiddle:
		return bs&HeldMiddle != 0
	case ButtonRight:
		return bs&HeldRight != 0
	}
	return false
}

// Modifiers is a keyboard modifier mask.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl            // accelerator: Ctrl, or Cmd on macOS
	ModAlt
)

// Key names the keys the controller reacts to. Other keys pass through.
type Key string

const (
	KeySpace     Key = "Space"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyEscape    Key = "Escape"
)

// PointerEvent is a press, move or release. Pos is in viewport (screen) pixels.
type PointerEvent struct {
	Pos     Point     `json:"pos"`
	Button  Button    `json:"button"`
	Buttons Buttons   `json:"buttons"`
	Mods    Modifiers `json:"mods"`
}

// WheelEvent carries a scroll in notches; positive scrolls forward (away
// from the user). Fractional values come from high resolution devices.
type WheelEvent struct {
	Pos   Point     `json:"pos"`
	Delta float64   `json:"delta"`
	Mods  Modifiers `json:"mods"`
}

type KeyEvent struct {
	Key    Key       `json:"key"`
	Down   bool      `json:"down"`
	Repeat bool      `json:"repeat,omitempty"`
	Mods   Modifiers `json:"mods"`
}

// Payload is the content of a drop or paste. Only the first non-empty kind is
// used, in field order: encoded image bytes, decoded images, file paths, text
// holding one path per line.
type Payload struct {
	Data   [][]byte      `json:"data,omitempty"`
	Images []image.Image `json:"-"`
	Paths  []string      `json:"paths,omitempty"`
	Text   string        `json:"text,omitempty"`
}

func (p Payload) IsEmpty() bool {
	return len(p.Data) == 0 && len(p.Images) == 0 && len(p.Paths) == 0 && p.Text == ""
}

type DropEvent struct {
	Pos     Point   `json:"pos"`
	Payload Payload `json:"payload"`
}
