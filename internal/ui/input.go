package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/refboard/refboard/internal/engine"
)

// scrollNotch is the distance the desktop driver reports for one wheel notch.
const scrollNotch = 10

func point(p fyne.Position) engine.Point {
	return engine.Pt(float64(p.X), float64(p.Y))
}

func button(b desktop.MouseButton) engine.Button {
	switch b {
	case desktop.MouseButtonPrimary:
		return engine.ButtonLeft
	case desktop.MouseButtonSecondary:
		return engine.ButtonRight
	case desktop.MouseButtonTertiary:
		return engine.ButtonMiddle
	}
	return engine.ButtonNone
}

func held(b engine.Button) engine.Buttons {
	switch b {
	case engine.ButtonLeft:
		return engine.HeldLeft
	case engine.ButtonRight:
		return engine.HeldRight
	case engine.ButtonMiddle:
		return engine.HeldMiddle
	}
	return 0
}

// modifiers maps Fyne modifiers; Super counts as the accelerator so that
// Cmd+wheel works on macOS.
func modifiers(m fyne.KeyModifier) engine.Modifiers {
	var out engine.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= engine.ModShift
	}
	if m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0 {
		out |= engine.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= engine.ModAlt
	}
	return out
}

// modifierKey reports which modifier a key press toggles, if any.
func modifierKey(k fyne.KeyName) engine.Modifiers {
	switch k {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		return engine.ModShift
	case desktop.KeyControlLeft, desktop.KeyControlRight, desktop.KeySuperLeft, desktop.KeySuperRight:
		return engine.ModCtrl
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		return engine.ModAlt
	}
	return 0
}

func key(k fyne.KeyName) (engine.Key, bool) {
	switch k {
	case fyne.KeySpace:
		return engine.KeySpace, true
	case fyne.KeyDelete:
		return engine.KeyDelete, true
	case fyne.KeyBackspace:
		return engine.KeyBackspace, true
	case fyne.KeyEscape:
		return engine.KeyEscape, true
	}
	return "", false
}

// cursor picks the closest of the desktop driver's standard cursors.
func cursor(c engine.Cursor) desktop.Cursor {
	switch c {
	case engine.CursorResizeFDiag, engine.CursorResizeBDiag:
		return desktop.CrosshairCursor
	case engine.CursorOpenHand, engine.CursorClosedHand:
		return desktop.PointerCursor
	}
	return desktop.DefaultCursor
}
