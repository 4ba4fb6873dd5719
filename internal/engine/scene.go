package engine

import (
	"fmt"
	"slices"
)

// DefaultSceneBounds is the configured extent of the canvas.
var DefaultSceneBounds = Rect{X: -50000, Y: -50000, Width: 100000, Height: 100000}

// Scene is the ordered set of items on one board plus the selection.
// Insertion order is z-order: later items are drawn on top.
//
// A Scene is not safe for concurrent use. It belongs to whichever goroutine
// runs the board's interaction loop.
type Scene struct {
	items     []*BoardItem
	byHandle  map[Handle]*BoardItem
	selection map[Handle]struct{}
	bounds    Rect

	// revision increments on every change to items or their transforms.
	revision uint64
}

func NewScene() *Scene {
	return &Scene{
		byHandle:  make(map[Handle]*BoardItem),
		selection: make(map[Handle]struct{}),
		bounds:    DefaultSceneBounds,
	}
}

func (s *Scene) Bounds() Rect { return s.bounds }
func (s *Scene) Len() int { return len(s.items) }
func (s *Scene) Revision() uint64 { return s.revision }
func (s *Scene) touch() { s.revision++ }

// Items returns the items in z-order, bottom first.
func (s *Scene) Items() []*BoardItem {
	return slices.Clone(s.items)
}

func (s *Scene) Item(h Handle) (*BoardItem, bool) {
	it, ok := s.byHandle[h]
	return it, ok
}

// Add appends item on top of the z-order.
func (s *Scene) Add(item *BoardItem) Handle {
	if _, exists := s.byHandle[item.handle]; exists {
		return item.handle
	}
	s.items = append(s.items, item)
	s.byHandle[item.handle] = item
	s.touch()
	return item.handle
}

// Remove deletes the given items and drops them from the selection. Handles
// that are not in the scene are ignored. It returns how many items were removed.
func (s *Scene) Remove(handles ...Handle) int {
	drop := make(map[Handle]struct{}, len(handles))
	for _, h := range handles {
		if _, ok := s.byHandle[h]; ok {
			drop[h] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}
	s.items = slices.DeleteFunc(s.items, func(it *BoardItem) bool {
		_, gone := drop[it.handle]
		return gone
	})
	for h := range drop {
		delete(s.byHandle, h)
		delete(s.selection, h)
	}
	s.touch()
	return len(drop)
}

// Clear empties the scene.
func (s *Scene) Clear() {
	if len(s.items) == 0 && len(s.selection) == 0 {
		return
	}
	s.items = nil
	clear(s.byHandle)
	clear(s.selection)
	s.touch()
}

// ReplaceAll swaps the whole item list, leaving the selection empty.
func (s *Scene) ReplaceAll(items []*BoardItem) {
	byHandle := make(map[Handle]*BoardItem, len(items))
	kept := make([]*BoardItem, 0, len(items))
	for _, it := range items {
		if _, dup := byHandle[it.handle]; dup {
			continue
		}
		byHandle[it.handle] = it
		kept = append(kept, it)
	}
	s.items = kept
	s.byHandle = byHandle
	clear(s.selection)
	s.touch()
}

// SetTransform moves and scales one item.
func (s *Scene) SetTransform(h Handle, pos Point, scale float64) error {
	it, ok := s.byHandle[h]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchItem, h)
	}
	if err := validateTransform(pos, scale, it.rotation); err != nil {
		return err
	}
	if it.pos == pos && it.scale == scale {
		return nil
	}
	it.pos = pos
	it.scale = scale
	s.touch()
	return nil
}

// BringToFront moves the given items to the top of the z-order, keeping
// their relative order.
func (s *Scene) BringToFront(handles ...Handle) {
	lift := make(map[Handle]struct{}, len(handles))
	for _, h := range handles {
		if _, ok := s.byHandle[h]; ok {
			lift[h] = struct{}{}
		}
	}
	if len(lift) == 0 {
		return
	}
	rest := make([]*BoardItem, 0, len(s.items))
	var top []*BoardItem
	for _, it := range s.items {
		if _, ok := lift[it.handle]; ok {
			top = append(top, it)
		} else {
			rest = append(rest, it)
		}
	}
	s.items = append(rest, top...)
	s.touch()
}

// HitTest returns the topmost item whose scene bounds contain p.
func (s *Scene) HitTest(p Point) (Handle, bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].Contains(p) {
			return s.items[i].handle, true
		}
	}
	return "", false
}

// ItemsBounds is the union of every item's scene bounds.
func (s *Scene) ItemsBounds() Rect {
	var r Rect
	for _, it := range s.items {
		r = r.Union(it.SceneBounds())
	}
	return r
}

// --- Selection ---

func (s *Scene) IsSelected(h Handle) bool {
	_, ok := s.selection[h]
	return ok
}

func (s *Scene) SelectionLen() int { return len(s.selection) }

// Selection returns the selected handles in z-order.
func (s *Scene) Selection() []Handle {
	out := make([]Handle, 0, len(s.selection))
	for _, it := range s.items {
		if _, ok := s.selection[it.handle]; ok {
			out = append(out, it.handle)
		}
	}
	return out
}

// SelectedItems returns the selected items in z-order.
func (s *Scene) SelectedItems() []*BoardItem {
	out := make([]*BoardItem, 0, len(s.selection))
	for _, it := range s.items {
		if _, ok := s.selection[it.handle]; ok {
			out = append(out, it)
		}
	}
	return out
}

// SelectedBoundsUnion is the union of the selected items' scene bounds, or an
// empty rect when nothing is selected.
func (s *Scene) SelectedBoundsUnion() Rect {
	var r Rect
	for _, it := range s.SelectedItems() {
		r = r.Union(it.SceneBounds())
	}
	return r
}

// SetSelection replaces the selection. Unknown handles are ignored.
func (s *Scene) SetSelection(handles ...Handle) {
	clear(s.selection)
	for _, h := range handles {
		if _, ok := s.byHandle[h]; ok {
			s.selection[h] = struct{}{}
		}
	}
}

// ToggleSelection flips membership of h and leaves every other member alone.
// It reports whether h is selected afterwards.
func (s *Scene) ToggleSelection(h Handle) (bool, error) {
	if _, ok := s.byHandle[h]; !ok {
		return false, fmt.Errorf("%w: %s", ErrNoSuchItem, h)
	}
	if _, ok := s.selection[h]; ok {
		delete(s.selection, h)
		return false, nil
	}
	s.selection[h] = struct{}{}
	return true, nil
}

func (s *Scene) AddToSelection(h Handle) error {
	if _, ok := s.byHandle[h]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchItem, h)
	}
	s.selection[h] = struct{}{}
	return nil
}

func (s *Scene) SelectAll() {
	for _, it := range s.items {
		s.selection[it.handle] = struct{}{}
	}
}

func (s *Scene) ClearSelection() { clear(s.selection) }
