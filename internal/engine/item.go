package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/document"
	"github.com/refboard/refboard/internal/typeid"
)

// MinScale is the smallest scale any gesture may produce.
const MinScale = 1e-3

var (
	ErrNoSuchItem    = errors.New("no such item")
	ErrInvalidScale  = errors.New("scale must be positive and finite")
	ErrInvalidCoords = errors.New("position and rotation must be finite")
)

// Handle is a stable reference to an item, valid until the item is removed.
type Handle string

// Placeable is what the scene and presentation layers need from an item.
type Placeable interface {
	LocalBounds() Rect
	SceneBounds() Rect
	Contains(scenePoint Point) bool
	Transform() Matrix2D
	ImageData() []byte
}

// BoardItem is one placed image. Its selection state lives in the Scene.
type BoardItem struct {
	handle   Handle
	pos      Point
	scale    float64
	rotation float64

	data   []byte
	width  int
	height int
	format string
}

var _ Placeable = (*BoardItem)(nil)

// NewItem validates data as a supported raster image and wraps it in an item
// at the origin with scale 1. Invalid data returns an *asset.DecodeError.
func NewItem(data []byte) (*BoardItem, error) {
	info, err := asset.Probe(data)
	if err != nil {
		return nil, err
	}
	return newItem(data, info), nil
}

func newItem(data []byte, info asset.Info) *BoardItem {
	return &BoardItem{
		handle: Handle(typeid.NewImageID()),
		scale:  1,
		data:   data,
		width:  info.Width,
		height: info.Height,
		format: info.Format,
	}
}

// NewItemAt is NewItem followed by placement.
func NewItemAt(data []byte, pos Point, scale, rotation float64) (*BoardItem, error) {
	if err := validateTransform(pos, scale, rotation); err != nil {
		return nil, err
	}
	item, err := NewItem(data)
	if err != nil {
		return nil, err
	}
	item.pos = pos
	item.scale = scale
	item.rotation = rotation
	return item, nil
}

func validateTransform(pos Point, scale, rotation float64) error {
	if !pos.IsFinite() || math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return ErrInvalidCoords
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	return nil
}

func (it *BoardItem) Handle() Handle { return it.handle }
func (it *BoardItem) Pos() Point { return it.pos }
func (it *BoardItem) Scale() float64 { return it.scale }
func (it *BoardItem) Rotation() float64 { return it.rotation }
func (it *BoardItem) Format() string { return it.format }

// Size returns the decoded pixel size.
func (it *BoardItem) Size() (int, int) { return it.width, it.height }

// ImageData returns the original encoded bytes. Callers must not modify them.
func (it *BoardItem) ImageData() []byte { return it.data }

// LocalBounds is the image rect centered on the local origin.
func (it *BoardItem) LocalBounds() Rect {
	w, h := float64(it.width), float64(it.height)
	return Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h}
}

func (it *BoardItem) Transform() Matrix2D {
	return ItemTransform(it.pos, it.scale, it.rotation)
}

// SceneBounds is the axis-aligned scene rect covering the transformed image.
func (it *BoardItem) SceneBounds() Rect {
	return it.Transform().TransformRect(it.LocalBounds())
}

func (it *BoardItem) Contains(p Point) bool {
	return it.SceneBounds().Contains(p)
}

// MapFromScene maps a scene point into item-local coordinates.
func (it *BoardItem) MapFromScene(p Point) Point {
	return it.Transform().Invert().Apply(p)
}

// Record returns the persisted form of the item. Data is the stored bytes,
// never a re-encoding.
func (it *BoardItem) Record() document.Image {
	return document.Image{
		X:        it.pos.X,
		Y:        it.pos.Y,
		Scale:    it.scale,
		Rotation: it.rotation,
		Data:     it.data,
	}
}

// ItemFromRecord rebuilds an item from a parsed board record.
func ItemFromRecord(rec document.Image) (*BoardItem, error) {
	return NewItemAt(rec.Data, Pt(rec.X, rec.Y), rec.Scale, rec.Rotation)
}
