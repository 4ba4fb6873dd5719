package engine

import (
	"math"
	"testing"
)

const tol = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= tol*max(1, math.Abs(a), math.Abs(b)) }

func nearPt(a, b Point) bool { return near(a.X, b.X) && near(a.Y, b.Y) }

func TestAnchorRatio(t *testing.T) {
	tests := []struct {
		name    string
		anchor  Point
		start   Point
		current Point
		want    float64
		ok      bool
	}{
		{"double", Pt(0, 0), Pt(10, 0), Pt(20, 0), 2, true},
		{"half diagonal", Pt(1, 1), Pt(4, 5), Pt(2.5, 3), 0.5, true},
		{"direction ignored", Pt(0, 0), Pt(10, 0), Pt(0, -10), 1, true},
		{"start on anchor", Pt(3, 3), Pt(3, 3), Pt(50, 50), 0, false},
		{"start within epsilon", Pt(0, 0), Pt(AnchorEpsilon/2, 0), Pt(50, 50), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := AnchorRatio(tt.anchor, tt.start, tt.current)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !near(r, tt.want) {
				t.Errorf("r = %v, want %v", r, tt.want)
			}
		})
	}
}

// The anchor expressed in the item's local frame must land on the same scene
// point before and after scaling.
func TestScaleAboutAnchorKeepsAnchorFixed(t *testing.T) {
	tests := []struct {
		scale0   float64
		pos0     Point
		anchor   Point
		r        float64
		rotation float64
	}{
		{1, Pt(0, 0), Pt(-50, -50), 2, 0},
		{0.5, Pt(120, -40), Pt(300, 300), 0.25, 0},
		{3, Pt(-1000, 7), Pt(12.5, -99), 1.75, 0},
		{1.2, Pt(10, 20), Pt(-30, 45), 3, 30},
	}
	for _, tt := range tests {
		before := ItemTransform(tt.pos0, tt.scale0, tt.rotation)
		local := before.Invert().Apply(tt.anchor)

		scale1, pos1 := ScaleAboutAnchor(tt.scale0, tt.pos0, tt.anchor, tt.r)
		after := ItemTransform(pos1, scale1, tt.rotation)

		if got := after.Apply(local); !nearPt(got, tt.anchor) {
			t.Errorf("anchor %v moved to %v (scale0=%v r=%v)", tt.anchor, got, tt.scale0, tt.r)
		}
		if !near(scale1, tt.scale0*tt.r) {
			t.Errorf("scale = %v, want %v", scale1, tt.scale0*tt.r)
		}
	}
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := ItemTransform(Pt(40, -15), 2.5, 33)
	p := Pt(7, -3)
	if got := m.Invert().Apply(m.Apply(p)); !nearPt(got, p) {
		t.Errorf("invert round trip = %v, want %v", got, p)
	}
	if got := Scale(0, 0).Invert(); got != Identity() {
		t.Errorf("singular invert = %v, want identity", got)
	}
}

func TestTransformRectRotated(t *testing.T) {
	local := Rect{X: -50, Y: -50, Width: 100, Height: 100}
	got := ItemTransform(Pt(0, 0), 1, 45).TransformRect(local)
	half := 50 * math.Sqrt2
	want := Rect{X: -half, Y: -half, Width: 2 * half, Height: 2 * half}
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Width, want.Width) || !near(got.Height, want.Height) {
		t.Errorf("rotated bounds = %+v, want %+v", got, want)
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: -5, Width: 20, Height: 5}
	if got, want := a.Union(b), (Rect{X: 0, Y: -5, Width: 25, Height: 15}); got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
	if got := (Rect{}).Union(a); got != a {
		t.Errorf("empty.Union(a) = %+v, want %+v", got, a)
	}
}

func TestCornerOpposite(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 4, Height: 2}
	tests := []struct {
		pressed Corner
		anchor  Point
	}{
		{CornerTopLeft, r.BottomRight()},
		{CornerTopRight, r.BottomLeft()},
		{CornerBottomLeft, r.TopRight()},
		{CornerBottomRight, r.TopLeft()},
	}
	for _, tt := range tests {
		if got := r.Corner(tt.pressed.Opposite()); got != tt.anchor {
			t.Errorf("%v: anchor = %v, want %v", tt.pressed, got, tt.anchor)
		}
	}
}
