package engine

// AnchorEpsilon is the smallest start distance from which a resize ratio is
// computed. Shorter distances make the gesture inert.
const AnchorEpsilon = 1e-5

// AnchorRatio returns |anchor-current| / |anchor-start|. ok is false when the
// start point lies within AnchorEpsilon of the anchor.
func AnchorRatio(anchor, start, current Point) (r float64, ok bool) {
	d0 := anchor.Dist(start)
	if d0 < AnchorEpsilon {
		return 0, false
	}
	return anchor.Dist(current) / d0, true
}

// ScaleAboutAnchor scales an item state (scale0, pos0) by r while keeping the
// scene point anchor fixed relative to the item.
func ScaleAboutAnchor(scale0 float64, pos0, anchor Point, r float64) (float64, Point) {
	return scale0 * r, anchor.Add(pos0.Sub(anchor).Mul(r))
}
