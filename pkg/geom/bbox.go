package geom

// BBox is an axis-aligned rectangle in absolute pixel coordinates.
// (X0, Y0) is the top-left corner, (X1, Y1) the bottom-right corner,
// exclusive on the high edge.
type BBox struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Width returns X1 - X0. May be non-positive for a malformed box.
func (b BBox) Width() int { return b.X1 - b.X0 }

// Height returns Y1 - Y0. May be non-positive for a malformed box.
func (b BBox) Height() int { return b.Y1 - b.Y0 }

// Area returns Width*Height, or zero when either extent is non-positive.
func (b BBox) Area() int {
	w := b.Width()
	h := b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Valid reports whether the box has positive extent on both axes.
func (b BBox) Valid() bool { return b.X0 < b.X1 && b.Y0 < b.Y1 }

// Union returns the minimal box enclosing both b and other.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: min(b.X0, other.X0),
		Y0: min(b.Y0, other.Y0),
		X1: max(b.X1, other.X1),
		Y1: max(b.Y1, other.Y1),
	}
}

// UnionAll returns the minimal box enclosing every box in boxes,
// or the zero box when boxes is empty.
func UnionAll(boxes []BBox) BBox {
	if len(boxes) == 0 {
		return BBox{}
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out
}

// Intersects reports whether b and other share any area.
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 <= other.X0 || other.X1 <= b.X0 || b.Y1 <= other.Y0 || other.Y1 <= b.Y0)
}

// IoU returns the intersection-over-union ratio of b and other.
func (b BBox) IoU(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}
	iw := min(b.X1, other.X1) - max(b.X0, other.X0)
	ih := min(b.Y1, other.Y1) - max(b.Y0, other.Y0)
	if iw < 0 {
		iw = 0
	}
	if ih < 0 {
		ih = 0
	}
	inter := iw * ih
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// OverlapRatioX returns the horizontal overlap of b and other relative to
// the narrower box. The ratio is 0 when either box has no horizontal extent.
func (b BBox) OverlapRatioX(other BBox) float64 {
	wa := b.Width()
	wb := other.Width()
	if wa <= 0 || wb <= 0 {
		return 0
	}
	ov := min(b.X1, other.X1) - max(b.X0, other.X0)
	if ov < 0 {
		ov = 0
	}
	return float64(ov) / float64(min(wa, wb))
}

// OverlapRatioY returns the vertical overlap of b and other relative to
// the shorter box. The ratio is 0 when either box has no vertical extent.
func (b BBox) OverlapRatioY(other BBox) float64 {
	ha := b.Height()
	hb := other.Height()
	if ha <= 0 || hb <= 0 {
		return 0
	}
	ov := min(b.Y1, other.Y1) - max(b.Y0, other.Y0)
	if ov < 0 {
		ov = 0
	}
	return float64(ov) / float64(min(ha, hb))
}

// Normalized returns a copy of b with each coordinate pair swapped into
// non-decreasing order, and reports whether anything changed. This is the
// deterministic repair applied to boxes whose endpoints arrived reversed.
func (b BBox) Normalized() (BBox, bool) {
	out := b
	if out.X0 > out.X1 {
		out.X0, out.X1 = out.X1, out.X0
	}
	if out.Y0 > out.Y1 {
		out.Y0, out.Y1 = out.Y1, out.Y0
	}
	return out, out != b
}
