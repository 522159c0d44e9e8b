package model

import "math"

// Point represents a 2D point in page space.
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// BBox is an axis-aligned bounding box. The page coordinate space has its
// origin at the top-left corner with y increasing downward, so Y is the top
// edge and Y+Height the bottom edge.
type BBox struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from its top-left corner and size.
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// NewBBoxFromPoints creates the smallest bounding box covering two points.
func NewBBoxFromPoints(p1, p2 Point) BBox {
	x := math.Min(p1.X, p2.X)
	y := math.Min(p1.Y, p2.Y)
	width := math.Abs(p2.X - p1.X)
	height := math.Abs(p2.Y - p1.Y)
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate.
func (b BBox) Left() float64 {
	return b.X
}

// Right returns the right edge X coordinate.
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Top returns the top edge Y coordinate.
func (b BBox) Top() float64 {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate.
func (b BBox) Bottom() float64 {
	return b.Y + b.Height
}

// Center returns the center point.
func (b BBox) Center() Point {
	return Point{
		X: b.X + b.Width/2,
		Y: b.Y + b.Height/2,
	}
}

// Contains checks if a point is inside the bounding box.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Top() && p.Y <= b.Bottom()
}

// Intersects checks if two bounding boxes intersect.
func (b BBox) Intersects(other BBox) bool {
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Bottom() < other.Top() ||
		b.Top() > other.Bottom())
}

// Intersection returns the intersection of two bounding boxes, or a zero
// box when they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}

	x := math.Max(b.Left(), other.Left())
	y := math.Max(b.Top(), other.Top())
	right := math.Min(b.Right(), other.Right())
	bottom := math.Min(b.Bottom(), other.Bottom())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
	}
}

// Union returns the smallest bounding box covering both boxes.
func (b BBox) Union(other BBox) BBox {
	x := math.Min(b.Left(), other.Left())
	y := math.Min(b.Top(), other.Top())
	right := math.Max(b.Right(), other.Right())
	bottom := math.Max(b.Bottom(), other.Bottom())

	return BBox{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
	}
}

// Area returns the area of the bounding box.
func (b BBox) Area() float64 {
	return b.Width * b.Height
}

// Expand grows the bounding box by a margin on all sides.
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		X:      b.X - margin,
		Y:      b.Y - margin,
		Width:  b.Width + 2*margin,
		Height: b.Height + 2*margin,
	}
}

// OverlapRatio calculates the overlap ratio with another box, defined as the
// intersection area divided by the smaller box's area. Returns 0 to 1.
func (b BBox) OverlapRatio(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}

	intersection := b.Intersection(other)
	minArea := math.Min(b.Area(), other.Area())

	if minArea == 0 {
		return 0
	}

	return intersection.Area() / minArea
}

// ContainsBox reports whether at least the given fraction of other's area
// lies inside b. A threshold of 1 requires full containment, 0 any overlap.
func (b BBox) ContainsBox(other BBox, threshold float64) bool {
	if other.Area() == 0 {
		return b.Contains(other.Center())
	}
	inter := b.Intersection(other)
	return inter.Area() >= threshold*other.Area()
}

// IsEmpty returns true if the bounding box has zero or negative area.
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// IsValid returns true if the bounding box has positive dimensions.
func (b BBox) IsValid() bool {
	return b.Width > 0 && b.Height > 0
}

// IsFinite reports whether all four fields are finite numbers.
func (b BBox) IsFinite() bool {
	for _, v := range [4]float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// VerticalOverlap returns the length of the vertical interval shared by the
// two boxes, or 0 when they do not overlap vertically.
func (b BBox) VerticalOverlap(other BBox) float64 {
	top := math.Max(b.Top(), other.Top())
	bottom := math.Min(b.Bottom(), other.Bottom())
	if bottom <= top {
		return 0
	}
	return bottom - top
}

// HorizontalOverlap returns the length of the horizontal interval shared by
// the two boxes, or 0 when they do not overlap horizontally.
func (b BBox) HorizontalOverlap(other BBox) float64 {
	left := math.Max(b.Left(), other.Left())
	right := math.Min(b.Right(), other.Right())
	if right <= left {
		return 0
	}
	return right - left
}

// Segment is a straight stroked segment derived from a Path. Grid and
// decoration inference work on segments rather than whole paths.
type Segment struct {
	Start Point
	End   Point
	Width float64
	Color Color
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// IsHorizontal reports whether the segment deviates from horizontal by at
// most tol in y.
func (s Segment) IsHorizontal(tol float64) bool {
	return math.Abs(s.End.Y-s.Start.Y) <= tol
}

// IsVertical reports whether the segment deviates from vertical by at most
// tol in x.
func (s Segment) IsVertical(tol float64) bool {
	return math.Abs(s.End.X-s.Start.X) <= tol
}

// Bounds returns the bounding box of the segment. The box of a horizontal or
// vertical segment is flat along one axis.
func (s Segment) Bounds() BBox {
	return NewBBoxFromPoints(s.Start, s.End)
}

// Position returns the segment's constant coordinate: the mean y for a
// horizontal segment, the mean x for a vertical one.
func (s Segment) Position(horizontal bool) float64 {
	if horizontal {
		return (s.Start.Y + s.End.Y) / 2
	}
	return (s.Start.X + s.End.X) / 2
}
