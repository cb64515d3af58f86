package geom

import "math"

// Point in either image or viewport space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance between two points.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Size of a viewport in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either dimension is unusable.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Center of a viewport of this size.
func (s Size) Center() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// Rect is an axis-aligned rectangle. In image space it is a Region.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Region is a rectangle in image pixel coordinates.
type Region = Rect

// Center of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Inset shrinks each side by margin (negative grows). A dimension never
// collapses below zero; an over-inset side shrinks to the center line.
func (r Rect) Inset(margin float64) Rect {
	mx := math.Min(margin, r.Width/2)
	my := math.Min(margin, r.Height/2)
	return Rect{X: r.X + mx, Y: r.Y + my, Width: r.Width - 2*mx, Height: r.Height - 2*my}
}

// Offset moves the rectangle.
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Intersects reports whether the closed rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.Width && o.X <= r.X+r.Width &&
		r.Y <= o.Y+o.Height && o.Y <= r.Y+r.Height
}

// Bounds of a set of points.
func Bounds(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// TransformRect returns the axis-aligned bounds of r's corners under m.
func TransformRect(m Affine, r Rect) Rect {
	return Bounds(
		m.Apply(Point{X: r.X, Y: r.Y}),
		m.Apply(Point{X: r.X + r.Width, Y: r.Y}),
		m.Apply(Point{X: r.X, Y: r.Y + r.Height}),
		m.Apply(Point{X: r.X + r.Width, Y: r.Y + r.Height}),
	)
}
