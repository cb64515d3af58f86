// Package viewer maintains the geometric mapping from image pixels to an
// on-screen viewport for each displayed layer: pan, zoom, rotate, flip and
// region centering.
package viewer

import (
	"math"

	"github.com/jpfielding/skyview.go/pkg/geom"
)

const (
	// PanMargin is how far (viewport px) the image bounds are shrunk before
	// checking that a pan keeps the image on screen.
	PanMargin = 50.0
	// CenterMargin is the padding left around a centered region.
	CenterMargin = 20.0
)

// State is the transform state of one layer. It is a value: every operation
// returns a new State and reports whether anything changed.
// ImageToViewport always equals Compose(ViewportTransform, ImageTransform).
type State struct {
	ImageWidth  float64
	ImageHeight float64

	ImageTransform    geom.Affine
	ViewportTransform geom.Affine
	ImageToViewport   geom.Affine
	ViewportSize      geom.Size
}

// NewState builds the initial state of a width x height image: a vertical
// flip into bottom-left origin space and an identity viewport transform.
func NewState(width, height float64) State {
	return State{
		ImageWidth:        width,
		ImageHeight:       height,
		ImageTransform:    geom.VerticalFlip(height),
		ViewportTransform: geom.Identity(),
	}.recompose()
}

func (s State) recompose() State {
	s.ImageToViewport = geom.Compose(s.ViewportTransform, s.ImageTransform)
	return s
}

// Scale is the current on-screen size of one image pixel.
func (s State) Scale() float64 {
	return s.ImageToViewport.ScaleFactor()
}

// ResetImageTransform restores the default vertical flip.
func (s State) ResetImageTransform() State {
	s.ImageTransform = geom.VerticalFlip(s.ImageHeight)
	return s.recompose()
}

// ResetViewportTransform restores the identity viewport transform.
func (s State) ResetViewportTransform() State {
	s.ViewportTransform = geom.Identity()
	return s.recompose()
}

// WithImageTransform replaces the image transform verbatim.
func (s State) WithImageTransform(t geom.Affine) State {
	s.ImageTransform = t
	return s.recompose()
}

// WithViewportTransform replaces the viewport transform verbatim.
func (s State) WithViewportTransform(t geom.Affine) State {
	s.ViewportTransform = t
	return s.recompose()
}

// WithViewportSize stores the hosting view's pixel size.
func (s State) WithViewportSize(size geom.Size) State {
	s.ViewportSize = size
	return s
}

func (s State) anchorOrCenter(anchor *geom.Point) geom.Point {
	if anchor != nil {
		return *anchor
	}
	return s.ViewportSize.Center()
}

// zoomLimits reports whether one pixel already covers a viewport dimension
// and whether the whole image already fits inside the viewport.
func (s State) zoomLimits() (atMax, atMin bool) {
	m := s.ImageToViewport
	ul := m.Apply(geom.Point{X: 0.5, Y: 0.5})
	pixel := ul.Distance(m.Apply(geom.Point{X: 1.5, Y: 1.5}))
	atMax = pixel >= s.ViewportSize.Width || pixel >= s.ViewportSize.Height

	image := ul.Distance(m.Apply(geom.Point{X: s.ImageWidth - 0.5, Y: s.ImageHeight - 0.5}))
	atMin = image < s.ViewportSize.Width && image < s.ViewportSize.Height
	return atMax, atMin
}

// ZoomBy scales the viewport transform by factor about anchor (viewport
// coordinates, default the viewport center). Zooming in past one pixel per
// viewport, or out once the image fits, is rejected.
func (s State) ZoomBy(factor float64, anchor *geom.Point) (State, bool) {
	if factor == 1 || factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) || s.ViewportSize.IsZero() {
		return s, false
	}
	atMax, atMin := s.zoomLimits()
	if (factor > 1 && atMax) || (factor < 1 && atMin) {
		return s, false
	}
	inv, ok := s.ViewportTransform.Invert()
	if !ok {
		return s, false
	}
	local := inv.Apply(s.anchorOrCenter(anchor))
	s.ViewportTransform = s.ViewportTransform.ScaleAbout(factor, factor, local)
	return s.recompose(), true
}

// ZoomTo zooms so one image pixel spans scale viewport pixels.
func (s State) ZoomTo(scale float64, anchor *geom.Point) (State, bool) {
	current := s.Scale()
	if current == 0 || scale <= 0 {
		return s, false
	}
	return s.ZoomBy(scale/current, anchor)
}

// MoveBy pans by (dx, dy) viewport pixels unless that would push the image,
// shrunk by PanMargin, completely out of the viewport.
func (s State) MoveBy(dx, dy float64) (State, bool) {
	if (dx == 0 && dy == 0) || s.ViewportSize.IsZero() {
		return s, false
	}
	imageRect := geom.TransformRect(s.ImageToViewport, geom.Rect{Width: s.ImageWidth, Height: s.ImageHeight}).
		Inset(PanMargin).
		Offset(dx, dy)
	viewportRect := geom.Rect{Width: s.ViewportSize.Width, Height: s.ViewportSize.Height}
	if !imageRect.Intersects(viewportRect) {
		return s, false
	}
	inv, ok := s.ViewportTransform.Linear().Invert()
	if !ok {
		return s, false
	}
	shift := inv.Apply(geom.Point{X: dx, Y: dy})
	s.ViewportTransform = s.ViewportTransform.Translate(shift.X, shift.Y)
	return s.recompose(), true
}

// CenterRegionInViewport resets the image transform and fits region (image
// pixel coordinates) into the viewport, centered, with CenterMargin padding.
func (s State) CenterRegionInViewport(region geom.Region, size *geom.Size) (State, bool) {
	vs := s.ViewportSize
	if size != nil {
		vs = *size
	}
	if vs.IsZero() || region.Width <= 0 || region.Height <= 0 {
		return s, false
	}
	scale := math.Min((vs.Width-CenterMargin)/region.Width, (vs.Height-CenterMargin)/region.Height)
	if scale <= 0 {
		return s, false
	}
	c := region.Center()
	center := vs.Center()
	s.ViewportSize = vs
	s.ImageTransform = geom.VerticalFlip(s.ImageHeight)
	s.ViewportTransform = geom.NewAffine(scale, 0, 0, scale,
		center.X-scale*c.X,
		center.Y-scale*(s.ImageHeight-c.Y))
	return s.recompose(), true
}

// RotateBy rotates the image transform by deg degrees about anchor (viewport
// coordinates, default the viewport center); the anchor stays put on screen.
func (s State) RotateBy(deg float64, anchor *geom.Point) (State, bool) {
	if deg == 0 || math.IsNaN(deg) || math.IsInf(deg, 0) || (anchor == nil && s.ViewportSize.IsZero()) {
		return s, false
	}
	inv, ok := s.ImageToViewport.Invert()
	if !ok {
		return s, false
	}
	local := inv.Apply(s.anchorOrCenter(anchor))
	s.ImageTransform = s.ImageTransform.RotateAbout(deg, local)
	return s.recompose(), true
}

// Flip mirrors the image about its vertical centerline, keeping the
// vertical flip already in the image transform.
func (s State) Flip() State {
	axis := geom.Point{X: s.ImageWidth / 2, Y: s.ImageHeight / 2}
	s.ImageTransform = s.ImageTransform.ScaleAbout(-1, 1, axis)
	return s.recompose()
}

// ViewportRegion is the visible part of the image in pixel coordinates.
func (s State) ViewportRegion() geom.Region {
	return GetViewportRegion(s, s.ImageWidth, s.ImageHeight)
}

// Consistent reports whether ImageToViewport matches its factors within tol.
func (s State) Consistent(tol float64) bool {
	return s.ImageToViewport.ApproxEqual(geom.Compose(s.ViewportTransform, s.ImageTransform), tol)
}
