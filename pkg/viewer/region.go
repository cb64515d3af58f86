package viewer

import (
	"math"

	"github.com/jpfielding/skyview.go/pkg/geom"
)

// GetViewportRegion inverse-maps the visible viewport rectangle into image
// pixel space and clips it to the image. Coordinates are 1-based pixel
// centers offset by half a pixel, so a full view of a WxH image spans
// [0.5, W+0.5] x [0.5, H+0.5]. A singular transform yields an empty region.
func GetViewportRegion(s State, imageWidth, imageHeight float64) geom.Region {
	inv, ok := s.ImageToViewport.Invert()
	if !ok {
		return geom.Region{}
	}
	vw, vh := s.ViewportSize.Width, s.ViewportSize.Height
	corners := []geom.Point{
		inv.Apply(geom.Point{X: 0.5, Y: 0.5}),
		inv.Apply(geom.Point{X: vw + 0.5, Y: 0.5}),
		inv.Apply(geom.Point{X: 0.5, Y: vh + 0.5}),
		inv.Apply(geom.Point{X: vw + 0.5, Y: vh + 0.5}),
	}
	for i := range corners {
		corners[i].X += 0.5
		corners[i].Y += 0.5
	}
	b := geom.Bounds(corners...)
	x := math.Max(0.5, b.X)
	y := math.Max(0.5, b.Y)
	return geom.Region{
		X:      x,
		Y:      y,
		Width:  math.Max(0, math.Min(imageWidth+0.5, b.X+b.Width)-x),
		Height: math.Max(0, math.Min(imageHeight+0.5, b.Y+b.Height)-y),
	}
}

// RegionToViewport maps an image region to its axis-aligned bounds in viewport space.
func RegionToViewport(s State, r geom.Region) geom.Rect {
	return geom.TransformRect(s.ImageToViewport, r)
}

// ViewportToRegion maps a viewport rectangle to its axis-aligned bounds in
// image pixel space; false when the transform is singular.
func ViewportToRegion(s State, r geom.Rect) (geom.Region, bool) {
	inv, ok := s.ImageToViewport.Invert()
	if !ok {
		return geom.Region{}, false
	}
	return geom.TransformRect(inv, r), true
}
