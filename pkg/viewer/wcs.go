package viewer

import (
	"fmt"

	"github.com/jpfielding/skyview.go/pkg/geom"
)

// WCS converts between image pixel coordinates and sky coordinates. It is
// supplied by an astrometry collaborator and treated as opaque here.
type WCS interface {
	PixelToWorld(x, y float64) (ra, dec float64, err error)
	WorldToPixel(ra, dec float64) (x, y float64, err error)
}

// SkyPoint is a right ascension / declination pair in degrees.
type SkyPoint struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// WorldRegion returns the pixel-space bounds of a set of sky points.
func WorldRegion(wcs WCS, pts ...SkyPoint) (geom.Region, error) {
	if len(pts) == 0 {
		return geom.Region{}, fmt.Errorf("no sky points")
	}
	px := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		x, y, err := wcs.WorldToPixel(p.RA, p.Dec)
		if err != nil {
			return geom.Region{}, fmt.Errorf("world to pixel (%v, %v): %w", p.RA, p.Dec, err)
		}
		px = append(px, geom.Point{X: x, Y: y})
	}
	return geom.Bounds(px...), nil
}

// CenterWorldRegion centers the pixel bounds of the given sky points.
func (e *Engine) CenterWorldRegion(id string, wcs WCS, pts ...SkyPoint) (bool, error) {
	r, err := WorldRegion(wcs, pts...)
	if err != nil {
		return false, err
	}
	return e.CenterRegionInViewport(id, r, nil), nil
}

// ViewportCenterWorld reports the sky position under the viewport center.
func (e *Engine) ViewportCenterWorld(id string, wcs WCS) (SkyPoint, bool, error) {
	s, ok := e.State(id)
	if !ok || s.ViewportSize.IsZero() {
		return SkyPoint{}, false, nil
	}
	inv, ok := s.ImageToViewport.Invert()
	if !ok {
		return SkyPoint{}, false, nil
	}
	p := inv.Apply(s.ViewportSize.Center())
	ra, dec, err := wcs.PixelToWorld(p.X, p.Y)
	if err != nil {
		return SkyPoint{}, false, fmt.Errorf("pixel to world (%v, %v): %w", p.X, p.Y, err)
	}
	return SkyPoint{RA: ra, Dec: dec}, true, nil
}
