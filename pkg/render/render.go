// Package render turns normalized tiles into RGBA images and resamples them
// into a viewport.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/jpfielding/skyview.go/pkg/geom"
	"github.com/jpfielding/skyview.go/pkg/normalize"
	"github.com/jpfielding/skyview.go/pkg/tile"
	"github.com/jpfielding/skyview.go/pkg/viewer"
)

// Quality selects the resampling kernel.
type Quality int

const (
	Nearest Quality = iota
	Bilinear
	CatmullRom
)

var qualityNames = map[Quality]string{
	Nearest:    "nearest",
	Bilinear:   "bilinear",
	CatmullRom: "catmullrom",
}

func (q Quality) String() string {
	if s, ok := qualityNames[q]; ok {
		return s
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality accepts the names printed by String.
func ParseQuality(s string) (Quality, error) {
	for q, name := range qualityNames {
		if strings.EqualFold(s, name) {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown quality %q", s)
}

func (q Quality) interpolator() draw.Interpolator {
	switch q {
	case Bilinear:
		return draw.BiLinear
	case CatmullRom:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// PutTile copies a normalized tile into dst at the raw tile's offset.
// Packed colors are 0xAABBGGRR, the byte order of image.RGBA.
func PutTile[T tile.Sample](dst *image.RGBA, raw tile.Tile[T], nt tile.NormalizedTile) {
	for y := 0; y < raw.Height; y++ {
		for x := 0; x < raw.Width; x++ {
			i := y*raw.Width + x
			if i >= len(nt.Pixels) {
				return
			}
			o := dst.PixOffset(raw.X+x, raw.Y+y)
			p := nt.Pixels[i]
			dst.Pix[o+0] = uint8(p)
			dst.Pix[o+1] = uint8(p >> 8)
			dst.Pix[o+2] = uint8(p >> 16)
			dst.Pix[o+3] = uint8(p >> 24)
		}
	}
}

// Mosaic assembles every normalized tile of a layer into one image. Tiles
// that are not normalized stay transparent.
func Mosaic[T tile.Sample](l *normalize.Layer[T]) *image.RGBA {
	img := l.Image()
	dst := image.NewRGBA(image.Rect(0, 0, img.Grid.Width, img.Grid.Height))
	for _, t := range img.Tiles() {
		nt, ok := l.NormalizedTile(t.Index)
		if !ok || !nt.Normalized {
			continue
		}
		PutTile(dst, t, nt)
	}
	return dst
}

// Viewport resamples src through the state's composed transform into a new
// image of the viewport's size, filled with bg where no pixel lands.
func Viewport(src image.Image, s viewer.State, q Quality, bg color.Color) (*image.RGBA, error) {
	if s.ViewportSize.IsZero() {
		return nil, fmt.Errorf("viewport size is not set")
	}
	if !s.ImageToViewport.IsInvertible() {
		return nil, fmt.Errorf("image to viewport transform is singular")
	}
	w, h := int(s.ViewportSize.Width+0.5), int(s.ViewportSize.Height+0.5)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	q.interpolator().Transform(dst, Aff3(s.ImageToViewport), src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

// Aff3 converts an affine to the row-major layout x/image expects.
func Aff3(m geom.Affine) f64.Aff3 {
	return f64.Aff3{m.A(), m.C(), m.TX(), m.B(), m.D(), m.TY()}
}
