// Package raster decodes image files into flat sample buffers and serves
// them to the tile loader.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/tiff"

	"github.com/jpfielding/skyview.go/pkg/tile"
)

// Raster is a single-channel image stored row-major with row 0 at the
// bottom, the layout the viewer's default vertical flip expects.
type Raster[T tile.Sample] struct {
	Width   int
	Height  int
	Samples []T
}

// New wraps bottom-up samples; len(samples) must equal width*height.
func New[T tile.Sample](width, height int, samples []T) (*Raster[T], error) {
	if width <= 0 || height <= 0 || len(samples) != width*height {
		return nil, fmt.Errorf("raster %dx%d with %d samples: %w", width, height, len(samples), tile.ErrLengthMismatch)
	}
	return &Raster[T]{Width: width, Height: height, Samples: samples}, nil
}

// ReadFile decodes a TIFF, PNG or JPEG file.
func ReadFile(path string) (*Raster[float32], string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads any registered image format into 16-bit luminance samples
// stored as float32. It returns the format name.
func Decode(r io.Reader) (*Raster[float32], string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return FromImage(img), format, nil
}

// FromImage converts img to luminance samples. Decoded images are top-down,
// so rows are reversed on the way in.
func FromImage(img image.Image) *Raster[float32] {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &Raster[float32]{Width: w, Height: h, Samples: make([]float32, w*h)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := out.Samples[(h-1-(y-b.Min.Y))*w:][:w]
		switch src := img.(type) {
		case *image.Gray16:
			for x := range row {
				row[x] = float32(src.Gray16At(b.Min.X+x, y).Y)
			}
		case *image.Gray:
			for x := range row {
				row[x] = float32(src.GrayAt(b.Min.X+x, y).Y) * 257
			}
		default:
			for x := range row {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, y)).(color.Gray16)
				row[x] = float32(g.Y)
			}
		}
	}
	return out
}

// Grid lays the raster out in tiles of the given size.
func (r *Raster[T]) Grid(tileWidth, tileHeight int) tile.Grid {
	return tile.Grid{Width: r.Width, Height: r.Height, TileWidth: tileWidth, TileHeight: tileHeight}
}

// LoadTile copies one tile's samples out of the raster.
func (r *Raster[T]) LoadTile(ctx context.Context, t tile.Tile[T]) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.X < 0 || t.Y < 0 || t.X+t.Width > r.Width || t.Y+t.Height > r.Height {
		return nil, fmt.Errorf("tile %d (%d,%d %dx%d) outside %dx%d raster", t.Index, t.X, t.Y, t.Width, t.Height, r.Width, r.Height)
	}
	out := make([]T, t.Len())
	for row := 0; row < t.Height; row++ {
		src := (t.Y+row)*r.Width + t.X
		copy(out[row*t.Width:(row+1)*t.Width], r.Samples[src:src+t.Width])
	}
	return out, nil
}

var _ tile.Loader[float32] = (*Raster[float32])(nil)
