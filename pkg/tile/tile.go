// Package tile splits large rasters into a grid of rectangular tiles and
// tracks per-tile load and normalization state.
package tile

import (
	"errors"
	"fmt"
	"math"

	"github.com/jpfielding/skyview.go/pkg/geom"
)

var (
	// ErrLengthMismatch is returned when a pixel buffer does not match tile geometry.
	ErrLengthMismatch = errors.New("pixel buffer length does not match tile geometry")
	// ErrTileLoadFailed marks a tile whose pixels could not be loaded.
	ErrTileLoadFailed = errors.New("tile pixel loading failed")
)

// Sample is the set of raw element types a raster may carry.
type Sample interface {
	~uint8 | ~uint16 | ~uint32 | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Tile is one rectangular piece of an image's raw pixel grid.
type Tile[T Sample] struct {
	Index  int
	X      int
	Y      int
	Width  int
	Height int

	PixelsLoaded       bool
	PixelsLoading      bool
	PixelLoadingFailed bool
	Pixels             []T
}

// Len is the number of samples the tile holds once loaded.
func (t *Tile[T]) Len() int {
	return t.Width * t.Height
}

// Bounds of the tile in image pixel space.
func (t *Tile[T]) Bounds() geom.Region {
	return geom.Region{X: float64(t.X), Y: float64(t.Y), Width: float64(t.Width), Height: float64(t.Height)}
}

// SetPixels takes ownership of pixels and marks the tile loaded.
func (t *Tile[T]) SetPixels(pixels []T) error {
	if len(pixels) != t.Len() {
		return fmt.Errorf("tile %d: got %d samples, want %dx%d: %w", t.Index, len(pixels), t.Width, t.Height, ErrLengthMismatch)
	}
	t.Pixels = pixels
	t.PixelsLoaded = true
	t.PixelsLoading = false
	t.PixelLoadingFailed = false
	return nil
}

// At returns the sample at tile-local (x, y), or NaN when not loaded or out of range.
func (t *Tile[T]) At(x, y int) float64 {
	if !t.PixelsLoaded || x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return math.NaN()
	}
	return float64(t.Pixels[y*t.Width+x])
}

// NormalizedTile holds the packed display colors computed from a Tile.
type NormalizedTile struct {
	Index       int
	Normalized  bool
	Normalizing bool
	Pixels      []uint32
}

// Reset drops the packed buffer and clears the flags.
func (n *NormalizedTile) Reset() {
	n.Normalized = false
	n.Normalizing = false
	n.Pixels = nil
}

// Grid is the tile layout of an image.
type Grid struct {
	Width      int
	Height     int
	TileWidth  int
	TileHeight int
}

// Cols is the number of tile columns.
func (g Grid) Cols() int {
	return ceilDiv(g.Width, g.TileWidth)
}

// Rows is the number of tile rows.
func (g Grid) Rows() int {
	return ceilDiv(g.Height, g.TileHeight)
}

// Len is the total tile count.
func (g Grid) Len() int {
	return g.Cols() * g.Rows()
}

// Validate rejects grids that cannot be partitioned.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", g.Width, g.Height)
	}
	if g.TileWidth <= 0 || g.TileHeight <= 0 {
		return fmt.Errorf("invalid tile size %dx%d", g.TileWidth, g.TileHeight)
	}
	return nil
}

// Partition lays out the tiles of a WxH image, row-major, clipping the last
// row and column to the image bounds.
func Partition[T Sample](g Grid) ([]Tile[T], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	cols, rows := g.Cols(), g.Rows()
	tiles := make([]Tile[T], 0, cols*rows)
	for row := 0; row < rows; row++ {
		th := g.TileHeight
		if row == rows-1 {
			th = g.Height - row*g.TileHeight
		}
		for col := 0; col < cols; col++ {
			tw := g.TileWidth
			if col == cols-1 {
				tw = g.Width - col*g.TileWidth
			}
			tiles = append(tiles, Tile[T]{
				Index:  row*cols + col,
				X:      col * g.TileWidth,
				Y:      row * g.TileHeight,
				Width:  tw,
				Height: th,
			})
		}
	}
	return tiles, nil
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
