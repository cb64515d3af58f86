package tile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jpfielding/skyview.go/pkg/geom"
)

// Loader fetches the raw samples of one tile. Implementations are called
// concurrently for distinct tiles.
type Loader[T Sample] interface {
	LoadTile(ctx context.Context, t Tile[T]) ([]T, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[T Sample] func(ctx context.Context, t Tile[T]) ([]T, error)

func (f LoaderFunc[T]) LoadTile(ctx context.Context, t Tile[T]) ([]T, error) {
	return f(ctx, t)
}

// Image is a tiled raster. Tile state is guarded so loads and readers may
// run on different goroutines; pixel buffers are read-only once loaded.
type Image[T Sample] struct {
	ID   string
	Grid Grid

	mu    sync.RWMutex
	tiles []Tile[T]
}

// NewImage partitions a WxH image into tiles.
func NewImage[T Sample](id string, g Grid) (*Image[T], error) {
	tiles, err := Partition[T](g)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", id, err)
	}
	return &Image[T]{ID: id, Grid: g, tiles: tiles}, nil
}

// Len is the number of tiles.
func (img *Image[T]) Len() int {
	return len(img.tiles)
}

// Tile returns a copy of tile i.
func (img *Image[T]) Tile(i int) (Tile[T], bool) {
	img.mu.RLock()
	defer img.mu.RUnlock()
	if i < 0 || i >= len(img.tiles) {
		return Tile[T]{}, false
	}
	return img.tiles[i], true
}

// Tiles returns a copy of every tile.
func (img *Image[T]) Tiles() []Tile[T] {
	img.mu.RLock()
	defer img.mu.RUnlock()
	out := make([]Tile[T], len(img.tiles))
	copy(out, img.tiles)
	return out
}

// TileAt returns the tile at grid column i, row j.
func (img *Image[T]) TileAt(i, j int) (Tile[T], bool) {
	if i < 0 || j < 0 || i >= img.Grid.Cols() || j >= img.Grid.Rows() {
		return Tile[T]{}, false
	}
	return img.Tile(j*img.Grid.Cols() + i)
}

// SetPixels stores pixels for tile i.
func (img *Image[T]) SetPixels(i int, pixels []T) error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if i < 0 || i >= len(img.tiles) {
		return fmt.Errorf("image %s: tile index %d out of range", img.ID, i)
	}
	return img.tiles[i].SetPixels(pixels)
}

// MarkFailed flags tile i as failed; its normalization will be skipped.
func (img *Image[T]) MarkFailed(i int) {
	img.mu.Lock()
	defer img.mu.Unlock()
	if i >= 0 && i < len(img.tiles) {
		img.tiles[i].PixelsLoading = false
		img.tiles[i].PixelLoadingFailed = true
	}
}

// FindTiles returns the tiles overlapping region.
func (img *Image[T]) FindTiles(region geom.Region) []Tile[T] {
	g := img.Grid
	cols, rows := g.Cols(), g.Rows()
	jStart := max(0, int(math.Floor(region.Y/float64(g.TileHeight))))
	jEnd := min(rows-1, int(math.Floor((region.Y+region.Height)/float64(g.TileHeight)))) + 1
	iStart := max(0, int(math.Floor(region.X/float64(g.TileWidth))))
	iEnd := min(cols-1, int(math.Floor((region.X+region.Width)/float64(g.TileWidth)))) + 1

	img.mu.RLock()
	defer img.mu.RUnlock()
	var result []Tile[T]
	for j := jStart; j < jEnd; j++ {
		for i := iStart; i < iEnd; i++ {
			result = append(result, img.tiles[j*cols+i])
		}
	}
	return result
}

// Pixel returns the raw sample at image coordinate (x, y), NaN when the
// owning tile is not loaded.
func (img *Image[T]) Pixel(x, y int) float64 {
	if x < 0 || y < 0 || x >= img.Grid.Width || y >= img.Grid.Height {
		return math.NaN()
	}
	t, ok := img.TileAt(x/img.Grid.TileWidth, y/img.Grid.TileHeight)
	if !ok {
		return math.NaN()
	}
	return t.At(x-t.X, y-t.Y)
}

// Load fetches every tile that is neither loaded nor in flight, at most
// workers at a time. A failing tile is flagged and does not stop the others;
// the returned error only reports context cancellation.
func (img *Image[T]) Load(ctx context.Context, loader Loader[T], workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var pending []Tile[T]
	img.mu.Lock()
	for i := range img.tiles {
		t := &img.tiles[i]
		if t.PixelsLoaded || t.PixelsLoading {
			continue
		}
		t.PixelsLoading = true
		t.PixelLoadingFailed = false
		pending = append(pending, *t)
	}
	img.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range pending {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				img.MarkFailed(t.Index)
				return err
			}
			pixels, err := loader.LoadTile(gctx, t)
			if err == nil {
				err = img.SetPixels(t.Index, pixels)
			}
			if err != nil {
				slog.WarnContext(gctx, "tile load failed", "image", img.ID, "tile", t.Index, "error", err)
				img.MarkFailed(t.Index)
			}
			return nil
		})
	}
	return g.Wait()
}
