package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jpfielding/skyview.go/pkg/hist"
	"github.com/jpfielding/skyview.go/pkg/tile"
)

// ErrTileNotLoaded is returned when a tile's raw pixels are not yet available.
var ErrTileNotLoaded = errors.New("tile pixels not loaded")

// Layer owns the normalized tiles of one image. Tiles are normalized lazily
// and independently; replacing the normalizer or the histogram drops every
// normalized buffer without touching raw pixels.
type Layer[T tile.Sample] struct {
	image *tile.Image[T]

	mu          sync.Mutex
	src         LevelSource
	normalizer  PixelNormalizer
	fingerprint string
	levels      *hist.Levels
	generation  uint64
	tiles       []tile.NormalizedTile
}

// NewLayer binds an image to a level source and a validated normalizer.
func NewLayer[T tile.Sample](img *tile.Image[T], src LevelSource, n PixelNormalizer) (*Layer[T], error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	tiles := make([]tile.NormalizedTile, img.Len())
	for i := range tiles {
		tiles[i].Index = i
	}
	return &Layer[T]{
		image:       img,
		src:         src,
		normalizer:  n,
		fingerprint: n.Fingerprint(),
		tiles:       tiles,
	}, nil
}

// Image is the raw tiled image behind the layer.
func (l *Layer[T]) Image() *tile.Image[T] {
	return l.image
}

// Normalizer returns the current normalizer.
func (l *Layer[T]) Normalizer() PixelNormalizer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.normalizer
}

// SetNormalizer replaces the normalizer. It reports whether anything changed;
// a change invalidates every normalized tile.
func (l *Layer[T]) SetNormalizer(n PixelNormalizer) (bool, error) {
	if err := n.Validate(); err != nil {
		return false, err
	}
	fp := n.Fingerprint()
	l.mu.Lock()
	defer l.mu.Unlock()
	if fp == l.fingerprint && n.ColorMap == l.normalizer.ColorMap {
		return false, nil
	}
	l.normalizer = n
	l.fingerprint = fp
	l.invalidateLocked()
	return true, nil
}

// SetLevelSource swaps the histogram and invalidates.
func (l *Layer[T]) SetLevelSource(src LevelSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.src = src
	l.invalidateLocked()
}

// Invalidate drops every normalized tile.
func (l *Layer[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invalidateLocked()
}

func (l *Layer[T]) invalidateLocked() {
	l.generation++
	l.levels = nil
	for i := range l.tiles {
		l.tiles[i].Reset()
	}
}

// Levels returns the background and peak levels for the current normalizer.
func (l *Layer[T]) Levels() (hist.Levels, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.levelsLocked()
}

func (l *Layer[T]) levelsLocked() (hist.Levels, error) {
	if l.levels != nil {
		return *l.levels, nil
	}
	lv, err := l.src.CalcLevels(l.normalizer.BackgroundPercentile, l.normalizer.PeakPercentile)
	if err != nil {
		return hist.Levels{}, fmt.Errorf("image %s: calc levels: %w", l.image.ID, err)
	}
	l.levels = &lv
	return lv, nil
}

// NormalizedTile returns a copy of normalized tile i.
func (l *Layer[T]) NormalizedTile(i int) (tile.NormalizedTile, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.tiles) {
		return tile.NormalizedTile{}, false
	}
	return l.tiles[i], true
}

// NormalizeTile returns tile i's packed colors, computing them if needed.
// Failed tiles report tile.ErrTileLoadFailed and are not retried here.
func (l *Layer[T]) NormalizeTile(ctx context.Context, i int) (tile.NormalizedTile, error) {
	raw, ok := l.image.Tile(i)
	if !ok {
		return tile.NormalizedTile{}, fmt.Errorf("image %s: tile index %d out of range", l.image.ID, i)
	}

	l.mu.Lock()
	nt := l.tiles[i]
	if nt.Normalized {
		l.mu.Unlock()
		return nt, nil
	}
	switch {
	case raw.PixelLoadingFailed:
		l.mu.Unlock()
		return nt, fmt.Errorf("image %s tile %d: %w", l.image.ID, i, tile.ErrTileLoadFailed)
	case !raw.PixelsLoaded:
		l.mu.Unlock()
		return nt, fmt.Errorf("image %s tile %d: %w", l.image.ID, i, ErrTileNotLoaded)
	}
	levels, err := l.levelsLocked()
	if err != nil {
		l.mu.Unlock()
		return nt, err
	}
	n := l.normalizer
	gen := l.generation
	l.tiles[i].Normalizing = true
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		l.finish(i, gen, nil)
		return nt, err
	}
	out := make([]uint32, len(raw.Pixels))
	err = Apply(raw.Pixels, levels, n, out)
	if err != nil {
		out = nil
	}
	res := l.finish(i, gen, out)
	if err != nil {
		return res, fmt.Errorf("image %s tile %d: %w", l.image.ID, i, err)
	}
	return res, nil
}

// finish stores a result unless the layer was invalidated meanwhile.
func (l *Layer[T]) finish(i int, gen uint64, out []uint32) tile.NormalizedTile {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return tile.NormalizedTile{Index: i, Normalized: out != nil, Pixels: out}
	}
	l.tiles[i].Normalizing = false
	if out != nil {
		l.tiles[i].Pixels = out
		l.tiles[i].Normalized = true
	}
	return l.tiles[i]
}

// NormalizeAll normalizes every loaded tile using up to workers goroutines.
// Unloaded and failed tiles are skipped. It returns the number of tiles
// normalized by this call.
func (l *Layer[T]) NormalizeAll(ctx context.Context, workers int) (int, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if _, err := l.Levels(); err != nil {
		return 0, err
	}
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < l.image.Len(); i++ {
		if nt, _ := l.NormalizedTile(i); nt.Normalized {
			continue
		}
		i := i
		g.Go(func() error {
			_, err := l.NormalizeTile(gctx, i)
			switch {
			case err == nil:
				mu.Lock()
				done++
				mu.Unlock()
				return nil
			case errors.Is(err, tile.ErrTileLoadFailed), errors.Is(err, ErrTileNotLoaded):
				slog.DebugContext(gctx, "skipping tile", "image", l.image.ID, "tile", i, "reason", err)
				return nil
			}
			return err
		})
	}
	err := g.Wait()
	return done, err
}
