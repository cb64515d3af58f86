package tile

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/skyview.go/pkg/geom"
)

func TestPartition_ClipsEdges(t *testing.T) {
	tiles, err := Partition[uint16](Grid{Width: 100, Height: 50, TileWidth: 64, TileHeight: 64})
	require.NoError(t, err)
	require.Len(t, tiles, 2)

	assert.Equal(t, 0, tiles[0].Index)
	assert.Equal(t, [4]int{0, 0, 64, 50}, geometry(tiles[0]))
	assert.Equal(t, 1, tiles[1].Index)
	assert.Equal(t, [4]int{64, 0, 36, 50}, geometry(tiles[1]))
}

func TestPartition_RowMajor(t *testing.T) {
	g := Grid{Width: 130, Height: 70, TileWidth: 64, TileHeight: 32}
	tiles, err := Partition[float32](g)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Cols())
	assert.Equal(t, 3, g.Rows())
	require.Len(t, tiles, 9)

	area := 0
	for i, tl := range tiles {
		assert.Equal(t, i, tl.Index)
		assert.Equal(t, (i/3)*32, tl.Y)
		assert.Equal(t, (i%3)*64, tl.X)
		assert.Greater(t, tl.Width, 0)
		assert.Greater(t, tl.Height, 0)
		area += tl.Len()
	}
	assert.Equal(t, 130*70, area)
	assert.Equal(t, [4]int{128, 64, 2, 6}, geometry(tiles[8]))
}

func TestPartition_SmallerThanOneTile(t *testing.T) {
	tiles, err := Partition[uint8](Grid{Width: 10, Height: 7, TileWidth: 512, TileHeight: 512})
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, [4]int{0, 0, 10, 7}, geometry(tiles[0]))
}

func TestPartition_Invalid(t *testing.T) {
	_, err := Partition[uint8](Grid{Width: 0, Height: 7, TileWidth: 8, TileHeight: 8})
	assert.Error(t, err)
	_, err = Partition[uint8](Grid{Width: 8, Height: 7, TileWidth: 0, TileHeight: 8})
	assert.Error(t, err)
}

func TestTile_SetPixelsLengthMismatch(t *testing.T) {
	tl := Tile[uint16]{Width: 4, Height: 2}
	err := tl.SetPixels(make([]uint16, 7))
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.False(t, tl.PixelsLoaded)

	require.NoError(t, tl.SetPixels([]uint16{0, 1, 2, 3, 4, 5, 6, 7}))
	assert.True(t, tl.PixelsLoaded)
	assert.Equal(t, 6.0, tl.At(2, 1))
	assert.True(t, math.IsNaN(tl.At(4, 0)))
}

func TestImage_LoadAndLookup(t *testing.T) {
	g := Grid{Width: 5, Height: 3, TileWidth: 2, TileHeight: 2}
	img, err := NewImage[uint16]("img", g)
	require.NoError(t, err)
	require.Equal(t, 6, img.Len())
	assert.True(t, math.IsNaN(img.Pixel(0, 0)))

	loader := LoaderFunc[uint16](func(ctx context.Context, tl Tile[uint16]) ([]uint16, error) {
		if tl.Index == 5 {
			return nil, errors.New("boom")
		}
		px := make([]uint16, tl.Len())
		for y := 0; y < tl.Height; y++ {
			for x := 0; x < tl.Width; x++ {
				px[y*tl.Width+x] = uint16((tl.Y+y)*g.Width + tl.X + x)
			}
		}
		return px, nil
	})
	require.NoError(t, img.Load(context.Background(), loader, 2))

	assert.Equal(t, 7.0, img.Pixel(2, 1))
	assert.Equal(t, 12.0, img.Pixel(2, 2))
	assert.True(t, math.IsNaN(img.Pixel(4, 2)), "failed tile reads as NaN")
	assert.True(t, math.IsNaN(img.Pixel(5, 0)))

	failed, ok := img.Tile(5)
	require.True(t, ok)
	assert.True(t, failed.PixelLoadingFailed)
	assert.False(t, failed.PixelsLoading)
	assert.False(t, failed.PixelsLoaded)
}

func TestImage_LoadSkipsLoaded(t *testing.T) {
	img, err := NewImage[uint8]("img", Grid{Width: 4, Height: 4, TileWidth: 2, TileHeight: 2})
	require.NoError(t, err)
	var calls atomic.Int32
	loader := LoaderFunc[uint8](func(ctx context.Context, tl Tile[uint8]) ([]uint8, error) {
		calls.Add(1)
		return make([]uint8, tl.Len()), nil
	})
	require.NoError(t, img.Load(context.Background(), loader, 0))
	require.NoError(t, img.Load(context.Background(), loader, 0))
	assert.Equal(t, int32(4), calls.Load())
}

func TestImage_FindTiles(t *testing.T) {
	img, err := NewImage[uint8]("img", Grid{Width: 100, Height: 100, TileWidth: 32, TileHeight: 32})
	require.NoError(t, err)

	found := img.FindTiles(geom.Region{X: 40, Y: 10, Width: 30, Height: 30})
	var idx []int
	for _, tl := range found {
		idx = append(idx, tl.Index)
	}
	assert.Equal(t, []int{1, 2, 5, 6}, idx)

	all := img.FindTiles(geom.Region{X: -10, Y: -10, Width: 500, Height: 500})
	assert.Len(t, all, 16)
}

func geometry[T Sample](tl Tile[T]) [4]int {
	return [4]int{tl.X, tl.Y, tl.Width, tl.Height}
}
