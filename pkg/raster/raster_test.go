package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/skyview.go/pkg/tile"
)

func TestDecode_Gray16PNG(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 0})
	img.SetGray16(1, 0, color.Gray16{Y: 1000})
	img.SetGray16(2, 1, color.Gray16{Y: 65535})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	r, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 3, r.Width)
	assert.Equal(t, 2, r.Height)
	// bottom image row first
	assert.Equal(t, []float32{0, 0, 65535, 0, 1000, 0}, r.Samples)
}

func TestFromImage_Gray8Widens(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(1, 0, color.Gray{Y: 255})
	r := FromImage(img)
	assert.Equal(t, []float32{0, 65535}, r.Samples)
}

func TestFromImage_RowsBottomUp(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 12, 23))
	for x := 10; x < 12; x++ {
		img.SetGray(x, 20, color.Gray{Y: 3})
		img.SetGray(x, 22, color.Gray{Y: 1})
	}
	r := FromImage(img)
	assert.Equal(t, 2, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Equal(t, []float32{257, 257, 0, 0, 3 * 257, 3 * 257}, r.Samples)
}

func TestDecode_Garbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestLoadTile(t *testing.T) {
	samples := make([]uint16, 5*3)
	for i := range samples {
		samples[i] = uint16(i)
	}
	r, err := New(5, 3, samples)
	require.NoError(t, err)

	img, err := tile.NewImage[uint16]("r", r.Grid(2, 2))
	require.NoError(t, err)
	require.NoError(t, img.Load(context.Background(), r, 0))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, float64(y*5+x), img.Pixel(x, y))
		}
	}

	_, err = r.LoadTile(context.Background(), tile.Tile[uint16]{X: 4, Width: 2, Height: 1})
	assert.Error(t, err)

	_, err = New(2, 2, []uint16{1})
	assert.ErrorIs(t, err, tile.ErrLengthMismatch)
}
