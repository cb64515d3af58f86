package normalize

import (
	"fmt"
	"math"

	"github.com/jpfielding/skyview.go/pkg/hist"
	"github.com/jpfielding/skyview.go/pkg/tile"
)

// normScale is the intermediate fixed-point range between stretch and color lookup.
const normScale = 65535.0

// LevelSource turns percentiles into intensity levels. *hist.Histogram is one.
type LevelSource interface {
	CalcLevels(backgroundPercentile, peakPercentile float64) (hist.Levels, error)
}

// Normalize maps pixels to packed colors using levels looked up from src.
func Normalize[T tile.Sample](pixels []T, src LevelSource, n PixelNormalizer) ([]uint32, error) {
	out := make([]uint32, len(pixels))
	if err := NormalizeInto(pixels, src, n, out); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeInto is Normalize writing into a caller-owned buffer of equal length.
func NormalizeInto[T tile.Sample](pixels []T, src LevelSource, n PixelNormalizer, out []uint32) error {
	if err := n.Validate(); err != nil {
		return err
	}
	levels, err := src.CalcLevels(n.BackgroundPercentile, n.PeakPercentile)
	if err != nil {
		return fmt.Errorf("calc levels: %w", err)
	}
	return Apply(pixels, levels, n, out)
}

// Apply maps pixels to packed colors with already-resolved levels.
//
// The user's inversion preference swaps the roles of the two levels. Separately,
// when the (possibly swapped) background sits above the peak the range is taken
// from the lower level and the color index is mirrored, so the ramp always runs
// from background to peak. A zero range becomes a step at the level.
// NaN samples become 0, a fully transparent color.
func Apply[T tile.Sample](pixels []T, levels hist.Levels, n PixelNormalizer, out []uint32) error {
	if len(out) != len(pixels) {
		return fmt.Errorf("%d pixels, %d outputs: %w", len(pixels), len(out), ErrLengthMismatch)
	}
	if !finite(levels.Background) || !finite(levels.Peak) {
		return fmt.Errorf("non-finite levels %+v: %w", levels, ErrInvalidConfig)
	}
	if n.ColorMap == nil || n.ColorMap.Len() == 0 {
		return fmt.Errorf("missing color map: %w", ErrInvalidConfig)
	}
	stretch, err := n.StretchMode.Func()
	if err != nil {
		return err
	}

	background, peak := levels.Background, levels.Peak
	if n.Inverted {
		background, peak = peak, background
	}
	descending := background > peak
	lo, hi := background, peak
	if descending {
		lo, hi = peak, background
	}
	span := hi - lo

	lookup := n.ColorMap.Lookup
	maxIndex := float64(len(lookup) - 1)
	for i, s := range pixels {
		v := float64(s)
		if math.IsNaN(v) {
			out[i] = 0
			continue
		}
		var x float64
		switch {
		case span > 0:
			x = clamp((v-lo)/span, 0, 1)
		case v > lo:
			x = 1
		}
		norm := clamp(stretch(x)*normScale, 0, normScale)
		index := norm * maxIndex / normScale
		if descending {
			index = maxIndex - index
		}
		out[i] = lookup[int(index)]
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
