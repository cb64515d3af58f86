// Package hist holds image histograms and the percentile <-> level lookups
// used to choose display background and peak levels.
package hist

import (
	"errors"
	"fmt"
	"math"

	"github.com/jpfielding/skyview.go/pkg/tile"
)

// ErrEmptyHistogram is returned when no counts are available.
var ErrEmptyHistogram = errors.New("histogram has no counts")

// Levels are raw intensity values.
type Levels struct {
	Background float64 `json:"backgroundLevel"`
	Peak       float64 `json:"peakLevel"`
}

// Percentiles are cumulative count percentages in [0, 100].
type Percentiles struct {
	Background float64 `json:"backgroundPercentile"`
	Peak       float64 `json:"peakPercentile"`
}

// Histogram is a set of equal-width bins spanning [MinBin, MaxBin].
type Histogram struct {
	Data   []float64 `json:"data"`
	MinBin float64   `json:"minBin"`
	MaxBin float64   `json:"maxBin"`
}

// NumBins is the bin count.
func (h *Histogram) NumBins() int {
	return len(h.Data)
}

// CountsPerBin is the bin width in sample units.
func (h *Histogram) CountsPerBin() float64 {
	if h.NumBins() == 0 {
		return 0
	}
	return (h.MaxBin - h.MinBin) / float64(h.NumBins())
}

func (h *Histogram) BinLeft(i int) float64 {
	return h.MinBin + float64(i)*h.CountsPerBin()
}

func (h *Histogram) BinRight(i int) float64 {
	return h.BinLeft(i + 1)
}

func (h *Histogram) BinCenter(i int) float64 {
	return (h.BinLeft(i) + h.BinRight(i)) / 2
}

// FindBin clamps value into a bin index.
func (h *Histogram) FindBin(value float64) int {
	w := h.CountsPerBin()
	if w == 0 {
		return 0
	}
	i := int(math.Floor((value - h.MinBin) / w))
	return max(0, min(h.NumBins()-1, i))
}

// Total count across all bins.
func (h *Histogram) Total() float64 {
	total := 0.0
	for _, v := range h.Data {
		total += v
	}
	return total
}

// Build bins samples into n equal-width bins. NaN and infinite samples are skipped.
func Build[T tile.Sample](samples []T, n int) (*Histogram, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid bin count %d", n)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return nil, ErrEmptyHistogram
	}
	if hi == lo {
		hi = lo + 1
	}
	h := &Histogram{Data: make([]float64, n), MinBin: lo, MaxBin: hi}
	for _, s := range samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		h.Data[h.FindBin(v)]++
	}
	return h, nil
}

// CalcLevels finds the intensities below which backgroundPercentile and
// peakPercentile percent of the counts fall, interpolating linearly between
// neighboring bin centers.
func (h *Histogram) CalcLevels(backgroundPercentile, peakPercentile float64) (Levels, error) {
	total := h.Total()
	if h.NumBins() == 0 || total <= 0 {
		return Levels{}, ErrEmptyHistogram
	}
	if h.NumBins() == 1 {
		c := h.BinCenter(0)
		return Levels{Background: c, Peak: c}, nil
	}
	minCount := backgroundPercentile / 100 * total
	maxCount := peakPercentile / 100 * total

	last := h.BinCenter(h.NumBins() - 1)
	levels := Levels{Background: last, Peak: last}
	var bgDone, peakDone bool
	x0 := 0.0
	for i := 0; i < h.NumBins()-1 && !(bgDone && peakDone); i++ {
		x0 += h.Data[i]
		x1 := x0 + h.Data[i+1]
		interp := func(x float64) float64 {
			y0, y1 := h.BinCenter(i), h.BinCenter(i+1)
			if x1 == x0 {
				return y0
			}
			return (y0*(x1-x) + y1*(x-x0)) / (x1 - x0)
		}
		if !peakDone && x1 >= maxCount {
			levels.Peak = interp(maxCount)
			peakDone = true
		}
		if !bgDone && x1 >= minCount {
			levels.Background = interp(minCount)
			bgDone = true
		}
	}
	return levels, nil
}

// RoundLevels rounds both levels to a precision derived from their spread.
func RoundLevels(l Levels) Levels {
	spread := l.Peak - l.Background
	if spread == 0 || math.IsNaN(spread) || math.IsInf(spread, 0) {
		return l
	}
	exp := math.Abs(math.Min(-3, math.Floor(math.Log10(math.Abs(spread)))-3))
	f := math.Pow(10, exp)
	return Levels{Background: math.Round(l.Background*f) / f, Peak: math.Round(l.Peak*f) / f}
}

// CalcPercentiles is the inverse of CalcLevels: the cumulative percentages
// at the given intensities.
func (h *Histogram) CalcPercentiles(l Levels) (Percentiles, error) {
	total := h.Total()
	if h.NumBins() < 2 || total <= 0 {
		return Percentiles{}, ErrEmptyHistogram
	}
	p := Percentiles{Background: 100, Peak: 100}
	var lowDone, highDone bool
	y0 := 0.0
	for i := 0; i < h.NumBins()-1 && !(lowDone && highDone); i++ {
		y0 += h.Data[i]
		x0, x1 := h.BinCenter(i), h.BinCenter(i+1)
		y1 := y0 + h.Data[i+1]
		interp := func(x float64) float64 {
			return (y0*(x1-x) + y1*(x-x0)) / (x1 - x0)
		}
		if !highDone && x1 > l.Peak {
			p.Peak = interp(l.Peak) / total * 100
			highDone = true
		}
		if !lowDone && x1 > l.Background {
			p.Background = interp(l.Background) / total * 100
			lowDone = true
		}
	}
	p.Background = math.Max(0, math.Min(100, p.Background))
	p.Peak = math.Max(0, math.Min(100, p.Peak))
	return p, nil
}
