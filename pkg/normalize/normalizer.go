// Package normalize maps raw raster samples into packed display colors
// using histogram percentile levels, a stretch curve and a color map.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/jpfielding/skyview.go/pkg/util"
)

var (
	// ErrInvalidConfig is wrapped by every configuration-boundary rejection.
	ErrInvalidConfig = errors.New("invalid normalizer configuration")
	// ErrLengthMismatch is returned when input and output buffers differ in length.
	ErrLengthMismatch = errors.New("pixel and output buffer lengths differ")
)

// Config is the serializable form of a normalizer, as users and files supply it.
type Config struct {
	BackgroundPercentile float64 `json:"backgroundPercentile"`
	PeakPercentile       float64 `json:"peakPercentile"`
	ColorMapName         string  `json:"colorMapName"`
	StretchMode          string  `json:"stretchMode"`
	Inverted             bool    `json:"inverted"`
}

// DefaultConfig is a 10%/99% linear gray normalizer.
func DefaultConfig() Config {
	return Config{
		BackgroundPercentile: 10,
		PeakPercentile:       99,
		ColorMapName:         "gray",
		StretchMode:          Linear.String(),
	}
}

// ReadConfig decodes a JSON config over the defaults.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode normalizer config: %w", err)
	}
	return cfg, nil
}

// Resolve validates the config and binds it to a color map from maps.
func (c Config) Resolve(maps *ColorMaps) (PixelNormalizer, error) {
	if err := checkPercentile("background", c.BackgroundPercentile); err != nil {
		return PixelNormalizer{}, err
	}
	if err := checkPercentile("peak", c.PeakPercentile); err != nil {
		return PixelNormalizer{}, err
	}
	mode, err := ParseStretchMode(c.StretchMode)
	if err != nil {
		return PixelNormalizer{}, err
	}
	if maps == nil {
		maps = DefaultColorMaps()
	}
	cm, err := maps.Get(c.ColorMapName)
	if err != nil {
		return PixelNormalizer{}, err
	}
	n := PixelNormalizer{
		BackgroundPercentile: c.BackgroundPercentile,
		PeakPercentile:       c.PeakPercentile,
		ColorMap:             cm,
		StretchMode:          mode,
		Inverted:             c.Inverted,
	}
	return n, nil
}

func checkPercentile(which string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return fmt.Errorf("%s percentile %v outside [0,100]: %w", which, p, ErrInvalidConfig)
	}
	return nil
}

// PixelNormalizer is a validated normalizer bound to a concrete color map.
// It is replaced wholesale, never edited in place.
type PixelNormalizer struct {
	BackgroundPercentile float64
	PeakPercentile       float64
	ColorMap             *ColorMap
	StretchMode          StretchMode
	Inverted             bool
}

// Validate repeats the boundary checks for normalizers built by hand.
func (n PixelNormalizer) Validate() error {
	if err := checkPercentile("background", n.BackgroundPercentile); err != nil {
		return err
	}
	if err := checkPercentile("peak", n.PeakPercentile); err != nil {
		return err
	}
	if n.ColorMap == nil || n.ColorMap.Len() == 0 {
		return fmt.Errorf("missing color map: %w", ErrInvalidConfig)
	}
	if _, err := n.StretchMode.Func(); err != nil {
		return err
	}
	return nil
}

// Config returns the serializable form.
func (n PixelNormalizer) Config() Config {
	c := Config{
		BackgroundPercentile: n.BackgroundPercentile,
		PeakPercentile:       n.PeakPercentile,
		StretchMode:          n.StretchMode.String(),
		Inverted:             n.Inverted,
	}
	if n.ColorMap != nil {
		c.ColorMapName = n.ColorMap.Name
	}
	return c
}

// Fingerprint identifies the normalizer's settings; it changes when any field does.
func (n PixelNormalizer) Fingerprint() string {
	return util.HashUUID(n.Config())
}

// Preset is a named pair of percentiles.
type Preset struct {
	Name        string
	Background  float64
	Peak        float64
	Description string
}

// Presets are the built-in percentile choices.
var Presets = []Preset{
	{Name: "default", Background: 10, Peak: 99, Description: "sky background to bright stars"},
	{Name: "faint", Background: 50, Peak: 99.5, Description: "faint nebulosity over a dark sky"},
	{Name: "full", Background: 0, Peak: 100, Description: "full data range"},
	{Name: "bright", Background: 1, Peak: 99.99, Description: "bright cores without clipping"},
}

// WithPreset returns a copy of c using the named preset's percentiles.
func (c Config) WithPreset(name string) (Config, error) {
	for _, p := range Presets {
		if p.Name == name {
			c.BackgroundPercentile = p.Background
			c.PeakPercentile = p.Peak
			return c, nil
		}
	}
	return c, fmt.Errorf("unknown preset %q: %w", name, ErrInvalidConfig)
}
