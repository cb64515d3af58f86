package normalize

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/skyview.go/pkg/hist"
)

// fixedLevels maps the two percentiles it is asked for through a table so
// swapping percentiles swaps levels.
type fixedLevels map[float64]float64

func (f fixedLevels) CalcLevels(bg, peak float64) (hist.Levels, error) {
	return hist.Levels{Background: f[bg], Peak: f[peak]}, nil
}

func identityMap(t *testing.T) *ColorMap {
	lookup := make([]uint32, 65536)
	for i := range lookup {
		lookup[i] = uint32(i)
	}
	cm, err := NewColorMap("identity", lookup)
	require.NoError(t, err)
	return cm
}

func normalizer(cm *ColorMap, mode StretchMode, inverted bool) PixelNormalizer {
	return PixelNormalizer{BackgroundPercentile: 0, PeakPercentile: 100, ColorMap: cm, StretchMode: mode, Inverted: inverted}
}

var fullRange = fixedLevels{0: 0, 100: 65535}

func TestNormalize_LinearIdentity(t *testing.T) {
	cm := identityMap(t)
	px := []uint16{0, 16384, 32768, 49152, 65535}
	out, err := Normalize(px, fullRange, normalizer(cm, Linear, false))
	require.NoError(t, err)
	for i, want := range px {
		assert.InDelta(t, float64(want), float64(out[i]), 1, "pixel %d", i)
	}
}

func TestNormalize_Monotonic(t *testing.T) {
	cm := identityMap(t)
	px := make([]float64, 0, 700)
	for v := -100.0; v < 66000; v += 97 {
		px = append(px, v)
	}
	for _, mode := range []StretchMode{Linear, Log, SquareRoot, ArcSinh} {
		out, err := Normalize(px, fullRange, normalizer(cm, mode, false))
		require.NoError(t, err)
		for i := 1; i < len(out); i++ {
			require.LessOrEqual(t, out[i-1], out[i], "%s at %d", mode, i)
		}
		assert.Equal(t, uint32(0), out[0])
		// the top sample lands where the curve ends, which is below 1 for asinh
		fn, err := mode.Func()
		require.NoError(t, err)
		top := math.Min(fn(1)*65535, 65535)
		assert.InDelta(t, top, float64(out[len(out)-1]), 1, mode.String())
	}
}

func TestNormalize_InversionEquivalence(t *testing.T) {
	cm := DefaultColorMaps()
	heat, err := cm.Get("heat")
	require.NoError(t, err)
	levels := fixedLevels{10: 200, 99: 3000}
	px := []float32{-5, 0, 150, 200, 201, 900, 1500, 2999, 3000, 4000, float32(math.NaN())}

	for _, mode := range []StretchMode{Linear, Log, SquareRoot, ArcSinh} {
		inv := PixelNormalizer{BackgroundPercentile: 10, PeakPercentile: 99, ColorMap: heat, StretchMode: mode, Inverted: true}
		swapped := PixelNormalizer{BackgroundPercentile: 99, PeakPercentile: 10, ColorMap: heat, StretchMode: mode}
		a, err := Normalize(px, levels, inv)
		require.NoError(t, err)
		b, err := Normalize(px, levels, swapped)
		require.NoError(t, err)
		assert.Equal(t, a, b, mode.String())
	}
}

func TestNormalize_InvertedMirrorsRamp(t *testing.T) {
	cm := identityMap(t)
	out, err := Normalize([]uint16{0, 65535}, fullRange, normalizer(cm, Linear, true))
	require.NoError(t, err)
	assert.Equal(t, []uint32{65535, 0}, out)
}

func TestNormalize_DegenerateRange(t *testing.T) {
	cm := identityMap(t)
	flat := fixedLevels{0: 500, 100: 500}
	px := []float64{math.Inf(-1), -1, 499, 500, 501, 1e30, math.Inf(1), math.NaN()}
	for _, inverted := range []bool{false, true} {
		out, err := Normalize(px, flat, normalizer(cm, Log, inverted))
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 0, 0, 0, 65535, 65535, 65535, 0}, out)
	}
}

func TestNormalize_NaNIsTransparent(t *testing.T) {
	gray, err := DefaultColorMaps().Get("gray")
	require.NoError(t, err)
	px := []float64{math.NaN(), 0, 65535}
	for _, inverted := range []bool{false, true} {
		out, err := Normalize(px, fullRange, normalizer(gray, Linear, inverted))
		require.NoError(t, err)
		assert.Equal(t, uint32(0), out[0], "inverted=%v", inverted)
		_, _, _, a := Unpack(out[1])
		assert.Equal(t, uint8(255), a)
	}
}

func TestNormalize_Errors(t *testing.T) {
	cm := identityMap(t)
	err := Apply([]uint8{1, 2}, hist.Levels{Peak: 1}, normalizer(cm, Linear, false), make([]uint32, 1))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = Apply([]uint8{1}, hist.Levels{Peak: math.NaN()}, normalizer(cm, Linear, false), make([]uint32, 1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Normalize([]uint8{1}, fullRange, PixelNormalizer{PeakPercentile: 101, ColorMap: cm})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Normalize([]uint8{1}, fullRange, PixelNormalizer{PeakPercentile: 100, ColorMap: cm, StretchMode: StretchMode(9)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Normalize([]uint8{1}, &hist.Histogram{}, normalizer(cm, Linear, false))
	assert.ErrorIs(t, err, hist.ErrEmptyHistogram)
}

func TestStretchFuncs(t *testing.T) {
	cases := []struct {
		mode StretchMode
		in   float64
		want float64
	}{
		{Linear, 0.3, 0.3},
		{Log, 0, 0},
		{Log, 1, math.Log10(1001) / 3},
		{Log, 0.1, math.Log10(101) / 3},
		{SquareRoot, 0.25, 0.5},
		{ArcSinh, 0, 0},
		{ArcSinh, 1, math.Asinh(10) / 3},
	}
	for _, tc := range cases {
		fn, err := tc.mode.Func()
		require.NoError(t, err)
		assert.InDelta(t, tc.want, fn(tc.in), 1e-12, "%s(%v)", tc.mode, tc.in)
	}
}

func TestParseStretchMode(t *testing.T) {
	for in, want := range map[string]StretchMode{"": Linear, "LOG": Log, "square-root": SquareRoot, "arcsinh": ArcSinh} {
		got, err := ParseStretchMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStretchMode("gamma")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var m StretchMode
	require.NoError(t, m.UnmarshalText([]byte("sqrt")))
	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "sqrt", string(b))
}

func TestConfig_Resolve(t *testing.T) {
	n, err := DefaultConfig().Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "gray", n.ColorMap.Name)
	assert.Equal(t, Linear, n.StretchMode)
	assert.Equal(t, DefaultConfig(), n.Config())

	bad := []Config{
		{BackgroundPercentile: -1, PeakPercentile: 99, ColorMapName: "gray"},
		{BackgroundPercentile: 10, PeakPercentile: 100.5, ColorMapName: "gray"},
		{BackgroundPercentile: math.NaN(), PeakPercentile: 99, ColorMapName: "gray"},
		{BackgroundPercentile: 10, PeakPercentile: 99, ColorMapName: "plasma"},
		{BackgroundPercentile: 10, PeakPercentile: 99, ColorMapName: "gray", StretchMode: "gamma"},
	}
	for _, c := range bad {
		_, err := c.Resolve(DefaultColorMaps())
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", c)
	}
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(strings.NewReader(`{"colorMapName":"heat","stretchMode":"asinh","inverted":true}`))
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.BackgroundPercentile)
	assert.Equal(t, "heat", cfg.ColorMapName)
	assert.True(t, cfg.Inverted)

	_, err = ReadConfig(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	a, err := DefaultConfig().Resolve(nil)
	require.NoError(t, err)
	b := a
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	b.Inverted = true
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestPresets(t *testing.T) {
	cfg, err := DefaultConfig().WithPreset("faint")
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.BackgroundPercentile)
	assert.Equal(t, 99.5, cfg.PeakPercentile)
	_, err = DefaultConfig().WithPreset("nope")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestColorMaps(t *testing.T) {
	maps := DefaultColorMaps()
	assert.Equal(t, []string{"a", "blue", "cool", "gray", "green", "heat", "rainbow", "red"}, maps.Names())

	gray, err := maps.Get("Gray")
	require.NoError(t, err)
	require.Equal(t, LookupLength, gray.Len())
	r, g, b, a := Unpack(gray.Lookup[0])
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, [4]uint8{r, g, b, a})
	r, g, b, _ = Unpack(gray.Lookup[LookupLength-1])
	assert.Equal(t, [3]uint8{254, 254, 254}, [3]uint8{r, g, b})

	red, err := maps.Get("red")
	require.NoError(t, err)
	_, g, b, _ = Unpack(red.Lookup[LookupLength-1])
	assert.Zero(t, g)
	assert.Zero(t, b)

	rainbow, err := maps.Get("rainbow")
	require.NoError(t, err)
	r, g, b, _ = Unpack(rainbow.Lookup[0])
	assert.Equal(t, [3]uint8{255, 0, 255}, [3]uint8{r, g, b})

	assert.Equal(t, uint32(0xff030201), Pack(1, 2, 3, 255))

	_, err = NewColorMap("empty", nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
