package normalize

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
)

// LookupLength is the number of entries in a generated color map.
const LookupLength = 16384

// Knot is one control point of a piecewise-linear channel curve, both axes in [0,1].
type Knot struct {
	X float64
	Y float64
}

// ColorMap is an ordered lookup table of packed colors laid out as
// a<<24 | b<<16 | g<<8 | r, which is RGBA byte order in little-endian memory.
type ColorMap struct {
	Name        string
	DisplayName string
	Lookup      []uint32
}

// Len is the number of lookup entries.
func (c *ColorMap) Len() int {
	return len(c.Lookup)
}

// NewColorMap wraps an explicit lookup table.
func NewColorMap(name string, lookup []uint32) (*ColorMap, error) {
	if len(lookup) == 0 {
		return nil, fmt.Errorf("color map %q has an empty lookup: %w", name, ErrInvalidConfig)
	}
	return &ColorMap{Name: name, DisplayName: name, Lookup: slices.Clone(lookup)}, nil
}

// NewCurveColorMap samples red, green and blue curves into LookupLength entries.
// Each curve needs at least one knot.
func NewCurveColorMap(name, display string, red, green, blue []Knot) *ColorMap {
	cm := &ColorMap{Name: name, DisplayName: display, Lookup: make([]uint32, LookupLength)}
	for i := range cm.Lookup {
		x := float64(i) / LookupLength
		cm.Lookup[i] = Pack(channel(x, red), channel(x, green), channel(x, blue), 255)
	}
	return cm
}

// Pack builds a packed color from 8-bit channels.
func Pack(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// Unpack splits a packed color.
func Unpack(c uint32) (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

func channel(x float64, knots []Knot) uint8 {
	i := 0
	for i < len(knots) && knots[i].X < x {
		i++
	}
	var y float64
	switch {
	case i == 0:
		y = knots[0].Y
	case i == len(knots):
		y = knots[len(knots)-1].Y
	default:
		k0, k1 := knots[i-1], knots[i]
		y = k0.Y + (k1.Y-k0.Y)*(x-k0.X)/(k1.X-k0.X)
	}
	return uint8(math.Max(0, math.Min(255, y*255)))
}

// ColorMaps is an immutable registry of color maps keyed by lower-case name.
type ColorMaps struct {
	byName map[string]*ColorMap
}

// NewColorMaps builds a registry. Later duplicates replace earlier ones.
func NewColorMaps(maps ...*ColorMap) *ColorMaps {
	r := &ColorMaps{byName: make(map[string]*ColorMap, len(maps))}
	for _, m := range maps {
		r.byName[strings.ToLower(m.Name)] = m
	}
	return r
}

// Get resolves a color map by name.
func (r *ColorMaps) Get(name string) (*ColorMap, error) {
	if m, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown color map %q: %w", name, ErrInvalidConfig)
}

// Names lists the registered names in sorted order.
func (r *ColorMaps) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var ramp = []Knot{{0, 0}, {1, 1}}
var flat = []Knot{{0, 0}, {1, 0}}

// DefaultColorMaps returns the shared built-in registry.
var DefaultColorMaps = sync.OnceValue(func() *ColorMaps {
	return NewColorMaps(
		NewCurveColorMap("gray", "Gray Color Map", ramp, ramp, ramp),
		NewCurveColorMap("rainbow", "Rainbow Color Map",
			[]Knot{{0, 1}, {0.2, 0}, {0.6, 0}, {0.8, 1}, {1, 1}},
			[]Knot{{0, 0}, {0.2, 0}, {0.4, 1}, {0.8, 1}, {1, 0}},
			[]Knot{{0, 1}, {0.4, 1}, {0.6, 0}, {1, 0}}),
		NewCurveColorMap("cool", "Cool Color Map",
			[]Knot{{0, 0}, {0.29, 0}, {0.76, 0.1}, {1, 1}},
			[]Knot{{0, 0}, {0.22, 0}, {0.96, 1}, {1, 1}},
			[]Knot{{0, 0}, {0.53, 1}, {1, 1}}),
		NewCurveColorMap("heat", "Heat Color Map",
			[]Knot{{0, 0}, {0.34, 1}, {1, 1}},
			ramp,
			[]Knot{{0, 0}, {0.65, 0}, {0.98, 1}, {1, 1}}),
		NewCurveColorMap("red", "Red Color Map", ramp, flat, flat),
		NewCurveColorMap("green", "Green Color Map", flat, ramp, flat),
		NewCurveColorMap("blue", "Blue Color Map", flat, flat, ramp),
		NewCurveColorMap("a", "'A' Color Map",
			[]Knot{{0, 0}, {0.25, 0}, {0.5, 1}, {1, 1}},
			[]Knot{{0, 0}, {0.25, 1}, {0.5, 0}, {0.77, 0}, {1, 1}},
			[]Knot{{0, 0}, {0.125, 0}, {0.5, 1}, {0.64, 0.5}, {0.77, 0}, {1, 0}}),
	)
})
