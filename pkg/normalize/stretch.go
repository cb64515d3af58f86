package normalize

import (
	"fmt"
	"math"
	"strings"
)

// StretchMode selects the curve applied to [0,1] intensities before colorization.
type StretchMode int

const (
	Linear StretchMode = iota
	Log
	SquareRoot
	ArcSinh
)

var stretchNames = map[StretchMode]string{
	Linear:     "linear",
	Log:        "log",
	SquareRoot: "sqrt",
	ArcSinh:    "asinh",
}

func (m StretchMode) String() string {
	if s, ok := stretchNames[m]; ok {
		return s
	}
	return fmt.Sprintf("StretchMode(%d)", int(m))
}

// ParseStretchMode accepts the short names plus a few long spellings.
func ParseStretchMode(s string) (StretchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "log":
		return Log, nil
	case "sqrt", "squareroot", "square-root":
		return SquareRoot, nil
	case "asinh", "arcsinh":
		return ArcSinh, nil
	}
	return 0, fmt.Errorf("unknown stretch mode %q: %w", s, ErrInvalidConfig)
}

func (m StretchMode) MarshalText() ([]byte, error) {
	if _, ok := stretchNames[m]; !ok {
		return nil, fmt.Errorf("unknown stretch mode %d: %w", int(m), ErrInvalidConfig)
	}
	return []byte(m.String()), nil
}

func (m *StretchMode) UnmarshalText(b []byte) error {
	v, err := ParseStretchMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

var log1000 = math.Log10(1000)

// Func returns the stretch curve. Callers clamp input to [0,1].
func (m StretchMode) Func() (func(float64) float64, error) {
	switch m {
	case Linear:
		return func(x float64) float64 { return x }, nil
	case Log:
		return func(x float64) float64 { return math.Log10(1000*x+1) / log1000 }, nil
	case SquareRoot:
		return math.Sqrt, nil
	case ArcSinh:
		return func(x float64) float64 { return math.Asinh(10*x) / 3 }, nil
	}
	return nil, fmt.Errorf("unknown stretch mode %d: %w", int(m), ErrInvalidConfig)
}
