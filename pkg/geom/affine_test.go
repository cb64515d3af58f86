package geom

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestCompose_AppliesInnerFirst(t *testing.T) {
	outer := Scaling(2, 3)
	inner := Translation(1, 1)
	p := Compose(outer, inner).Apply(Point{X: 1, Y: 2})
	assert.InDelta(t, 4, p.X, 1e-12)
	assert.InDelta(t, 9, p.Y, 1e-12)
}

func TestInvert_RoundTrip(t *testing.T) {
	m := NewAffine(2, 0.5, -1, 3, 10, -4)
	inv, ok := m.Invert()
	require.True(t, ok)
	assert.True(t, Compose(m, inv).ApproxEqual(Identity(), 1e-12))
	assert.True(t, Compose(inv, m).ApproxEqual(Identity(), 1e-12))

	p := Point{X: 7, Y: -3}
	back := inv.Apply(m.Apply(p))
	assert.Empty(t, cmp.Diff(p, back, approx))
}

func TestInvert_Singular(t *testing.T) {
	_, ok := NewAffine(1, 2, 2, 4, 0, 0).Invert()
	assert.False(t, ok)
}

func TestScaleAbout_KeepsAnchorFixed(t *testing.T) {
	m := NewAffine(1.5, 0, 0, -1.5, 12, 80)
	anchor := Point{X: 20, Y: 30}
	before := m.Apply(anchor)
	after := m.ScaleAbout(4, 4, anchor).Apply(anchor)
	assert.Empty(t, cmp.Diff(before, after, approx))
	assert.InDelta(t, 6, m.ScaleAbout(4, 4, anchor).ScaleFactor(), 1e-12)
}

func TestRotateAbout_KeepsAnchorFixed(t *testing.T) {
	m := VerticalFlip(100)
	anchor := Point{X: 50, Y: 50}
	r := m.RotateAbout(90, anchor)
	assert.Empty(t, cmp.Diff(m.Apply(anchor), r.Apply(anchor), approx))

	// a point one unit right of the anchor ends up one unit "up" in local space
	p := Rotation(90).Apply(Point{X: 1})
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)
}

func TestTranslate_IsLocal(t *testing.T) {
	m := Scaling(2, 2)
	p := m.Translate(3, 4).Apply(Point{})
	assert.Equal(t, Point{X: 6, Y: 8}, p)
}

func TestScaleFactor(t *testing.T) {
	assert.InDelta(t, 3, Scaling(3, -3).ScaleFactor(), 1e-12)
	assert.InDelta(t, 2, Scaling(2, 2).Append(Rotation(33)).ScaleFactor(), 1e-12)
}

func TestTransportRoundTrip(t *testing.T) {
	for _, tr := range []Transform{
		{A: 1, D: -1, TY: 100},
		{A: 0.25, B: -0.7, C: 1e-9, D: 42, TX: -3.5, TY: math.Pi},
		{},
	} {
		assert.Equal(t, tr, MatrixToTransform(TransformToMatrix(tr)))
	}

	raw, err := json.Marshal(MatrixToTransform(VerticalFlip(64)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":0,"c":0,"d":-1,"tx":0,"ty":64}`, string(raw))
}

func TestRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, r.Intersects(Rect{X: 10, Y: 10, Width: 5, Height: 5}))
	assert.False(t, r.Intersects(Rect{X: 10.5, Y: 0, Width: 5, Height: 5}))

	in := r.Inset(20)
	assert.Equal(t, Rect{X: 5, Y: 5}, in)
	assert.Equal(t, Rect{X: 2, Y: 2, Width: 6, Height: 6}, r.Inset(2))

	b := TransformRect(VerticalFlip(10), Rect{Width: 4, Height: 2})
	assert.Empty(t, cmp.Diff(Rect{X: 0, Y: 8, Width: 4, Height: 2}, b, approx))
}
