package geom

import "math"

// Affine is an immutable 2D affine transform with coefficients (a,b,c,d,tx,ty)
// mapping (x, y) to (a*x + c*y + tx, b*x + d*y + ty).
//
// Every operation returns a new value. Operations that take an anchor or an
// offset append the change in the transform's local (pre-transform) space, so
// m.Translate(1, 0).Apply(p) == m.Apply(p + (1, 0)).
type Affine struct {
	a, b, c, d, tx, ty float64
}

// NewAffine builds a transform from its six coefficients.
func NewAffine(a, b, c, d, tx, ty float64) Affine {
	return Affine{a: a, b: b, c: c, d: d, tx: tx, ty: ty}
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{a: 1, d: 1}
}

// Translation returns a pure translation.
func Translation(tx, ty float64) Affine {
	return Affine{a: 1, d: 1, tx: tx, ty: ty}
}

// Scaling returns a pure scale about the origin.
func Scaling(sx, sy float64) Affine {
	return Affine{a: sx, d: sy}
}

// Rotation returns a rotation about the origin, angle in degrees.
func Rotation(deg float64) Affine {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Affine{a: cos, b: sin, c: -sin, d: cos}
}

// VerticalFlip maps pixel-buffer rows (row 0 on top) into a bottom-left
// origin space of the given height.
func VerticalFlip(height float64) Affine {
	return Affine{a: 1, d: -1, ty: height}
}

// A is the x-to-x coefficient.
func (m Affine) A() float64 { return m.a }

// B is the x-to-y coefficient.
func (m Affine) B() float64 { return m.b }

// C is the y-to-x coefficient.
func (m Affine) C() float64 { return m.c }

// D is the y-to-y coefficient.
func (m Affine) D() float64 { return m.d }

// TX is the x translation.
func (m Affine) TX() float64 { return m.tx }

// TY is the y translation.
func (m Affine) TY() float64 { return m.ty }

// Compose returns outer ∘ inner: the transform applying inner first, then outer.
func Compose(outer, inner Affine) Affine {
	return Affine{
		a:  outer.a*inner.a + outer.c*inner.b,
		b:  outer.b*inner.a + outer.d*inner.b,
		c:  outer.a*inner.c + outer.c*inner.d,
		d:  outer.b*inner.c + outer.d*inner.d,
		tx: outer.a*inner.tx + outer.c*inner.ty + outer.tx,
		ty: outer.b*inner.tx + outer.d*inner.ty + outer.ty,
	}
}

// Append returns m ∘ o.
func (m Affine) Append(o Affine) Affine {
	return Compose(m, o)
}

// Determinant of the linear part.
func (m Affine) Determinant() float64 {
	return m.a*m.d - m.b*m.c
}

// IsInvertible reports whether the linear part has a usable determinant.
func (m Affine) IsInvertible() bool {
	det := m.Determinant()
	return det != 0 && !math.IsNaN(det) && !math.IsInf(det, 0)
}

// Invert returns the inverse transform and false when m is singular.
func (m Affine) Invert() (Affine, bool) {
	if !m.IsInvertible() {
		return Identity(), false
	}
	det := m.Determinant()
	return Affine{
		a:  m.d / det,
		b:  -m.b / det,
		c:  -m.c / det,
		d:  m.a / det,
		tx: (m.c*m.ty - m.d*m.tx) / det,
		ty: (m.b*m.tx - m.a*m.ty) / det,
	}, true
}

// Apply maps p through m.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.a*p.X + m.c*p.Y + m.tx,
		Y: m.b*p.X + m.d*p.Y + m.ty,
	}
}

// ApplyVector maps v through the linear part only.
func (m Affine) ApplyVector(v Point) Point {
	return Point{
		X: m.a*v.X + m.c*v.Y,
		Y: m.b*v.X + m.d*v.Y,
	}
}

// Linear drops the translation.
func (m Affine) Linear() Affine {
	return Affine{a: m.a, b: m.b, c: m.c, d: m.d}
}

// Translate appends a translation in local space.
func (m Affine) Translate(tx, ty float64) Affine {
	return m.Append(Translation(tx, ty))
}

// Scale appends a scale about the local origin.
func (m Affine) Scale(sx, sy float64) Affine {
	return m.Append(Scaling(sx, sy))
}

// ScaleAbout appends a scale about the local point anchor; m.Apply(anchor)
// is unchanged.
func (m Affine) ScaleAbout(sx, sy float64, anchor Point) Affine {
	return m.Append(about(Scaling(sx, sy), anchor))
}

// RotateAbout appends a rotation (degrees) about the local point anchor.
func (m Affine) RotateAbout(deg float64, anchor Point) Affine {
	return m.Append(about(Rotation(deg), anchor))
}

// ScaleFactor is the geometric-mean scale, sqrt(|det|).
func (m Affine) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

// ApproxEqual compares coefficients within tol.
func (m Affine) ApproxEqual(o Affine, tol float64) bool {
	return math.Abs(m.a-o.a) <= tol && math.Abs(m.b-o.b) <= tol &&
		math.Abs(m.c-o.c) <= tol && math.Abs(m.d-o.d) <= tol &&
		math.Abs(m.tx-o.tx) <= tol && math.Abs(m.ty-o.ty) <= tol
}

func about(t Affine, p Point) Affine {
	return Translation(p.X, p.Y).Append(t).Append(Translation(-p.X, -p.Y))
}
