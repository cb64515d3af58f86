package geom

// Transform is the flat snapshot form of an Affine, used when transforms
// are persisted or exchanged with collaborators.
type Transform struct {
	ID string  `json:"id,omitempty"`
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	TX float64 `json:"tx"`
	TY float64 `json:"ty"`
}

// MatrixToTransform flattens m.
func MatrixToTransform(m Affine) Transform {
	return Transform{A: m.a, B: m.b, C: m.c, D: m.d, TX: m.tx, TY: m.ty}
}

// TransformToMatrix rebuilds the value type from its snapshot.
func TransformToMatrix(t Transform) Affine {
	return NewAffine(t.A, t.B, t.C, t.D, t.TX, t.TY)
}
