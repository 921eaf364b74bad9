package nn

import "github.com/samcharles93/helix/internal/tensor"

// Param is a trainable tensor with its accumulated gradient.
type Param struct {
	Name  string
	Value tensor.Mat
	Grad  tensor.Mat
}

// NewParam allocates a zeroed parameter and gradient of shape [r x c].
func NewParam(name string, r, c int) *Param {
	return &Param{
		Name:  name,
		Value: tensor.NewMat(r, c),
		Grad:  tensor.NewMat(r, c),
	}
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	p.Grad.Zero()
}

// NumElems returns the number of scalar parameters.
func (p *Param) NumElems() int {
	return p.Value.R * p.Value.C
}

// CountParams sums NumElems over ps.
func CountParams(ps []*Param) int {
	n := 0
	for _, p := range ps {
		n += p.NumElems()
	}
	return n
}
