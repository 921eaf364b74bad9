package tensor

import (
	"math"
)

// Add adds src to dst element-wise.
func Add(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Axpy computes dst += alpha*x.
func Axpy(dst []float32, alpha float32, x []float32) {
	for i := range dst {
		dst[i] += alpha * x[i]
	}
}

// Scale multiplies every element of x by s.
func Scale(x []float32, s float32) {
	for i := range x {
		x[i] *= s
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// MatVecAdd computes dst += m * x where m is [R x C], x has length C and dst
// has length R.
func MatVecAdd(dst []float32, m *Mat, x []float32) {
	if len(x) < m.C || len(dst) < m.R {
		panic("MatVecAdd dimension mismatch")
	}
	for i := 0; i < m.R; i++ {
		dst[i] += Dot(m.Row(i), x[:m.C])
	}
}

// MatTVecAdd computes dst += m^T * x where m is [R x C], x has length R and
// dst has length C.
func MatTVecAdd(dst []float32, m *Mat, x []float32) {
	if len(x) < m.R || len(dst) < m.C {
		panic("MatTVecAdd dimension mismatch")
	}
	for i := 0; i < m.R; i++ {
		if x[i] == 0 {
			continue
		}
		Axpy(dst[:m.C], x[i], m.Row(i))
	}
}

// AddOuter accumulates the outer product a ⊗ b into m, which must be
// [len(a) x len(b)].
func AddOuter(m *Mat, a, b []float32) {
	if len(a) != m.R || len(b) != m.C {
		panic("AddOuter dimension mismatch")
	}
	for i, av := range a {
		if av == 0 {
			continue
		}
		Axpy(m.Row(i), av, b)
	}
}

// Softmax applies the softmax function to x.
func Softmax(x []float32) {
	if len(x) == 0 {
		return
	}
	maxv := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	var sum float64
	for i := range x {
		v := math.Exp(float64(x[i] - maxv))
		x[i] = float32(v)
		sum += v
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / sum)
	for i := range x {
		x[i] *= inv
	}
}

// LogSoftmax writes log(softmax(x)) into dst using float64 accumulation.
// dst and x may alias.
func LogSoftmax(dst, x []float32) {
	if len(x) == 0 {
		return
	}
	maxv := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	var sum float64
	for _, v := range x {
		sum += math.Exp(float64(v - maxv))
	}
	lse := float64(maxv) + math.Log(sum)
	for i, v := range x {
		dst[i] = float32(float64(v) - lse)
	}
}

// LogSumExp returns log(sum(exp(x))) computed stably.
func LogSumExp(x []float32) float64 {
	if len(x) == 0 {
		return math.Inf(-1)
	}
	maxv := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	var sum float64
	for _, v := range x {
		sum += math.Exp(float64(v - maxv))
	}
	return float64(maxv) + math.Log(sum)
}

// Argmax returns the index of the largest element. Ties resolve to the
// lowest index; an empty slice returns -1.
func Argmax(x []float32) int {
	if len(x) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

// Tanh applies tanh element-wise in place.
func Tanh(x []float32) {
	for i, v := range x {
		x[i] = float32(math.Tanh(float64(v)))
	}
}

// Mean returns the element-wise mean of equally sized vectors.  It returns
// nil when vecs is empty.
func Mean(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	acc := make([]float64, len(vecs[0]))
	for _, v := range vecs {
		for j, x := range v {
			acc[j] += float64(x)
		}
	}
	out := make([]float32, len(acc))
	inv := 1.0 / float64(len(vecs))
	for j := range acc {
		out[j] = float32(acc[j] * inv)
	}
	return out
}
