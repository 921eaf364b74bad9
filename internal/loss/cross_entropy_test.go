package loss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/helix/internal/dataset"
	"github.com/samcharles93/helix/internal/tensor"
)

func TestCrossEntropyIgnoresSentinel(t *testing.T) {
	ce := NewCrossEntropy()
	logits := []tensor.Mat{tensor.NewMatFromData(2, 2, []float32{
		0, 0,
		100, -100,
	})}
	// Only the first position counts: uniform over two classes.
	got, err := ce.Forward(logits, [][]int{{1, dataset.IgnoreIndex}})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), got, 1e-9)
}

func TestCrossEntropyMeanOverCountedPositions(t *testing.T) {
	ce := NewCrossEntropy()
	logits := []tensor.Mat{
		tensor.NewMatFromData(1, 2, []float32{0, 0}),
		tensor.NewMatFromData(2, 2, []float32{0, 0, 0, 0}),
	}
	got, err := ce.Forward(logits, [][]int{{0}, {1, 0}})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), got, 1e-9)
}

func TestCrossEntropyAllIgnored(t *testing.T) {
	ce := NewCrossEntropy()
	logits := []tensor.Mat{tensor.NewMatFromData(1, 2, []float32{1, 2})}
	targets := [][]int{{dataset.IgnoreIndex}}
	got, err := ce.Forward(logits, targets)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))

	grads, err := ce.Backward(logits, targets)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, grads[0].Data)
}

func TestCrossEntropyGradient(t *testing.T) {
	ce := NewCrossEntropy()
	data := []float32{0.3, -1.2, 2.0, 0.5, 0.1, -0.4}
	targets := [][]int{{2, 0}}
	logits := []tensor.Mat{tensor.NewMatFromData(2, 3, append([]float32(nil), data...))}
	grads, err := ce.Backward(logits, targets)
	require.NoError(t, err)

	const eps = 1e-3
	for k := range data {
		plus := append([]float32(nil), data...)
		minus := append([]float32(nil), data...)
		plus[k] += eps
		minus[k] -= eps
		lp, _ := ce.Forward([]tensor.Mat{tensor.NewMatFromData(2, 3, plus)}, targets)
		lm, _ := ce.Forward([]tensor.Mat{tensor.NewMatFromData(2, 3, minus)}, targets)
		assert.InDelta(t, (lp-lm)/(2*eps), float64(grads[0].Data[k]), 1e-3, "gradient %d", k)
	}
}

func TestCrossEntropyShapeErrors(t *testing.T) {
	ce := NewCrossEntropy()
	logits := []tensor.Mat{tensor.NewMat(2, 3)}
	_, err := ce.Forward(logits, [][]int{{0}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = ce.Forward(logits, [][]int{{0, 7}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = ce.Backward(logits, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
