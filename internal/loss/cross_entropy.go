// Package loss implements the token-level cross-entropy used to train
// masked models.
package loss

import (
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/helix/internal/dataset"
	"github.com/samcharles93/helix/internal/tensor"
)

var ErrShapeMismatch = errors.New("loss: shape mismatch")

// CrossEntropy is the mean negative log-likelihood over every position whose
// target is not IgnoreIndex.  When no position counts, the loss is NaN and
// the gradient is zero.
type CrossEntropy struct {
	IgnoreIndex int
}

// NewCrossEntropy returns a loss ignoring dataset.IgnoreIndex.
func NewCrossEntropy() CrossEntropy {
	return CrossEntropy{IgnoreIndex: dataset.IgnoreIndex}
}

// Forward computes the mean loss.
func (ce CrossEntropy) Forward(logits []tensor.Mat, targets [][]int) (float64, error) {
	if err := ce.check(logits, targets); err != nil {
		return 0, err
	}
	var sum float64
	n := 0
	for i := range logits {
		for j, y := range targets[i] {
			if y == ce.IgnoreIndex {
				continue
			}
			row := logits[i].Row(j)
			sum += tensor.LogSumExp(row) - float64(row[y])
			n++
		}
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return sum / float64(n), nil
}

// Backward returns dLoss/dLogits: (softmax - onehot) / n at counted
// positions and zero elsewhere.
func (ce CrossEntropy) Backward(logits []tensor.Mat, targets [][]int) ([]tensor.Mat, error) {
	if err := ce.check(logits, targets); err != nil {
		return nil, err
	}
	n := ce.count(targets)
	grads := make([]tensor.Mat, len(logits))
	for i := range logits {
		g := tensor.NewMat(logits[i].R, logits[i].C)
		if n > 0 {
			inv := float32(1 / float64(n))
			for j, y := range targets[i] {
				if y == ce.IgnoreIndex {
					continue
				}
				row := g.Row(j)
				copy(row, logits[i].Row(j))
				tensor.Softmax(row)
				row[y] -= 1
				tensor.Scale(row, inv)
			}
		}
		grads[i] = g
	}
	return grads, nil
}

func (ce CrossEntropy) count(targets [][]int) int {
	n := 0
	for _, row := range targets {
		for _, y := range row {
			if y != ce.IgnoreIndex {
				n++
			}
		}
	}
	return n
}

func (ce CrossEntropy) check(logits []tensor.Mat, targets [][]int) error {
	if len(logits) != len(targets) {
		return fmt.Errorf("%w: %d logit rows, %d target rows", ErrShapeMismatch, len(logits), len(targets))
	}
	for i := range logits {
		if logits[i].R != len(targets[i]) {
			return fmt.Errorf("%w: row %d has %d positions, %d targets", ErrShapeMismatch, i, logits[i].R, len(targets[i]))
		}
		for j, y := range targets[i] {
			if y != ce.IgnoreIndex && (y < 0 || y >= logits[i].C) {
				return fmt.Errorf("%w: row %d position %d target %d outside [0,%d)", ErrShapeMismatch, i, j, y, logits[i].C)
			}
		}
	}
	return nil
}
