package metrics

import (
	"math"

	"github.com/samcharles93/helix/internal/dataset"
)

// MaskedAccuracy is the fraction of positions, excluding IgnoreIndex
// targets, where the prediction equals the target.  In smooth mode it
// reports an EMA of per-batch accuracy instead of the cumulative ratio.
type MaskedAccuracy struct {
	Smooth  bool
	ema     EMA
	correct int
	total   int
}

// NewMaskedAccuracy returns an empty accumulator.
func NewMaskedAccuracy(smooth bool) *MaskedAccuracy {
	return &MaskedAccuracy{Smooth: smooth, ema: EMA{Beta: DefaultEMABeta}}
}

// Update accumulates one batch of predictions.
func (a *MaskedAccuracy) Update(preds, targets [][]int) {
	correct, total := 0, 0
	for i := range targets {
		for j, y := range targets[i] {
			if y == dataset.IgnoreIndex {
				continue
			}
			total++
			if preds[i][j] == y {
				correct++
			}
		}
	}
	if total == 0 {
		return
	}
	a.correct += correct
	a.total += total
	a.ema.Update(float64(correct) / float64(total))
}

// Compute returns the current accuracy, or NaN before any counted position.
func (a *MaskedAccuracy) Compute() float64 {
	if a.total == 0 {
		return math.NaN()
	}
	if a.Smooth {
		return a.ema.Value()
	}
	return float64(a.correct) / float64(a.total)
}

// Reset clears all state.
func (a *MaskedAccuracy) Reset() {
	a.correct, a.total = 0, 0
	a.ema.Reset()
}
