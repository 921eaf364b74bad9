package metrics

import (
	"math"

	"github.com/samcharles93/helix/internal/dataset"
)

// MeanRecall accumulates per-class recall over non-ignored positions.
type MeanRecall struct {
	hits    []int
	support []int
}

// NewMeanRecall returns an accumulator for numClasses classes.
func NewMeanRecall(numClasses int) *MeanRecall {
	return &MeanRecall{
		hits:    make([]int, numClasses),
		support: make([]int, numClasses),
	}
}

// Update accumulates one batch.  Targets outside [0, numClasses) other than
// IgnoreIndex are skipped.
func (r *MeanRecall) Update(preds, targets [][]int) {
	for i := range targets {
		for j, y := range targets[i] {
			if y == dataset.IgnoreIndex || y < 0 || y >= len(r.support) {
				continue
			}
			r.support[y]++
			if preds[i][j] == y {
				r.hits[y]++
			}
		}
	}
}

// Compute returns the recall of every class; classes never seen as a
// target report NaN.
func (r *MeanRecall) Compute() []float64 {
	out := make([]float64, len(r.support))
	for c := range out {
		if r.support[c] == 0 {
			out[c] = math.NaN()
			continue
		}
		out[c] = float64(r.hits[c]) / float64(r.support[c])
	}
	return out
}

// Mean returns the average recall over classes that have been seen.
func (r *MeanRecall) Mean() float64 {
	var sum float64
	n := 0
	for _, v := range r.Compute() {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Reset clears all counts.
func (r *MeanRecall) Reset() {
	clear(r.hits)
	clear(r.support)
}

// IQS is a chance-corrected mean recall: 0 for a predictor no better than
// uniform guessing over K classes, 1 for a perfect one, negative when worse
// than chance.
type IQS struct {
	recall *MeanRecall
}

// NewIQS returns an accumulator for numClasses classes.
func NewIQS(numClasses int) *IQS {
	return &IQS{recall: NewMeanRecall(numClasses)}
}

func (q *IQS) Update(preds, targets [][]int) { q.recall.Update(preds, targets) }

func (q *IQS) Reset() { q.recall.Reset() }

// Compute returns the current score, or NaN before any counted position.
func (q *IQS) Compute() float64 {
	k := float64(len(q.recall.support))
	if k < 2 {
		return q.recall.Mean()
	}
	chance := 1 / k
	return (q.recall.Mean() - chance) / (1 - chance)
}
