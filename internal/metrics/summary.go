// Package metrics holds the running accumulators reported by the training
// and evaluation loops.
package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/samcharles93/helix/internal/dataset"
)

// Summary is a point-in-time view of the loop metrics.
type Summary struct {
	Loss           float64   `json:"loss"`
	Accuracy       float64   `json:"accuracy"`
	MaskedAccuracy float64   `json:"masked_accuracy"`
	MaskedRecall   []float64 `json:"masked_recall"`
	MaskedIQS      float64   `json:"masked_iqs"`
}

// String renders the summary the way the progress bar shows it.
func (s Summary) String() string {
	return fmt.Sprintf("acc: %s, %s, masked acc: %s, masked IQS: %s, loss: %s",
		formatValue(s.Accuracy),
		FormatClassRecall(s.MaskedRecall, "masked recall: "),
		formatValue(s.MaskedAccuracy),
		formatValue(s.MaskedIQS),
		formatValue(s.Loss),
	)
}

// FormatClassRecall renders per-class recall as "prefixA:0.91 C:0.88 ...".
func FormatClassRecall(recall []float64, prefix string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for c, v := range recall {
		if c > 0 {
			sb.WriteByte(' ')
		}
		if len(recall) == len(dataset.ClassNames) {
			sb.WriteString(dataset.ClassNames[c])
		} else {
			fmt.Fprintf(&sb, "%d", c)
		}
		sb.WriteByte(':')
		sb.WriteString(formatValue(v))
	}
	return sb.String()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.4g", v)
}

// Tracker bundles the four loop metrics.
type Tracker struct {
	Accuracy       *MaskedAccuracy
	MaskedRecall   *MeanRecall
	MaskedAccuracy *MaskedAccuracy
	MaskedIQS      *IQS
}

// NewTracker returns fresh accumulators for numClasses classes.
func NewTracker(numClasses int, smooth bool) *Tracker {
	return &Tracker{
		Accuracy:       NewMaskedAccuracy(smooth),
		MaskedRecall:   NewMeanRecall(numClasses),
		MaskedAccuracy: NewMaskedAccuracy(smooth),
		MaskedIQS:      NewIQS(numClasses),
	}
}

// Update feeds one batch: raw accuracy against the unmasked targets, the
// other three against the masked targets.
func (t *Tracker) Update(preds, targets, targetsMasked [][]int) {
	t.Accuracy.Update(preds, targets)
	t.MaskedRecall.Update(preds, targetsMasked)
	t.MaskedAccuracy.Update(preds, targetsMasked)
	t.MaskedIQS.Update(preds, targetsMasked)
}

// Summary snapshots the metrics with the given loss.
func (t *Tracker) Summary(loss float64) Summary {
	return Summary{
		Loss:           loss,
		Accuracy:       t.Accuracy.Compute(),
		MaskedAccuracy: t.MaskedAccuracy.Compute(),
		MaskedRecall:   t.MaskedRecall.Compute(),
		MaskedIQS:      t.MaskedIQS.Compute(),
	}
}
