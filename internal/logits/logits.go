// Package logits holds the post-processing applied to model outputs before
// loss and metrics: temperature scaling, argmax decoding and ground-truth
// log-probabilities.
package logits

import (
	"github.com/samcharles93/helix/internal/tensor"
)

// ApplyTemperature divides every logit by temperature in place.  A
// temperature <= 0 means none was requested and leaves the logits untouched;
// callers validate the sign.
func ApplyTemperature(ls []tensor.Mat, temperature float32) {
	if temperature <= 0 || temperature == 1 {
		return
	}
	inv := 1 / temperature
	for i := range ls {
		for r := 0; r < ls[i].R; r++ {
			tensor.Scale(ls[i].Row(r), inv)
		}
	}
}

// Predict returns the argmax class for every position of every row.
func Predict(ls []tensor.Mat) [][]int {
	preds := make([][]int, len(ls))
	for i := range ls {
		p := make([]int, ls[i].R)
		for r := range p {
			p[r] = tensor.Argmax(ls[i].Row(r))
		}
		preds[i] = p
	}
	return preds
}

// LogProbAt returns log(softmax(row))[label].
func LogProbAt(row []float32, label int) float64 {
	return float64(row[label]) - tensor.LogSumExp(row)
}
