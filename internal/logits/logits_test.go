package logits

import (
	"math"
	"testing"

	"github.com/samcharles93/helix/internal/tensor"
)

func TestApplyTemperature(t *testing.T) {
	m := tensor.NewMatFromData(1, 3, []float32{2, -4, 1})
	ls := []tensor.Mat{m}
	ApplyTemperature(ls, 2)
	want := []float32{1, -2, 0.5}
	for i, v := range ls[0].Row(0) {
		if v != want[i] {
			t.Fatalf("logit %d: got %f, want %f", i, v, want[i])
		}
	}
	// Zero disables scaling.
	ApplyTemperature(ls, 0)
	if ls[0].At(0, 0) != 1 {
		t.Fatalf("temperature 0 should be a no-op, got %f", ls[0].At(0, 0))
	}
}

func TestPredict(t *testing.T) {
	a := tensor.NewMatFromData(2, 3, []float32{
		0, 5, 1,
		9, 2, 3,
	})
	b := tensor.NewMatFromData(1, 3, []float32{-1, -2, 0})
	preds := Predict([]tensor.Mat{a, b})
	if len(preds) != 2 || preds[0][0] != 1 || preds[0][1] != 0 || preds[1][0] != 2 {
		t.Fatalf("unexpected predictions %v", preds)
	}
}

func TestLogProbAtUniform(t *testing.T) {
	row := []float32{3, 3, 3, 3}
	got := LogProbAt(row, 2)
	if math.Abs(got-math.Log(0.25)) > 1e-6 {
		t.Fatalf("LogProbAt=%f, want %f", got, math.Log(0.25))
	}
}
