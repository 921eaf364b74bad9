package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samcharles93/helix/internal/dataset"
)

const ig = dataset.IgnoreIndex

func TestEMA(t *testing.T) {
	e := NewEMA()
	assert.True(t, math.IsNaN(e.Value()))
	assert.InDelta(t, 4.0, e.Update(4), 1e-12)
	// Constant input stays constant after bias correction.
	for range 10 {
		assert.InDelta(t, 4.0, e.Update(4), 1e-9)
	}
	e.Reset()
	e.Update(1)
	got := e.Update(3)
	// (0.98*0.02*1 + 0.02*3) / (1-0.98^2)
	want := (0.98*0.02*1 + 0.02*3) / (1 - 0.98*0.98)
	assert.InDelta(t, want, got, 1e-12)
}

func TestMaskedAccuracyCumulative(t *testing.T) {
	a := NewMaskedAccuracy(false)
	assert.True(t, math.IsNaN(a.Compute()))
	a.Update([][]int{{0, 1, 2}}, [][]int{{0, ig, 3}})
	assert.InDelta(t, 0.5, a.Compute(), 1e-12)
	a.Update([][]int{{1}}, [][]int{{1}})
	assert.InDelta(t, 2.0/3.0, a.Compute(), 1e-12)
	// Batches without counted positions do not move the metric.
	a.Update([][]int{{1}}, [][]int{{ig}})
	assert.InDelta(t, 2.0/3.0, a.Compute(), 1e-12)
	a.Reset()
	assert.True(t, math.IsNaN(a.Compute()))
}

func TestMaskedAccuracySmooth(t *testing.T) {
	a := NewMaskedAccuracy(true)
	a.Update([][]int{{0}}, [][]int{{0}})
	assert.InDelta(t, 1.0, a.Compute(), 1e-12)
	a.Update([][]int{{1, 1}}, [][]int{{0, 0}})
	want := (0.98*0.02*1 + 0.02*0) / (1 - 0.98*0.98)
	assert.InDelta(t, want, a.Compute(), 1e-12)
}

func TestMeanRecall(t *testing.T) {
	r := NewMeanRecall(4)
	r.Update(
		[][]int{{0, 0, 1, 2, 3}},
		[][]int{{0, 1, 1, ig, 9}},
	)
	got := r.Compute()
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)
	assert.True(t, math.IsNaN(got[2]))
	assert.True(t, math.IsNaN(got[3]))
	assert.InDelta(t, 0.75, r.Mean(), 1e-12)
}

func TestIQS(t *testing.T) {
	q := NewIQS(4)
	assert.True(t, math.IsNaN(q.Compute()))
	q.Update([][]int{{0, 1, 2, 3}}, [][]int{{0, 1, 2, 3}})
	assert.InDelta(t, 1.0, q.Compute(), 1e-12)

	q.Reset()
	// Always predicting class 0 over balanced targets: mean recall 0.25 == chance.
	q.Update([][]int{{0, 0, 0, 0}}, [][]int{{0, 1, 2, 3}})
	assert.InDelta(t, 0.0, q.Compute(), 1e-12)
}

func TestTrackerAndSummary(t *testing.T) {
	tr := NewTracker(dataset.NumClasses, false)
	tr.Update(
		[][]int{{0, 1, 2, 3}},
		[][]int{{0, 1, 2, 2}},
		[][]int{{ig, 1, ig, 2}},
	)
	s := tr.Summary(0.5)
	assert.InDelta(t, 0.75, s.Accuracy, 1e-12)
	assert.InDelta(t, 0.5, s.MaskedAccuracy, 1e-12)
	assert.Equal(t, 0.5, s.Loss)
	assert.Len(t, s.MaskedRecall, dataset.NumClasses)

	line := s.String()
	assert.Contains(t, line, "acc: 0.75")
	assert.Contains(t, line, "masked recall: A:nan C:1 G:0 T:nan")
	assert.Contains(t, line, "masked acc: 0.5")
	assert.Contains(t, line, "loss: 0.5")
}

func TestFormatClassRecallUnnamed(t *testing.T) {
	assert.Equal(t, "r: 0:0.1235 1:1", FormatClassRecall([]float64{0.123456, 1}, "r: "))
}
