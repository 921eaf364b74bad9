package metrics

import "math"

// DefaultEMABeta is the smoothing factor used for displayed running values.
const DefaultEMABeta = 0.98

// EMA is a bias-corrected exponential moving average.  The first update
// returns its input unchanged.
type EMA struct {
	Beta  float64
	value float64
	n     int
}

// NewEMA returns an EMA with DefaultEMABeta.
func NewEMA() *EMA { return &EMA{Beta: DefaultEMABeta} }

// Update folds x into the average and returns the corrected value.
func (e *EMA) Update(x float64) float64 {
	e.n++
	e.value = e.Beta*e.value + (1-e.Beta)*x
	return e.Value()
}

// Value returns the bias-corrected average, or NaN before any update.
func (e *EMA) Value() float64 {
	if e.n == 0 {
		return math.NaN()
	}
	return e.value / (1 - math.Pow(e.Beta, float64(e.n)))
}

// Reset discards all history.
func (e *EMA) Reset() {
	e.value = 0
	e.n = 0
}
