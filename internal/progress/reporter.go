// Package progress reports per-batch loop progress to terminals and other
// sinks.
package progress

import "github.com/samcharles93/helix/internal/metrics"

// Reporter receives progress from a training or evaluation loop.
type Reporter interface {
	// Start announces the expected number of iterations.
	Start(total int)
	// Update reports the metrics after step iterations.
	Update(step int, s metrics.Summary)
	// Finish marks the end of the pass.
	Finish()
}

// Nop discards all progress.
type Nop struct{}

func (Nop) Start(int) {}

func (Nop) Update(int, metrics.Summary) {}

func (Nop) Finish() {}

type multi []Reporter

// Multi fans progress out to every non-nil reporter.
func Multi(rs ...Reporter) Reporter {
	var out multi
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multi) Start(total int) {
	for _, r := range m {
		r.Start(total)
	}
}

func (m multi) Update(step int, s metrics.Summary) {
	for _, r := range m {
		r.Update(step, s)
	}
}

func (m multi) Finish() {
	for _, r := range m {
		r.Finish()
	}
}
