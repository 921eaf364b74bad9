package api

import (
	"github.com/samcharles93/helix/internal/metrics"
)

// Reporter publishes loop progress for one phase of a run into a RunStore.
// It satisfies progress.Reporter.
type Reporter struct {
	store *RunStore
	id    string
	phase string
}

// NewReporter returns a reporter for the given run and phase label
// (for example "epoch 3 train").
func NewReporter(store *RunStore, id, phase string) *Reporter {
	return &Reporter{store: store, id: id, phase: phase}
}

func (r *Reporter) Start(total int) {
	_ = r.store.StartPhase(r.id, r.phase, total)
}

func (r *Reporter) Update(step int, s metrics.Summary) {
	_ = r.store.Progress(r.id, step, s)
}

func (r *Reporter) Finish() {
	_ = r.store.EndPhase(r.id)
}
