package api

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samcharles93/helix/internal/metrics"
)

type phaseRecord struct {
	Phase   string
	Summary metrics.Summary
}

type runRecord struct {
	ID          string
	Kind        string
	Status      RunStatus
	Phase       string
	Step        int
	Total       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
	Summary     *metrics.Summary
	History     []phaseRecord
	Err         string
}

// RunStore tracks train and eval runs in memory. It is safe for concurrent
// use by the loop goroutine and HTTP handlers.
type RunStore struct {
	mu    sync.Mutex
	runs  map[string]*runRecord
	clock func() time.Time
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs:  make(map[string]*runRecord),
		clock: time.Now,
	}
}

// Create registers a queued run and returns its id.
func (s *RunStore) Create(kind string) string {
	id := newRunID()
	now := s.clock()
	s.mu.Lock()
	s.runs[id] = &runRecord{
		ID:        id,
		Kind:      kind,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Unlock()
	return id
}

// StartPhase marks the run as running a new loop pass of total iterations.
func (s *RunStore) StartPhase(id, phase string, total int) error {
	return s.update(id, func(r *runRecord) {
		r.Status = StatusRunning
		r.Phase = phase
		r.Step = 0
		r.Total = total
		r.Summary = nil
	})
}

// Progress records the latest metrics snapshot for the current phase.
func (s *RunStore) Progress(id string, step int, summary metrics.Summary) error {
	summary.MaskedRecall = slices.Clone(summary.MaskedRecall)
	return s.update(id, func(r *runRecord) {
		r.Step = step
		r.Summary = &summary
	})
}

// EndPhase appends the last snapshot of the current phase to the history.
func (s *RunStore) EndPhase(id string) error {
	return s.update(id, func(r *runRecord) {
		if r.Summary != nil {
			r.History = append(r.History, phaseRecord{Phase: r.Phase, Summary: *r.Summary})
		}
	})
}

// Complete marks the run as successfully finished.
func (s *RunStore) Complete(id string) error {
	return s.finish(id, StatusCompleted, "")
}

// Fail marks the run as failed with err.
func (s *RunStore) Fail(id string, err error) error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return s.finish(id, StatusFailed, msg)
}

func (s *RunStore) finish(id string, status RunStatus, msg string) error {
	return s.update(id, func(r *runRecord) {
		r.Status = status
		r.Err = msg
		r.CompletedAt = r.UpdatedAt
	})
}

func (s *RunStore) update(id string, fn func(r *runRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	if r.Status == StatusCompleted || r.Status == StatusFailed {
		return ErrRunClosed
	}
	r.UpdatedAt = s.clock()
	fn(r)
	return nil
}

// Get returns a snapshot of the run.
func (s *RunStore) Get(id string) (RunObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return RunObject{}, false
	}
	return r.object(), true
}

// List returns every run, oldest first.
func (s *RunStore) List() []RunObject {
	s.mu.Lock()
	recs := make([]*runRecord, 0, len(s.runs))
	for _, r := range s.runs {
		recs = append(recs, r)
	}
	slices.SortFunc(recs, func(a, b *runRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	out := make([]RunObject, len(recs))
	for i, r := range recs {
		out[i] = r.object()
	}
	s.mu.Unlock()
	return out
}

// object must be called with the store lock held.
func (r *runRecord) object() RunObject {
	obj := RunObject{
		ID:        r.ID,
		Object:    "run",
		Kind:      r.Kind,
		Status:    r.Status,
		Phase:     r.Phase,
		Step:      r.Step,
		Total:     r.Total,
		CreatedAt: r.CreatedAt.Unix(),
		UpdatedAt: r.UpdatedAt.Unix(),
	}
	if !r.CompletedAt.IsZero() {
		completedAt := r.CompletedAt.Unix()
		obj.CompletedAt = &completedAt
	}
	if r.Summary != nil {
		m := newMetricsObject(*r.Summary)
		obj.Metrics = &m
	}
	for _, h := range r.History {
		obj.History = append(obj.History, PhaseResult{Phase: h.Phase, Metrics: newMetricsObject(h.Summary)})
	}
	if r.Err != "" {
		obj.Error = &ResponseError{Message: r.Err, Type: "run_error"}
	}
	return obj
}

func newRunID() string {
	return "run_" + uuid.NewString()
}
