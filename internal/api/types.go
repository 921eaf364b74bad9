package api

import (
	"math"

	"github.com/samcharles93/helix/internal/metrics"
)

// RunStatus is the lifecycle state of a tracked run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunObject is the wire representation of a run.
type RunObject struct {
	ID          string         `json:"id"`
	Object      string         `json:"object"`
	Kind        string         `json:"kind"`
	Status      RunStatus      `json:"status"`
	Phase       string         `json:"phase,omitempty"`
	Step        int            `json:"step"`
	Total       int            `json:"total"`
	CreatedAt   int64          `json:"created_at"`
	UpdatedAt   int64          `json:"updated_at"`
	CompletedAt *int64         `json:"completed_at,omitempty"`
	Metrics     *MetricsObject `json:"metrics,omitempty"`
	History     []PhaseResult  `json:"history,omitempty"`
	Error       *ResponseError `json:"error,omitempty"`
}

// PhaseResult is the final summary of one finished loop pass.
type PhaseResult struct {
	Phase   string        `json:"phase"`
	Metrics MetricsObject `json:"metrics"`
}

// MetricsObject mirrors metrics.Summary with NaN rendered as null.
type MetricsObject struct {
	Loss           *float64   `json:"loss"`
	Accuracy       *float64   `json:"accuracy"`
	MaskedAccuracy *float64   `json:"masked_accuracy"`
	MaskedRecall   []*float64 `json:"masked_recall"`
	MaskedIQS      *float64   `json:"masked_iqs"`
}

type RunList struct {
	Object string      `json:"object"`
	Data   []RunObject `json:"data"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

func newMetricsObject(s metrics.Summary) MetricsObject {
	out := MetricsObject{
		Loss:           finite(s.Loss),
		Accuracy:       finite(s.Accuracy),
		MaskedAccuracy: finite(s.MaskedAccuracy),
		MaskedIQS:      finite(s.MaskedIQS),
		MaskedRecall:   make([]*float64, len(s.MaskedRecall)),
	}
	for i, v := range s.MaskedRecall {
		out.MaskedRecall[i] = finite(v)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
