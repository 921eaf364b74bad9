package trainer

import (
	"context"
	"errors"

	"github.com/samcharles93/helix/internal/dataset"
	"github.com/samcharles93/helix/internal/metrics"
	"github.com/samcharles93/helix/internal/progress"
	"github.com/samcharles93/helix/internal/tensor"
)

var (
	// ErrNoBatches is returned when a loader yields nothing to iterate.
	ErrNoBatches = errors.New("trainer: loader yielded no batches")
	// ErrShapeMismatch is returned for batches the loop cannot interpret.
	ErrShapeMismatch = errors.New("trainer: shape mismatch")
)

// Model maps token rows conditioned on species labels to per-position class
// logits and per-position embeddings, one matrix per row.
type Model interface {
	Forward(tokens [][]int, species []int) (logits, embeddings []tensor.Mat, err error)
	SetTraining(on bool)
}

// TrainableModel can backpropagate dLoss/dLogits of its last forward pass
// into its parameter gradients.
type TrainableModel interface {
	Model
	Backward(dLogits []tensor.Mat) error
}

// Optimizer applies accumulated gradients.
type Optimizer interface {
	ZeroGrad()
	Step() error
}

// Loader yields batches for one pass.  Next returns io.EOF once the pass is
// exhausted.
type Loader interface {
	Len() int
	BatchSize() int
	Reset()
	Next(ctx context.Context) (*dataset.Batch, error)
}

// Options are shared by Train and Evaluate.
type Options struct {
	// Device names the execution device ("auto", "cpu", ...).
	Device string
	// Silent disables progress reporting.
	Silent bool
	// Reporter receives progress unless Silent.  Nil selects a progress bar
	// on stderr.
	Reporter progress.Reporter
	// NumClasses sizes the recall metrics; zero means dataset.NumClasses.
	NumClasses int
}

// EvalOptions configure Evaluate.
type EvalOptions struct {
	Options
	// GetEmbeddings treats each loader item as one expanded sequence and
	// collects its embedding and ground-truth log-probabilities.
	GetEmbeddings bool
	// Temperature divides the logits before loss and predictions when > 0.
	Temperature float32
}

// SequenceEmbedding is the per-sequence output of embedding mode.
type SequenceEmbedding struct {
	Name string `json:"seq_name"`
	// Embedding is the mean embedding over masked positions; nil when the
	// sequence had no masked position.
	Embedding []float32 `json:"embedding"`
	// LogProbs holds log p(true base) at every masked position, ordered by
	// position and then by row.
	LogProbs []float64 `json:"logprobs"`
}

// EvalResult is the outcome of Evaluate.
type EvalResult struct {
	Metrics    metrics.Summary
	Embeddings []SequenceEmbedding
	// MotifProbas is reserved for motif-level probabilities and is always
	// empty.
	MotifProbas [][]float64
}
