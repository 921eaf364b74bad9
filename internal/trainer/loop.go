// Package trainer drives a masked model through one training epoch or one
// evaluation pass, accumulating loss and metrics along the way.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samcharles93/helix/internal/dataset"
	"github.com/samcharles93/helix/internal/device"
	"github.com/samcharles93/helix/internal/logger"
	"github.com/samcharles93/helix/internal/logits"
	"github.com/samcharles93/helix/internal/loss"
	"github.com/samcharles93/helix/internal/metrics"
	"github.com/samcharles93/helix/internal/progress"
	"github.com/samcharles93/helix/internal/tensor"
)

// Train runs one epoch of gradient descent over loader and returns the
// EMA-smoothed loss with the final metric values.
func Train(ctx context.Context, model TrainableModel, opt Optimizer, loader Loader, opts Options) (metrics.Summary, error) {
	log := logger.FromContext(ctx).WithGroup("train")
	dev, err := device.Resolve(opts.Device)
	if err != nil {
		return metrics.Summary{}, err
	}

	ce := loss.NewCrossEntropy()
	tracker := metrics.NewTracker(opts.numClasses(), true)
	lossEMA := metrics.NewEMA()
	rep := opts.reporter("train")

	model.SetTraining(true)
	loader.Reset()
	rep.Start(totalIterations(loader))
	defer rep.Finish()

	var smoothed float64
	steps := 0
	for {
		b, err := loader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return metrics.Summary{}, fmt.Errorf("batch %d: %w", steps, err)
		}

		out, _, err := model.Forward(b.Masked, b.Species)
		if err != nil {
			return metrics.Summary{}, fmt.Errorf("batch %d: forward: %w", steps, err)
		}
		l, err := ce.Forward(out, b.TargetsMasked)
		if err != nil {
			return metrics.Summary{}, fmt.Errorf("batch %d: %w", steps, err)
		}
		grads, err := ce.Backward(out, b.TargetsMasked)
		if err != nil {
			return metrics.Summary{}, fmt.Errorf("batch %d: %w", steps, err)
		}

		opt.ZeroGrad()
		if err := model.Backward(grads); err != nil {
			return metrics.Summary{}, fmt.Errorf("batch %d: backward: %w", steps, err)
		}
		if err := opt.Step(); err != nil {
			return metrics.Summary{}, fmt.Errorf("batch %d: optimizer step: %w", steps, err)
		}

		smoothed = lossEMA.Update(l)
		tracker.Update(logits.Predict(out), b.Targets, b.TargetsMasked)
		steps++
		rep.Update(steps, tracker.Summary(smoothed))
	}
	if steps == 0 {
		return metrics.Summary{}, ErrNoBatches
	}

	s := tracker.Summary(smoothed)
	log.Debug("epoch complete", "device", dev, "batches", steps, "loss", s.Loss)
	return s, nil
}

// Evaluate runs one inference pass over loader.  The reported loss is the
// mean of per-batch losses.
func Evaluate(ctx context.Context, model Model, loader Loader, opts EvalOptions) (EvalResult, error) {
	log := logger.FromContext(ctx).WithGroup("eval")
	dev, err := device.Resolve(opts.Device)
	if err != nil {
		return EvalResult{}, err
	}

	ce := loss.NewCrossEntropy()
	tracker := metrics.NewTracker(opts.numClasses(), false)
	rep := opts.reporter("eval")
	res := EvalResult{MotifProbas: [][]float64{}}

	model.SetTraining(false)
	loader.Reset()
	rep.Start(totalIterations(loader))
	defer rep.Finish()

	var lossSum float64
	steps := 0
	for {
		b, err := loader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return EvalResult{}, fmt.Errorf("batch %d: %w", steps, err)
		}

		species := b.Species
		if opts.GetEmbeddings {
			if species, err = broadcastSpecies(b.Species, b.Rows()); err != nil {
				return EvalResult{}, fmt.Errorf("batch %d: %w", steps, err)
			}
		}

		out, emb, err := model.Forward(b.Masked, species)
		if err != nil {
			return EvalResult{}, fmt.Errorf("batch %d: forward: %w", steps, err)
		}
		logits.ApplyTemperature(out, opts.Temperature)

		l, err := ce.Forward(out, b.TargetsMasked)
		if err != nil {
			return EvalResult{}, fmt.Errorf("batch %d: %w", steps, err)
		}
		lossSum += l
		tracker.Update(logits.Predict(out), b.Targets, b.TargetsMasked)

		if opts.GetEmbeddings {
			name := fmt.Sprintf("seq_%d", steps)
			if len(b.Names) > 0 {
				name = b.Names[0]
			}
			res.Embeddings = append(res.Embeddings, extractEmbedding(name, out, emb, b.TargetsMasked))
		}

		steps++
		rep.Update(steps, tracker.Summary(lossSum/float64(steps)))
	}
	if steps == 0 {
		return EvalResult{}, ErrNoBatches
	}

	res.Metrics = tracker.Summary(lossSum / float64(steps))
	log.Debug("pass complete", "device", dev, "batches", steps, "loss", res.Metrics.Loss,
		"embeddings", len(res.Embeddings))
	return res, nil
}

// extractEmbedding averages the embeddings of every masked position and
// collects the log-probability of the true base at each of them.
func extractEmbedding(name string, out, emb []tensor.Mat, targetsMasked [][]int) SequenceEmbedding {
	var vecs [][]float32
	for i := range targetsMasked {
		for j, y := range targetsMasked[i] {
			if y != dataset.IgnoreIndex {
				vecs = append(vecs, emb[i].Row(j))
			}
		}
	}
	se := SequenceEmbedding{Name: name, Embedding: tensor.Mean(vecs)}

	width := 0
	for _, row := range targetsMasked {
		width = max(width, len(row))
	}
	for j := 0; j < width; j++ {
		for i, row := range targetsMasked {
			if j >= len(row) || row[j] == dataset.IgnoreIndex {
				continue
			}
			se.LogProbs = append(se.LogProbs, logits.LogProbAt(out[i].Row(j), row[j]))
		}
	}
	return se
}

func broadcastSpecies(species []int, rows int) ([]int, error) {
	switch len(species) {
	case rows:
		return species, nil
	case 1:
		out := make([]int, rows)
		for i := range out {
			out[i] = species[0]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d species labels for %d rows", ErrShapeMismatch, len(species), rows)
	}
}

func totalIterations(l Loader) int {
	bs := l.BatchSize()
	if bs <= 0 {
		return 0
	}
	return l.Len() / bs
}

func (o Options) numClasses() int {
	if o.NumClasses > 0 {
		return o.NumClasses
	}
	return dataset.NumClasses
}

func (o Options) reporter(desc string) progress.Reporter {
	if o.Silent {
		return progress.Nop{}
	}
	if o.Reporter != nil {
		return o.Reporter
	}
	return progress.NewBar(os.Stderr, desc)
}
