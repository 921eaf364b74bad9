// Package nn implements MaskedLM, a small species-conditioned masked
// nucleotide model with hand-written gradients.
package nn

import (
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/helix/internal/tensor"
)

var (
	ErrNoForward     = errors.New("nn: backward called without a training forward pass")
	ErrTokenRange    = errors.New("nn: token out of range")
	ErrSpeciesRange  = errors.New("nn: species out of range")
	ErrShapeMismatch = errors.New("nn: shape mismatch")
)

// Config sizes a MaskedLM.
type Config struct {
	Vocab   int `yaml:"vocab"`
	Species int `yaml:"species"`
	Classes int `yaml:"classes"`
	Embed   int `yaml:"embed_dim"`
	Hidden  int `yaml:"hidden_dim"`
	// Window is the number of neighbours on each side feeding a position.
	Window int   `yaml:"window"`
	Seed   int64 `yaml:"seed"`
}

func (c Config) validate() error {
	switch {
	case c.Vocab <= 0, c.Classes <= 0, c.Embed <= 0, c.Hidden <= 0:
		return fmt.Errorf("nn: vocab, classes, embed and hidden must be positive (got %d, %d, %d, %d)",
			c.Vocab, c.Classes, c.Embed, c.Hidden)
	case c.Species <= 0:
		return fmt.Errorf("nn: species must be positive (got %d)", c.Species)
	case c.Window < 0:
		return fmt.Errorf("nn: window must be non-negative (got %d)", c.Window)
	}
	return nil
}

// MaskedLM predicts the class of every position of a token row from a
// window of neighbouring token embeddings and a species embedding:
//
//	h_j      = tanh(b + S[species] + sum_k W_k E[tok_{j+k}])   k in [-Window, Window]
//	logits_j = U h_j + c
//
// The hidden state h is returned as the per-position sequence embedding.
type MaskedLM struct {
	cfg Config

	tok   *Param   // [Vocab x Embed]
	spec  *Param   // [Species x Hidden]
	conv  []*Param // 2*Window+1 of [Hidden x Embed]
	convB *Param   // [1 x Hidden]
	head  *Param   // [Classes x Hidden]
	headB *Param   // [1 x Classes]

	training bool
	cache    *forwardCache
}

type forwardCache struct {
	tokens  [][]int
	species []int
	hidden  []tensor.Mat
}

// NewMaskedLM builds a model with deterministic initial weights.
func NewMaskedLM(cfg Config) (*MaskedLM, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &MaskedLM{
		cfg:   cfg,
		tok:   NewParam("tok_emb", cfg.Vocab, cfg.Embed),
		spec:  NewParam("species_emb", cfg.Species, cfg.Hidden),
		convB: NewParam("conv.bias", 1, cfg.Hidden),
		head:  NewParam("head.weight", cfg.Classes, cfg.Hidden),
		headB: NewParam("head.bias", 1, cfg.Classes),
	}
	k := 2*cfg.Window + 1
	convScale := float32(1 / math.Sqrt(float64(cfg.Embed*k)))
	for i := range k {
		p := NewParam(fmt.Sprintf("conv.%d", i-cfg.Window), cfg.Hidden, cfg.Embed)
		tensor.FillRand(&p.Value, cfg.Seed+int64(100+i), convScale)
		m.conv = append(m.conv, p)
	}
	tensor.FillRand(&m.tok.Value, cfg.Seed+11, 0.5)
	tensor.FillRand(&m.spec.Value, cfg.Seed+17, 0.1)
	tensor.FillRand(&m.head.Value, cfg.Seed+23, float32(1/math.Sqrt(float64(cfg.Hidden))))
	return m, nil
}

// Config returns the model configuration.
func (m *MaskedLM) Config() Config { return m.cfg }

// Params lists every trainable parameter.
func (m *MaskedLM) Params() []*Param {
	ps := []*Param{m.tok, m.spec}
	ps = append(ps, m.conv...)
	return append(ps, m.convB, m.head, m.headB)
}

// SetTraining toggles training mode.  Only training-mode forward passes
// keep the activations needed by Backward.
func (m *MaskedLM) SetTraining(on bool) {
	m.training = on
	if !on {
		m.cache = nil
	}
}

// Forward computes per-row logits [L x Classes] and embeddings
// [L x Hidden].
func (m *MaskedLM) Forward(tokens [][]int, species []int) (logits, embeddings []tensor.Mat, err error) {
	if len(species) != len(tokens) {
		return nil, nil, fmt.Errorf("%w: %d rows but %d species labels", ErrShapeMismatch, len(tokens), len(species))
	}
	logits = make([]tensor.Mat, len(tokens))
	embeddings = make([]tensor.Mat, len(tokens))
	for i, row := range tokens {
		sp := species[i]
		if sp < 0 || sp >= m.cfg.Species {
			return nil, nil, fmt.Errorf("%w: row %d species %d", ErrSpeciesRange, i, sp)
		}
		for j, t := range row {
			if t < 0 || t >= m.cfg.Vocab {
				return nil, nil, fmt.Errorf("%w: row %d position %d token %d", ErrTokenRange, i, j, t)
			}
		}
		h := tensor.NewMat(len(row), m.cfg.Hidden)
		out := tensor.NewMat(len(row), m.cfg.Classes)
		for j := range row {
			z := h.Row(j)
			copy(z, m.convB.Value.Row(0))
			tensor.Add(z, m.spec.Value.Row(sp))
			for k, w := range m.conv {
				p := j + k - m.cfg.Window
				if p < 0 || p >= len(row) {
					continue
				}
				tensor.MatVecAdd(z, &w.Value, m.tok.Value.Row(row[p]))
			}
			tensor.Tanh(z)
			o := out.Row(j)
			copy(o, m.headB.Value.Row(0))
			tensor.MatVecAdd(o, &m.head.Value, z)
		}
		logits[i] = out
		embeddings[i] = h
	}
	if m.training {
		m.cache = &forwardCache{tokens: tokens, species: species, hidden: embeddings}
	} else {
		m.cache = nil
	}
	return logits, embeddings, nil
}

// Backward accumulates parameter gradients for the last training forward
// pass given dLoss/dLogits, then releases the cached activations.
func (m *MaskedLM) Backward(dLogits []tensor.Mat) error {
	c := m.cache
	if c == nil {
		return ErrNoForward
	}
	m.cache = nil
	if len(dLogits) != len(c.tokens) {
		return fmt.Errorf("%w: %d gradient rows for %d input rows", ErrShapeMismatch, len(dLogits), len(c.tokens))
	}
	dh := make([]float32, m.cfg.Hidden)
	for i, row := range c.tokens {
		g := &dLogits[i]
		if g.R != len(row) || g.C != m.cfg.Classes {
			return fmt.Errorf("%w: row %d gradient is %dx%d, want %dx%d", ErrShapeMismatch, i, g.R, g.C, len(row), m.cfg.Classes)
		}
		h := &c.hidden[i]
		for j := range row {
			gj := g.Row(j)
			if allZero(gj) {
				continue
			}
			hj := h.Row(j)
			tensor.AddOuter(&m.head.Grad, gj, hj)
			tensor.Add(m.headB.Grad.Row(0), gj)

			clear(dh)
			tensor.MatTVecAdd(dh, &m.head.Value, gj)
			for u, v := range hj {
				dh[u] *= 1 - v*v
			}
			tensor.Add(m.convB.Grad.Row(0), dh)
			tensor.Add(m.spec.Grad.Row(c.species[i]), dh)
			for k, w := range m.conv {
				p := j + k - m.cfg.Window
				if p < 0 || p >= len(row) {
					continue
				}
				tensor.AddOuter(&w.Grad, dh, m.tok.Value.Row(row[p]))
				tensor.MatTVecAdd(m.tok.Grad.Row(row[p]), &w.Value, dh)
			}
		}
	}
	return nil
}

func allZero(x []float32) bool {
	for _, v := range x {
		if v != 0 {
			return false
		}
	}
	return true
}
