// Package optim provides gradient-descent optimizers over nn parameters.
package optim

import (
	"fmt"
	"math"
	"strings"

	"github.com/samcharles93/helix/internal/nn"
)

// Optimizer updates parameters from their accumulated gradients.
type Optimizer interface {
	ZeroGrad()
	Step() error
	LR() float64
	SetLR(lr float64)
}

// Config selects and parameterises an optimizer.
type Config struct {
	Name        string  `yaml:"name"`
	LR          float64 `yaml:"lr"`
	Momentum    float64 `yaml:"momentum"`
	WeightDecay float64 `yaml:"weight_decay"`
	Beta1       float64 `yaml:"beta1"`
	Beta2       float64 `yaml:"beta2"`
	Eps         float64 `yaml:"eps"`
	// LRDecay multiplies the learning rate after every epoch; 0 disables.
	LRDecay float64 `yaml:"lr_decay"`
}

// New builds the optimizer named by cfg.Name ("adam" or "sgd").
func New(params []*nn.Param, cfg Config) (Optimizer, error) {
	if cfg.LR <= 0 {
		return nil, fmt.Errorf("optim: learning rate must be positive (got %g)", cfg.LR)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", "adam":
		return NewAdam(params, cfg.LR, cfg.Beta1, cfg.Beta2, cfg.Eps, cfg.WeightDecay), nil
	case "sgd":
		return NewSGD(params, cfg.LR, cfg.Momentum, cfg.WeightDecay), nil
	default:
		return nil, fmt.Errorf("optim: unknown optimizer %q (expected adam or sgd)", cfg.Name)
	}
}

// Decay scales the learning rate of o by factor and returns the new rate.
// Factors outside (0, 1) leave the rate unchanged.
func Decay(o Optimizer, factor float64) float64 {
	if factor > 0 && factor < 1 {
		o.SetLR(o.LR() * factor)
	}
	return o.LR()
}

func zeroGrads(params []*nn.Param) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

func checkFinite(p *nn.Param) error {
	for _, g := range p.Grad.Data {
		if math.IsNaN(float64(g)) || math.IsInf(float64(g), 0) {
			return fmt.Errorf("optim: non-finite gradient in %s", p.Name)
		}
	}
	return nil
}

// SGD implements stochastic gradient descent with optional momentum and
// L2 weight decay.
type SGD struct {
	params      []*nn.Param
	lr          float64
	momentum    float64
	weightDecay float64
	velocity    [][]float32
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*nn.Param, lr, momentum, weightDecay float64) *SGD {
	s := &SGD{params: params, lr: lr, momentum: momentum, weightDecay: weightDecay}
	if momentum > 0 {
		s.velocity = make([][]float32, len(params))
		for i, p := range params {
			s.velocity[i] = make([]float32, len(p.Value.Data))
		}
	}
	return s
}

func (s *SGD) ZeroGrad()        { zeroGrads(s.params) }
func (s *SGD) LR() float64      { return s.lr }
func (s *SGD) SetLR(lr float64) { s.lr = lr }

// Step performs a single optimization step.
func (s *SGD) Step() error {
	lr := float32(s.lr)
	wd := float32(s.weightDecay)
	mu := float32(s.momentum)
	for i, p := range s.params {
		if err := checkFinite(p); err != nil {
			return err
		}
		for k, g := range p.Grad.Data {
			g += wd * p.Value.Data[k]
			if s.velocity != nil {
				v := mu*s.velocity[i][k] + g
				s.velocity[i][k] = v
				g = v
			}
			p.Value.Data[k] -= lr * g
		}
	}
	return nil
}

// Adam implements the Adam optimizer with bias correction and L2 weight
// decay folded into the gradient.
type Adam struct {
	params      []*nn.Param
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	step        int
	m, v        [][]float32
}

// NewAdam creates a new Adam optimizer.  Zero betas and eps select the
// usual defaults (0.9, 0.999, 1e-8).
func NewAdam(params []*nn.Param, lr, beta1, beta2, eps, weightDecay float64) *Adam {
	if beta1 <= 0 {
		beta1 = 0.9
	}
	if beta2 <= 0 {
		beta2 = 0.999
	}
	if eps <= 0 {
		eps = 1e-8
	}
	a := &Adam{
		params: params, lr: lr, beta1: beta1, beta2: beta2, eps: eps, weightDecay: weightDecay,
		m: make([][]float32, len(params)),
		v: make([][]float32, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float32, len(p.Value.Data))
		a.v[i] = make([]float32, len(p.Value.Data))
	}
	return a
}

func (a *Adam) ZeroGrad()        { zeroGrads(a.params) }
func (a *Adam) LR() float64      { return a.lr }
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// Steps returns the number of updates applied so far.
func (a *Adam) Steps() int { return a.step }

// Step performs a single optimization step.
func (a *Adam) Step() error {
	for _, p := range a.params {
		if err := checkFinite(p); err != nil {
			return err
		}
	}
	a.step++
	bc1 := 1 - math.Pow(a.beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.beta2, float64(a.step))
	b1, b2 := float32(a.beta1), float32(a.beta2)
	stepSize := float32(a.lr / bc1)
	invBC2 := float32(1 / bc2)
	eps := float32(a.eps)
	wd := float32(a.weightDecay)
	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for k, g := range p.Grad.Data {
			g += wd * p.Value.Data[k]
			m[k] = b1*m[k] + (1-b1)*g
			v[k] = b2*v[k] + (1-b2)*g*g
			denom := float32(math.Sqrt(float64(v[k]*invBC2))) + eps
			p.Value.Data[k] -= stepSize * m[k] / denom
		}
	}
	return nil
}
