package train

import (
	"math"

	"github.com/san-kum/trajopt/internal/autograd"
)

// Optimizer updates trainable leaves in place from their accumulated
// gradients.
type Optimizer interface {
	ZeroGrad()
	Step()
}

// SGD is plain gradient descent: p ← p − lr·grad.
type SGD struct {
	params []autograd.Value
	lr     float64
}

func NewSGD(params []autograd.Value, lr float64) *SGD {
	return &SGD{params: params, lr: lr}
}

func (s *SGD) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

func (s *SGD) Step() {
	for _, p := range s.params {
		p.SetFloat(p.Float() - s.lr*p.Grad())
	}
}

// AdamW is Adam with decoupled weight decay. Decay is applied directly to
// the parameter before the moment update, and a zero coefficient disables it
// entirely; for thrust optimization decay must stay at zero, since pulling
// thrusts toward zero sends the drone into free fall.
type AdamW struct {
	Beta1, Beta2 float64
	Eps          float64

	params      []autograd.Value
	lr          float64
	weightDecay float64
	m, v        []float64
	t           int
}

func NewAdamW(params []autograd.Value, lr, weightDecay float64) *AdamW {
	return &AdamW{
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         1e-8,
		params:      params,
		lr:          lr,
		weightDecay: weightDecay,
		m:           make([]float64, len(params)),
		v:           make([]float64, len(params)),
	}
}

func (a *AdamW) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

func (a *AdamW) Step() {
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))

	for i, p := range a.params {
		val := p.Float()
		if a.weightDecay > 0 {
			val -= a.lr * a.weightDecay * val
		}

		g := p.Grad()
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g

		mHat := a.m[i] / c1
		vHat := a.v[i] / c2

		p.SetFloat(val - a.lr*mHat/(math.Sqrt(vHat)+a.Eps))
	}
}
