// Package train drives the trajectory optimization: a fixed number of
// epochs, each zeroing gradients, rolling the dynamics out over the horizon,
// backpropagating the accumulated loss through time and stepping the
// optimizer. The loop is deterministic; given the same constants and initial
// controls it reproduces the same trajectory every run.
package train

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/trajopt/internal/autograd"
	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/loss"
	"github.com/san-kum/trajopt/internal/rollout"
)

// ErrNonFinite indicates the epoch loss left the representable range,
// typically the floor barrier evaluated too close to its singularity. The
// run is aborted rather than clamped; retrying with different weights is the
// caller's decision.
var ErrNonFinite = errors.New("train: non-finite loss")

// Config controls one optimization run. There is deliberately no early
// stopping: the epoch count is fixed so outcomes stay reproducible.
type Config struct {
	Horizon      int
	Epochs       int
	LearningRate float64
	WeightDecay  float64
}

func DefaultConfig() Config {
	return Config{Horizon: 100, Epochs: 200, LearningRate: 0.1, WeightDecay: 0}
}

func (c Config) validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("train: horizon must be positive, got %d", c.Horizon)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("train: epochs must be positive, got %d", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("train: learning rate must be positive, got %f", c.LearningRate)
	}
	if c.WeightDecay < 0 {
		return fmt.Errorf("train: weight decay must be non-negative, got %f", c.WeightDecay)
	}
	return nil
}

// EpochStats is reported after every optimizer step.
type EpochStats struct {
	Epoch  int
	Loss   float64
	MinY   float64
	FinalX float64
	FinalY float64
}

// Trainer owns the control-sequence leaves and their optimizer moment state.
// Trainers must not share leaves; parallel optimizations each construct
// their own.
type Trainer struct {
	params dynamics.Params
	obj    loss.Objective
	init   rollout.Init
	cfg    Config

	tape  *autograd.Tape
	left  []autograd.Value
	right []autograd.Value
	mark  int
	opt   Optimizer
}

// New builds a trainer with both control sequences initialized at hover
// thrust, so the first rollout neither free-falls nor rockets upward.
func New(p dynamics.Params, obj loss.Objective, init rollout.Init, cfg Config) (*Trainer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	tape := autograd.NewTape()
	hover := p.HoverThrust()

	left := make([]autograd.Value, cfg.Horizon)
	right := make([]autograd.Value, cfg.Horizon)
	for i := 0; i < cfg.Horizon; i++ {
		left[i] = tape.Leaf(hover)
		right[i] = tape.Leaf(hover)
	}

	leaves := make([]autograd.Value, 0, 2*cfg.Horizon)
	leaves = append(leaves, left...)
	leaves = append(leaves, right...)

	return &Trainer{
		params: p,
		obj:    obj,
		init:   init,
		cfg:    cfg,
		tape:   tape,
		left:   left,
		right:  right,
		mark:   tape.Mark(),
		opt:    NewAdamW(leaves, cfg.LearningRate, cfg.WeightDecay),
	}, nil
}

// Run executes the fixed epoch loop. Cancellation is honored at epoch
// boundaries only; an epoch in flight always completes its gradient step.
// onEpoch, when non-nil, receives stats after every step.
func (t *Trainer) Run(ctx context.Context, onEpoch func(EpochStats)) error {
	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t.opt.ZeroGrad()

		res, err := rollout.Run(t.tape, t.params, t.obj, t.init, t.left, t.right, true)
		if err != nil {
			return err
		}
		if !res.LossFinite() {
			t.tape.Rewind(t.mark)
			return fmt.Errorf("%w at epoch %d (min altitude %.3f)", ErrNonFinite, epoch, res.MinY)
		}

		res.Loss.Backward()
		t.opt.Step()

		stats := EpochStats{
			Epoch:  epoch,
			Loss:   res.Loss.Float(),
			MinY:   res.MinY,
			FinalX: res.Final.X.Float(),
			FinalY: res.Final.Y.Float(),
		}

		// Discard the epoch's graph; the leaves and their new values survive.
		t.tape.Rewind(t.mark)

		if onEpoch != nil {
			onEpoch(stats)
		}
	}
	return nil
}

// Controls returns copies of the current thrust sequences.
func (t *Trainer) Controls() (left, right []float64) {
	left = make([]float64, len(t.left))
	right = make([]float64, len(t.right))
	for i := range t.left {
		left[i] = t.left[i].Float()
		right[i] = t.right[i].Float()
	}
	return left, right
}

// Trajectory runs an inference rollout with the current controls and returns
// the (x, y, θ) samples. The trainer's graph state is untouched.
func (t *Trainer) Trajectory() ([]rollout.Sample, error) {
	left, right := t.Controls()
	return rollout.Infer(t.params, t.obj, t.init, left, right)
}
