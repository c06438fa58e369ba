// Package rollout unrolls the drone dynamics over a fixed horizon, threading
// a differentiable state through every step and accumulating the objective
// into a single scalar for backpropagation through time.
package rollout

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/trajopt/internal/autograd"
	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/loss"
)

// ErrHorizonMismatch indicates control sequences whose length differs from
// each other or from the requested horizon.
var ErrHorizonMismatch = errors.New("rollout: control sequence length mismatch")

// Init is the fixed initial condition. It is recorded as constants, never as
// trainable leaves: the optimizer must not be able to move the start state.
type Init struct {
	X     float64
	VX    float64
	Y     float64
	VY    float64
	Theta float64
	Omega float64
}

// Sample is one recorded trajectory point.
type Sample struct {
	X     float64
	Y     float64
	Theta float64
}

// Result of one rollout. Loss is only meaningful when HasLoss is set;
// Trajectory is recorded only on inference runs.
type Result struct {
	Final      dynamics.State
	Loss       autograd.Value
	HasLoss    bool
	Trajectory []Sample
	MinY       float64
}

// Run unrolls exactly len(left) steps of the dynamics from init. There is no
// early termination and no divergence check: a diverging trajectory still
// runs to the horizon and surfaces through its loss value.
//
// With computeLoss set, the per-step losses are summed into Result.Loss and
// the recorded graph supports a backward pass. Without it, the rollout is an
// inference pass: it records the (x, y, θ) trajectory instead, and callers
// are expected to rewind the tape afterwards since no gradients are wanted.
func Run(tape *autograd.Tape, p dynamics.Params, obj loss.Objective, init Init, left, right []autograd.Value, computeLoss bool) (*Result, error) {
	if err := checkHorizon(len(left), len(right)); err != nil {
		return nil, err
	}

	s := dynamics.NewState(tape, init.X, init.VX, init.Y, init.VY, init.Theta, init.Omega)

	res := &Result{MinY: init.Y}
	stepLosses := make([]autograd.Value, 0, len(left))
	if !computeLoss {
		res.Trajectory = make([]Sample, 0, len(left)+1)
		res.Trajectory = append(res.Trajectory, Sample{X: init.X, Y: init.Y, Theta: init.Theta})
	}

	for i := range left {
		s = dynamics.Step(p, s, left[i], right[i])

		if y := s.Y.Float(); y < res.MinY {
			res.MinY = y
		}

		if computeLoss {
			stepLosses = append(stepLosses, obj.StepLoss(s, left[i], right[i]))
		} else {
			res.Trajectory = append(res.Trajectory, Sample{
				X:     s.X.Float(),
				Y:     s.Y.Float(),
				Theta: s.Theta.Float(),
			})
		}
	}

	res.Final = s
	if computeLoss {
		res.Loss = autograd.Sum(stepLosses)
		res.HasLoss = true
	}
	return res, nil
}

// Infer runs a gradient-free rollout of plain thrust values on a scratch
// tape and returns only the trajectory.
func Infer(p dynamics.Params, obj loss.Objective, init Init, left, right []float64) ([]Sample, error) {
	if err := checkHorizon(len(left), len(right)); err != nil {
		return nil, err
	}

	tape := autograd.NewTape()
	lv := make([]autograd.Value, len(left))
	rv := make([]autograd.Value, len(right))
	for i := range left {
		lv[i] = tape.Constant(left[i])
		rv[i] = tape.Constant(right[i])
	}

	res, err := Run(tape, p, obj, init, lv, rv, false)
	if err != nil {
		return nil, err
	}
	return res.Trajectory, nil
}

func checkHorizon(nl, nr int) error {
	if nl == 0 {
		return fmt.Errorf("%w: empty control sequence", ErrHorizonMismatch)
	}
	if nl != nr {
		return fmt.Errorf("%w: left %d, right %d", ErrHorizonMismatch, nl, nr)
	}
	return nil
}

// LossFinite reports whether the accumulated loss is a usable number. A
// non-finite loss (typically the floor barrier evaluated pathologically close
// to its singularity) is fatal for the epoch and must not be clamped.
func (r *Result) LossFinite() bool {
	if !r.HasLoss {
		return false
	}
	f := r.Loss.Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
