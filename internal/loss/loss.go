// Package loss composes the per-step trajectory objective: a weighted sum of
// position error, velocity, tilt, control effort and a reciprocal floor
// barrier. Additive terms keep the objective differentiable everywhere
// except the barrier singularity at y = FloorY.
package loss

import (
	"errors"
	"fmt"

	"github.com/san-kum/trajopt/internal/autograd"
	"github.com/san-kum/trajopt/internal/dynamics"
)

// ErrInvalidObjective indicates a loss configuration that cannot be evaluated.
var ErrInvalidObjective = errors.New("loss: invalid objective")

// Weights scale the five loss terms. All terms are non-negative, so any
// non-negative weight set yields a non-negative step loss.
type Weights struct {
	Pos     float64
	Vel     float64
	Angle   float64
	Effort  float64
	Barrier float64
}

func DefaultWeights() Weights {
	return Weights{Pos: 10.0, Vel: 1.0, Angle: 10.0, Effort: 0.001, Barrier: 20.0}
}

// Objective evaluates the step loss against a fixed hover target.
//
// The barrier term 1/(y − FloorY) grows without bound as y approaches
// FloorY from above and is singular at y = FloorY. FloorY must sit strictly
// below every reachable altitude; the term is never clamped, so a trajectory
// that reaches it produces a non-finite loss that callers must treat as
// fatal for the epoch.
type Objective struct {
	TargetX float64
	TargetY float64
	FloorY  float64
	Hover   float64
	W       Weights
}

// NewObjective validates target placement relative to the barrier.
func NewObjective(targetX, targetY, floorY, hover float64, w Weights) (Objective, error) {
	if targetY <= floorY {
		return Objective{}, fmt.Errorf("%w: target y %.3f at or below floor %.3f", ErrInvalidObjective, targetY, floorY)
	}
	if w.Pos < 0 || w.Vel < 0 || w.Angle < 0 || w.Effort < 0 || w.Barrier < 0 {
		return Objective{}, fmt.Errorf("%w: negative weight", ErrInvalidObjective)
	}
	return Objective{TargetX: targetX, TargetY: targetY, FloorY: floorY, Hover: hover, W: w}, nil
}

// StepLoss scores one post-step state with the thrusts that produced it.
// Effort penalizes deviation from hover thrust rather than absolute thrust,
// so minimizing energy does not drive the optimum toward free fall.
func (o Objective) StepLoss(s dynamics.State, tl, tr autograd.Value) autograd.Value {
	dx := s.X.SubFloat(o.TargetX)
	dy := s.Y.SubFloat(o.TargetY)
	distSq := dx.Square().Add(dy.Square())

	velSq := s.VX.Square().Add(s.VY.Square())
	angleSq := s.Theta.Square()

	el := tl.SubFloat(o.Hover)
	er := tr.SubFloat(o.Hover)
	effort := el.Square().Add(er.Square())

	barrier := s.Y.SubFloat(o.FloorY).Pow(-1)

	return distSq.MulFloat(o.W.Pos).
		Add(velSq.MulFloat(o.W.Vel)).
		Add(angleSq.MulFloat(o.W.Angle)).
		Add(effort.MulFloat(o.W.Effort)).
		Add(barrier.MulFloat(o.W.Barrier))
}
