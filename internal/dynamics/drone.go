// Package dynamics models a two-motor planar drone as a pure differentiable
// step function. Position, velocity, orientation and angular velocity are
// autograd scalars, so gradients flow from any downstream loss back to the
// thrust inputs across an arbitrary number of steps.
package dynamics

import "github.com/san-kum/trajopt/internal/autograd"

// State is the six-component drone state. Every component is differentiable;
// a step never mutates its input, it returns a fresh State so the recorded
// graph stays acyclic.
type State struct {
	X     autograd.Value
	VX    autograd.Value
	Y     autograd.Value
	VY    autograd.Value
	Theta autograd.Value
	Omega autograd.Value
}

// NewState records a fixed (non-trainable) initial condition on the tape.
func NewState(tape *autograd.Tape, x, vx, y, vy, theta, omega float64) State {
	return State{
		X:     tape.Constant(x),
		VX:    tape.Constant(vx),
		Y:     tape.Constant(y),
		VY:    tape.Constant(vy),
		Theta: tape.Constant(theta),
		Omega: tape.Constant(omega),
	}
}

// Floats returns the plain scalar components (x, vx, y, vy, θ, ω).
func (s State) Floats() [6]float64 {
	return [6]float64{s.X.Float(), s.VX.Float(), s.Y.Float(), s.VY.Float(), s.Theta.Float(), s.Omega.Float()}
}

// Step advances the drone one timestep under left/right motor thrusts.
//
// Total thrust F = tl + tr acts along the body's up axis; torque is
// (tr − tl)·L, so symmetric thrusts produce exactly zero rotation.
// Integration is explicit forward Euler with the previous step's rates:
// positions advance by the old velocities, velocities by the accelerations
// computed from the old state. The scheme is part of the trajectory
// contract, not an approximation to be upgraded.
func Step(p Params, s State, tl, tr autograd.Value) State {
	force := tl.Add(tr)
	torque := tr.Sub(tl).MulFloat(p.ArmLength)

	sinTh := s.Theta.Sin()
	cosTh := s.Theta.Cos()

	ax := force.Mul(sinTh).Neg().DivFloat(p.Mass)
	ay := force.Mul(cosTh).DivFloat(p.Mass).SubFloat(p.Gravity)
	alpha := torque.DivFloat(p.Inertia)

	return State{
		X:     s.X.Add(s.VX.MulFloat(p.Dt)),
		VX:    s.VX.Add(ax.MulFloat(p.Dt)),
		Y:     s.Y.Add(s.VY.MulFloat(p.Dt)),
		VY:    s.VY.Add(ay.MulFloat(p.Dt)),
		Theta: s.Theta.Add(s.Omega.MulFloat(p.Dt)),
		Omega: s.Omega.Add(alpha.MulFloat(p.Dt)),
	}
}
