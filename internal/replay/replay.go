// Package replay re-simulates an optimized control sequence with plain
// float64 arithmetic, using the same forward Euler scheme as the
// differentiable rollout. It exists to validate trained controls without
// autodiff overhead and to feed visualization and metrics; it never trains.
package replay

import (
	"fmt"
	"math"

	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/rollout"
)

// Frame is the full state at one timestep together with the thrusts applied
// during the step that produced the next frame. The last frame carries the
// thrusts of the final step.
type Frame struct {
	T     float64
	X     float64
	VX    float64
	Y     float64
	VY    float64
	Theta float64
	Omega float64
	TL    float64
	TR    float64
}

// Observer is notified after every frame.
type Observer interface {
	OnFrame(f Frame)
}

// Simulate replays the controls from init and returns one frame per step
// plus the initial frame. It mirrors the differentiable rollout exactly:
// fixed step count, previous-step rates, no collision or termination checks.
func Simulate(p dynamics.Params, init rollout.Init, left, right []float64, observers ...Observer) ([]Frame, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(left) == 0 || len(left) != len(right) {
		return nil, fmt.Errorf("%w: left %d, right %d", rollout.ErrHorizonMismatch, len(left), len(right))
	}

	x, vx := init.X, init.VX
	y, vy := init.Y, init.VY
	theta, omega := init.Theta, init.Omega

	frames := make([]Frame, 0, len(left)+1)
	emit := func(f Frame) {
		frames = append(frames, f)
		for _, o := range observers {
			o.OnFrame(f)
		}
	}

	emit(Frame{X: x, VX: vx, Y: y, VY: vy, Theta: theta, Omega: omega, TL: left[0], TR: right[0]})

	t := 0.0
	for i := range left {
		tl, tr := left[i], right[i]

		force := tl + tr
		torque := (tr - tl) * p.ArmLength

		ax := -force * math.Sin(theta) / p.Mass
		ay := force*math.Cos(theta)/p.Mass - p.Gravity
		alpha := torque / p.Inertia

		x += vx * p.Dt
		vx += ax * p.Dt
		y += vy * p.Dt
		vy += ay * p.Dt
		theta += omega * p.Dt
		omega += alpha * p.Dt

		t += p.Dt
		emit(Frame{T: t, X: x, VX: vx, Y: y, VY: vy, Theta: theta, Omega: omega, TL: tl, TR: tr})
	}

	return frames, nil
}
