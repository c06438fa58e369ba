package replay

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/loss"
	"github.com/san-kum/trajopt/internal/rollout"
)

func TestSimulateValidation(t *testing.T) {
	p := dynamics.DefaultParams()

	if _, err := Simulate(p, rollout.Init{}, nil, nil); !errors.Is(err, rollout.ErrHorizonMismatch) {
		t.Errorf("expected ErrHorizonMismatch, got %v", err)
	}
	if _, err := Simulate(p, rollout.Init{}, make([]float64, 5), make([]float64, 4)); !errors.Is(err, rollout.ErrHorizonMismatch) {
		t.Errorf("expected ErrHorizonMismatch, got %v", err)
	}

	bad := p
	bad.Dt = 0
	if _, err := Simulate(bad, rollout.Init{}, make([]float64, 5), make([]float64, 5)); !errors.Is(err, dynamics.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}

func TestSimulateFrameCount(t *testing.T) {
	p := dynamics.DefaultParams()
	frames, err := Simulate(p, rollout.Init{Y: 5}, make([]float64, 40), make([]float64, 40))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 41 {
		t.Errorf("expected 41 frames, got %d", len(frames))
	}
	wantT := 40 * p.Dt
	if math.Abs(frames[len(frames)-1].T-wantT) > 1e-12 {
		t.Errorf("final time = %f, want %f", frames[len(frames)-1].T, wantT)
	}
}

func TestSimulateMatchesDifferentiableRollout(t *testing.T) {
	p := dynamics.DefaultParams()
	obj, err := loss.NewObjective(0, 0.5, -5.0, p.HoverThrust(), loss.DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	init := rollout.Init{X: -5, Y: 5, Theta: 0.1}

	hover := p.HoverThrust()
	left := make([]float64, 60)
	right := make([]float64, 60)
	for i := range left {
		left[i] = hover + 0.2*math.Sin(float64(i)*0.3)
		right[i] = hover - 0.1*math.Cos(float64(i)*0.2)
	}

	frames, err := Simulate(p, init, left, right)
	if err != nil {
		t.Fatal(err)
	}
	traj, err := rollout.Infer(p, obj, init, left, right)
	if err != nil {
		t.Fatal(err)
	}

	if len(frames) != len(traj) {
		t.Fatalf("frame count %d != trajectory length %d", len(frames), len(traj))
	}
	for i := range frames {
		if math.Abs(frames[i].X-traj[i].X) > 1e-12 ||
			math.Abs(frames[i].Y-traj[i].Y) > 1e-12 ||
			math.Abs(frames[i].Theta-traj[i].Theta) > 1e-12 {
			t.Errorf("step %d: replay (%f, %f, %f) != rollout (%f, %f, %f)",
				i, frames[i].X, frames[i].Y, frames[i].Theta, traj[i].X, traj[i].Y, traj[i].Theta)
		}
	}
}

type countingObserver struct{ n int }

func (c *countingObserver) OnFrame(Frame) { c.n++ }

func TestSimulateObservers(t *testing.T) {
	p := dynamics.DefaultParams()
	obs := &countingObserver{}

	_, err := Simulate(p, rollout.Init{Y: 5}, make([]float64, 10), make([]float64, 10), obs)
	if err != nil {
		t.Fatal(err)
	}
	if obs.n != 11 {
		t.Errorf("observer saw %d frames, want 11", obs.n)
	}
}

func TestHoverHoldsAltitude(t *testing.T) {
	p := dynamics.DefaultParams()
	hover := p.HoverThrust()

	n := 100
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range left {
		left[i] = hover
		right[i] = hover
	}

	frames, err := Simulate(p, rollout.Init{Y: 5}, left, right)
	if err != nil {
		t.Fatal(err)
	}

	last := frames[len(frames)-1]
	if math.Abs(last.Y-5) > 1e-9 {
		t.Errorf("hover drifted to y=%f", last.Y)
	}
	if math.Abs(last.VY) > 1e-9 {
		t.Errorf("hover picked up vertical velocity %f", last.VY)
	}
	if last.Theta != 0 || last.Omega != 0 {
		t.Errorf("hover induced rotation: theta=%f omega=%f", last.Theta, last.Omega)
	}
}
