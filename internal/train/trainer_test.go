package train

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/loss"
	"github.com/san-kum/trajopt/internal/rollout"
)

func testObjective(t *testing.T, p dynamics.Params) loss.Objective {
	t.Helper()
	obj, err := loss.NewObjective(0, 0.5, -5.0, p.HoverThrust(), loss.DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	return obj
}

func TestNewValidation(t *testing.T) {
	p := dynamics.DefaultParams()
	obj := testObjective(t, p)
	init := rollout.Init{X: -5, Y: 5}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero horizon", Config{Horizon: 0, Epochs: 10, LearningRate: 0.1}},
		{"zero epochs", Config{Horizon: 10, Epochs: 0, LearningRate: 0.1}},
		{"zero lr", Config{Horizon: 10, Epochs: 10, LearningRate: 0}},
		{"negative decay", Config{Horizon: 10, Epochs: 10, LearningRate: 0.1, WeightDecay: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(p, obj, init, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	badParams := p
	badParams.Mass = -1
	if _, err := New(badParams, obj, init, DefaultConfig()); !errors.Is(err, dynamics.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}

func TestControlsStartAtHover(t *testing.T) {
	p := dynamics.DefaultParams()
	tr, err := New(p, testObjective(t, p), rollout.Init{X: -5, Y: 5}, Config{Horizon: 20, Epochs: 1, LearningRate: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	left, right := tr.Controls()
	hover := p.HoverThrust()
	for i := range left {
		if left[i] != hover || right[i] != hover {
			t.Fatalf("step %d controls = (%f, %f), want hover %f", i, left[i], right[i], hover)
		}
	}
}

func TestRunReportsEveryEpoch(t *testing.T) {
	p := dynamics.DefaultParams()
	tr, err := New(p, testObjective(t, p), rollout.Init{X: -5, Y: 5}, Config{Horizon: 20, Epochs: 15, LearningRate: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	var epochs []int
	if err := tr.Run(context.Background(), func(s EpochStats) {
		epochs = append(epochs, s.Epoch)
	}); err != nil {
		t.Fatal(err)
	}

	if len(epochs) != 15 {
		t.Fatalf("expected 15 epoch reports, got %d", len(epochs))
	}
	for i, e := range epochs {
		if e != i {
			t.Errorf("epoch %d reported as %d", i, e)
		}
	}
}

func TestRunCancellation(t *testing.T) {
	p := dynamics.DefaultParams()
	tr, err := New(p, testObjective(t, p), rollout.Init{X: -5, Y: 5}, Config{Horizon: 20, Epochs: 10000, LearningRate: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	runErr := tr.Run(ctx, func(EpochStats) {
		count++
		if count == 3 {
			cancel()
		}
	})

	if !errors.Is(runErr, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", runErr)
	}
	if count != 3 {
		t.Errorf("expected exactly 3 completed epochs, got %d", count)
	}
}

func TestRunUpdatesControls(t *testing.T) {
	p := dynamics.DefaultParams()
	tr, err := New(p, testObjective(t, p), rollout.Init{X: -5, Y: 5}, Config{Horizon: 20, Epochs: 5, LearningRate: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	left, right := tr.Controls()
	hover := p.HoverThrust()
	moved := false
	for i := range left {
		if left[i] != hover || right[i] != hover {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("optimization left every control at its initial value")
	}
}

func TestTrajectoryLength(t *testing.T) {
	p := dynamics.DefaultParams()
	tr, err := New(p, testObjective(t, p), rollout.Init{X: -5, Y: 5}, Config{Horizon: 20, Epochs: 1, LearningRate: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	traj, err := tr.Trajectory()
	if err != nil {
		t.Fatal(err)
	}
	if len(traj) != 21 {
		t.Errorf("expected 21 samples, got %d", len(traj))
	}
}
