package train

import (
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/autograd"
)

func TestSGDStep(t *testing.T) {
	tape := autograd.NewTape()
	w := tape.Leaf(2.0)

	opt := NewSGD([]autograd.Value{w}, 0.5)

	// f(w) = w², f'(2) = 4, one step: 2 − 0.5·4 = 0.
	y := w.Square()
	y.Backward()
	opt.Step()

	if w.Float() != 0 {
		t.Errorf("expected 0 after SGD step, got %f", w.Float())
	}
}

func TestZeroGrad(t *testing.T) {
	tape := autograd.NewTape()
	w := tape.Leaf(2.0)
	opt := NewAdamW([]autograd.Value{w}, 0.1, 0)

	w.Square().Backward()
	if w.Grad() == 0 {
		t.Fatal("expected non-zero gradient before ZeroGrad")
	}

	opt.ZeroGrad()
	if w.Grad() != 0 {
		t.Errorf("expected zero gradient, got %f", w.Grad())
	}
}

func TestAdamWConvergesOnQuadratic(t *testing.T) {
	tape := autograd.NewTape()
	w := tape.Leaf(0.0)
	opt := NewAdamW([]autograd.Value{w}, 0.1, 0)
	mark := tape.Mark()

	// minimize (w − 3)²
	for i := 0; i < 300; i++ {
		opt.ZeroGrad()
		y := w.SubFloat(3).Square()
		y.Backward()
		opt.Step()
		tape.Rewind(mark)
	}

	if math.Abs(w.Float()-3) > 1e-2 {
		t.Errorf("expected convergence to 3, got %f", w.Float())
	}
}

func TestAdamWBiasCorrection(t *testing.T) {
	// With a constant gradient g, the bias-corrected first step is exactly
	// lr·g/(|g| + eps) regardless of the betas.
	tape := autograd.NewTape()
	w := tape.Leaf(1.0)
	opt := NewAdamW([]autograd.Value{w}, 0.1, 0)

	w.MulFloat(4).Backward() // grad = 4
	opt.Step()

	want := 1.0 - 0.1*4/(4+opt.Eps)
	if math.Abs(w.Float()-want) > 1e-12 {
		t.Errorf("first step = %f, want %f", w.Float(), want)
	}
}

func TestAdamWWeightDecay(t *testing.T) {
	tape := autograd.NewTape()

	// Zero gradient isolates the decoupled decay path.
	w := tape.Leaf(5.0)
	opt := NewAdamW([]autograd.Value{w}, 0.1, 0.01)
	opt.Step()

	want := 5.0 - 0.1*0.01*5.0
	if math.Abs(w.Float()-want) > 1e-12 {
		t.Errorf("decayed value = %f, want %f", w.Float(), want)
	}

	// Zero decay must leave a gradient-free parameter untouched.
	w2 := tape.Leaf(5.0)
	opt2 := NewAdamW([]autograd.Value{w2}, 0.1, 0)
	opt2.Step()
	if w2.Float() != 5.0 {
		t.Errorf("zero-decay step moved parameter to %f", w2.Float())
	}
}
