package autograd

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestUnaryDerivatives(t *testing.T) {
	tests := []struct {
		name     string
		build    func(x Value) Value
		at       float64
		wantVal  float64
		wantGrad float64
	}{
		{"sin", func(x Value) Value { return x.Sin() }, 0.7, math.Sin(0.7), math.Cos(0.7)},
		{"cos", func(x Value) Value { return x.Cos() }, 0.7, math.Cos(0.7), -math.Sin(0.7)},
		{"neg", func(x Value) Value { return x.Neg() }, 2.0, -2.0, -1.0},
		{"pow", func(x Value) Value { return x.Pow(3) }, 2.0, 8.0, 12.0},
		{"pow reciprocal", func(x Value) Value { return x.Pow(-1) }, 4.0, 0.25, -1.0 / 16.0},
		{"add const", func(x Value) Value { return x.AddFloat(5) }, 1.0, 6.0, 1.0},
		{"sub const", func(x Value) Value { return x.SubFloat(5) }, 1.0, -4.0, 1.0},
		{"mul const", func(x Value) Value { return x.MulFloat(5) }, 3.0, 15.0, 5.0},
		{"div const", func(x Value) Value { return x.DivFloat(4) }, 2.0, 0.5, 0.25},
		{"square", func(x Value) Value { return x.Square() }, 3.0, 9.0, 6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := NewTape()
			x := tape.Leaf(tt.at)
			y := tt.build(x)

			if math.Abs(y.Float()-tt.wantVal) > tol {
				t.Errorf("value = %f, want %f", y.Float(), tt.wantVal)
			}
			y.Backward()
			if math.Abs(x.Grad()-tt.wantGrad) > tol {
				t.Errorf("grad = %f, want %f", x.Grad(), tt.wantGrad)
			}
		})
	}
}

func TestBinaryDerivatives(t *testing.T) {
	tests := []struct {
		name   string
		build  func(a, b Value) Value
		av, bv float64
		val    float64
		da, db float64
	}{
		{"add", func(a, b Value) Value { return a.Add(b) }, 2, 3, 5, 1, 1},
		{"sub", func(a, b Value) Value { return a.Sub(b) }, 2, 3, -1, 1, -1},
		{"mul", func(a, b Value) Value { return a.Mul(b) }, 2, 3, 6, 3, 2},
		{"div", func(a, b Value) Value { return a.Div(b) }, 2, 4, 0.5, 0.25, -0.125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := NewTape()
			a := tape.Leaf(tt.av)
			b := tape.Leaf(tt.bv)
			y := tt.build(a, b)

			if math.Abs(y.Float()-tt.val) > tol {
				t.Errorf("value = %f, want %f", y.Float(), tt.val)
			}
			y.Backward()
			if math.Abs(a.Grad()-tt.da) > tol {
				t.Errorf("da = %f, want %f", a.Grad(), tt.da)
			}
			if math.Abs(b.Grad()-tt.db) > tol {
				t.Errorf("db = %f, want %f", b.Grad(), tt.db)
			}
		})
	}
}

func TestSum(t *testing.T) {
	tape := NewTape()
	xs := []Value{tape.Leaf(1), tape.Leaf(2), tape.Leaf(3)}

	total := Sum(xs)
	if total.Float() != 6 {
		t.Errorf("sum = %f, want 6", total.Float())
	}

	total.Backward()
	for i, x := range xs {
		if x.Grad() != 1 {
			t.Errorf("element %d grad = %f, want 1", i, x.Grad())
		}
	}
}

func TestSumEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for empty sum")
		}
	}()
	Sum(nil)
}

func TestMixedTapes(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for cross-tape operation")
		}
	}()
	a := NewTape().Leaf(1)
	b := NewTape().Leaf(2)
	a.Add(b)
}

func TestChainRuleThroughTrig(t *testing.T) {
	// y = sin(x)·cos(x), dy/dx = cos²x − sin²x = cos(2x)
	tape := NewTape()
	x := tape.Leaf(0.3)
	y := x.Sin().Mul(x.Cos())

	y.Backward()
	want := math.Cos(0.6)
	if math.Abs(x.Grad()-want) > tol {
		t.Errorf("dy/dx = %f, want %f", x.Grad(), want)
	}
}
