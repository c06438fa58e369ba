package autograd

import "math"

// Binary operations record both operand indices. Operands must share a tape.

func (v Value) binary(op opKind, o Value) Value {
	if v.tape != o.tape {
		panic("autograd: operands from different tapes")
	}
	var f float64
	av, bv := v.Float(), o.Float()
	switch op {
	case opAdd:
		f = av + bv
	case opSub:
		f = av - bv
	case opMul:
		f = av * bv
	case opDiv:
		f = av / bv
	}
	return v.tape.push(node{op: op, a: v.idx, b: o.idx, val: f})
}

func (v Value) Add(o Value) Value { return v.binary(opAdd, o) }
func (v Value) Sub(o Value) Value { return v.binary(opSub, o) }
func (v Value) Mul(o Value) Value { return v.binary(opMul, o) }
func (v Value) Div(o Value) Value { return v.binary(opDiv, o) }

// Pow raises v to a constant exponent.
func (v Value) Pow(c float64) Value {
	return v.tape.push(node{op: opPow, a: v.idx, b: -1, c: c, val: math.Pow(v.Float(), c)})
}

func (v Value) Sin() Value {
	return v.tape.push(node{op: opSin, a: v.idx, b: -1, val: math.Sin(v.Float())})
}

func (v Value) Cos() Value {
	return v.tape.push(node{op: opCos, a: v.idx, b: -1, val: math.Cos(v.Float())})
}

func (v Value) Neg() Value {
	return v.tape.push(node{op: opNeg, a: v.idx, b: -1, val: -v.Float()})
}

// Constant-operand variants avoid allocating a Constant node per use.

func (v Value) AddFloat(c float64) Value {
	return v.tape.push(node{op: opAddC, a: v.idx, b: -1, c: c, val: v.Float() + c})
}

func (v Value) SubFloat(c float64) Value {
	return v.tape.push(node{op: opSubC, a: v.idx, b: -1, c: c, val: v.Float() - c})
}

func (v Value) MulFloat(c float64) Value {
	return v.tape.push(node{op: opMulC, a: v.idx, b: -1, c: c, val: v.Float() * c})
}

func (v Value) DivFloat(c float64) Value {
	return v.tape.push(node{op: opDivC, a: v.idx, b: -1, c: c, val: v.Float() / c})
}

// Square is shorthand for v·v.
func (v Value) Square() Value { return v.Mul(v) }

// Sum reduces a collection of differentiable scalars to one. The reduction
// is a left fold of Add nodes, so gradients flow back to every element.
func Sum(vs []Value) Value {
	if len(vs) == 0 {
		panic("autograd: sum of no values")
	}
	acc := vs[0]
	for _, v := range vs[1:] {
		acc = acc.Add(v)
	}
	return acc
}
