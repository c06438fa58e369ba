package autograd

import (
	"fmt"
	"math"
)

type opKind uint8

const (
	opLeaf opKind = iota
	opConst
	opAdd
	opSub
	opMul
	opDiv
	opPow
	opSin
	opCos
	opNeg
	opAddC
	opSubC
	opMulC
	opDivC
)

// node is one recorded operation. a and b index earlier nodes on the same
// tape; c carries a constant operand or exponent where the op needs one.
type node struct {
	op   opKind
	a, b int32
	c    float64
	val  float64
	grad float64
}

// Tape is an append-only arena of operation nodes. Forward arithmetic on
// Values appends nodes; Backward walks them in reverse creation order.
type Tape struct {
	nodes []node
	adj   []float64
}

// Value is a differentiable scalar: a handle into a Tape node.
type Value struct {
	tape *Tape
	idx  int32
}

func NewTape() *Tape {
	return &Tape{nodes: make([]node, 0, 1024)}
}

// Leaf appends a gradient-tracked leaf holding v. Leaves are the only nodes
// an optimizer may update in place.
func (t *Tape) Leaf(v float64) Value {
	return t.push(node{op: opLeaf, a: -1, b: -1, val: v})
}

// Constant appends an untracked scalar. Gradients never accumulate on it.
func (t *Tape) Constant(v float64) Value {
	return t.push(node{op: opConst, a: -1, b: -1, val: v})
}

// Len reports the number of recorded nodes.
func (t *Tape) Len() int { return len(t.nodes) }

// Mark returns a checkpoint for Rewind. Callers record a mark after creating
// their leaves and rewind to it after each backward pass, discarding the
// per-iteration graph while keeping leaf values and gradients intact.
func (t *Tape) Mark() int { return len(t.nodes) }

// Rewind truncates every node recorded after mark. Values handed out past
// the mark become invalid.
func (t *Tape) Rewind(mark int) {
	if mark < 0 || mark > len(t.nodes) {
		panic(fmt.Sprintf("autograd: rewind mark %d out of range [0, %d]", mark, len(t.nodes)))
	}
	t.nodes = t.nodes[:mark]
}

func (t *Tape) push(n node) Value {
	t.nodes = append(t.nodes, n)
	return Value{tape: t, idx: int32(len(t.nodes) - 1)}
}

// Float returns the scalar held by v.
func (v Value) Float() float64 { return v.tape.nodes[v.idx].val }

// Grad returns the accumulated gradient of v.
func (v Value) Grad() float64 { return v.tape.nodes[v.idx].grad }

// IsLeaf reports whether v is a gradient-tracked leaf.
func (v Value) IsLeaf() bool { return v.tape.nodes[v.idx].op == opLeaf }

// SetFloat overwrites the scalar held by v. Only leaves may be updated;
// rewriting an interior node would desynchronize it from the recorded graph.
func (v Value) SetFloat(f float64) {
	if !v.IsLeaf() {
		panic("autograd: SetFloat on non-leaf value")
	}
	v.tape.nodes[v.idx].val = f
}

// ZeroGrad resets the gradient buffer of v.
func (v Value) ZeroGrad() { v.tape.nodes[v.idx].grad = 0 }

// IsFinite reports whether v holds a finite scalar.
func (v Value) IsFinite() bool {
	f := v.Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Backward propagates d(v)/d(node) through the tape and accumulates the
// result into leaf gradient buffers. Adjoints of interior nodes live in a
// scratch buffer reset on every call, so two Backward calls without an
// intervening ZeroGrad leave each leaf holding the exact sum of both passes.
func (v Value) Backward() {
	t := v.tape
	n := int(v.idx) + 1

	if cap(t.adj) < n {
		t.adj = make([]float64, n)
	}
	t.adj = t.adj[:n]
	for i := range t.adj {
		t.adj[i] = 0
	}
	t.adj[v.idx] = 1

	// Nodes only reference earlier nodes, so a reverse index walk is a
	// reverse topological order.
	for i := n - 1; i >= 0; i-- {
		g := t.adj[i]
		if g == 0 {
			continue
		}
		nd := &t.nodes[i]
		switch nd.op {
		case opLeaf:
			nd.grad += g
		case opConst:
		case opAdd:
			t.adj[nd.a] += g
			t.adj[nd.b] += g
		case opSub:
			t.adj[nd.a] += g
			t.adj[nd.b] -= g
		case opMul:
			t.adj[nd.a] += g * t.nodes[nd.b].val
			t.adj[nd.b] += g * t.nodes[nd.a].val
		case opDiv:
			bv := t.nodes[nd.b].val
			t.adj[nd.a] += g / bv
			t.adj[nd.b] -= g * t.nodes[nd.a].val / (bv * bv)
		case opPow:
			av := t.nodes[nd.a].val
			t.adj[nd.a] += g * nd.c * math.Pow(av, nd.c-1)
		case opSin:
			t.adj[nd.a] += g * math.Cos(t.nodes[nd.a].val)
		case opCos:
			t.adj[nd.a] -= g * math.Sin(t.nodes[nd.a].val)
		case opNeg:
			t.adj[nd.a] -= g
		case opAddC, opSubC:
			t.adj[nd.a] += g
		case opMulC:
			t.adj[nd.a] += g * nd.c
		case opDivC:
			t.adj[nd.a] += g / nd.c
		}
	}
}
