// Package autograd provides scalar reverse-mode automatic differentiation.
//
// Values are handles into a [Tape], an arena of operation nodes indexed by
// creation order. Each node records its operands and enough information to
// compute local derivatives, so a forward computation builds the graph as a
// side effect and [Value.Backward] replays it in reverse creation order,
// which is always a valid reverse topological order.
//
//	tape := autograd.NewTape()
//	x := tape.Leaf(2.0)
//	y := x.Mul(x).AddFloat(1.0) // y = x² + 1
//	y.Backward()
//	_ = x.Grad() // 4.0
//
// # Gradient accumulation
//
// Backward accumulates into leaf gradient buffers. Calling Backward twice
// without zeroing yields the exact sum of the two individual passes; callers
// that rebuild the graph each iteration must zero gradients explicitly.
//
// # Thread Safety
//
// A Tape is NOT thread-safe. Concurrent optimizations must each own a Tape.
package autograd
