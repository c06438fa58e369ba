// Package viz renders optimization results in the terminal: asciigraph
// plots for loss curves and state traces, and a bubbletea replay of the
// optimized trajectory.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/trajopt/internal/replay"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// LossCurve plots per-epoch loss.
func LossCurve(curve []float64) string {
	if len(curve) == 0 {
		return "no loss data"
	}
	return asciigraph.Plot(curve,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("total loss vs epoch"),
	)
}

// StateTraces plots x, y, θ and the thrust pair against time.
func StateTraces(frames []replay.Frame) string {
	if len(frames) == 0 {
		return "no trajectory data"
	}

	n := len(frames)
	xs := make([]float64, n)
	ys := make([]float64, n)
	thetas := make([]float64, n)
	tls := make([]float64, n)
	trs := make([]float64, n)
	for i, f := range frames {
		xs[i] = f.X
		ys[i] = f.Y
		thetas[i] = f.Theta
		tls[i] = f.TL
		trs[i] = f.TR
	}

	var b strings.Builder
	for _, p := range []struct {
		data    []float64
		caption string
	}{
		{xs, "x position"},
		{ys, "y altitude"},
		{thetas, "theta (tilt)"},
	} {
		b.WriteString(asciigraph.Plot(p.data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(p.caption),
		))
		b.WriteString("\n\n")
	}

	b.WriteString(asciigraph.PlotMany([][]float64{tls, trs},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("thrust left / right"),
	))
	b.WriteString("\n")

	return b.String()
}

// Summary is a one-line final-state report for CLI output.
func Summary(frames []replay.Frame) string {
	if len(frames) == 0 {
		return "empty trajectory"
	}
	last := frames[len(frames)-1]
	return fmt.Sprintf("final: pos=(%.2f, %.2f) vel=(%.2f, %.2f) theta=%.3f", last.X, last.Y, last.VX, last.VY, last.Theta)
}
