// Package metrics scores replayed trajectories. Each metric implements
// [replay.Observer], so a set of them can be attached to a replay run and
// read afterwards.
package metrics

import (
	"math"

	"github.com/san-kum/trajopt/internal/replay"
)

type Metric interface {
	Name() string
	OnFrame(f replay.Frame)
	Value() float64
	Reset()
}

// ControlEffort is the mean absolute thrust deviation from hover across both
// motors. Zero means the controls never left the hover point.
type ControlEffort struct {
	hover   float64
	sum     float64
	samples int
}

func NewControlEffort(hover float64) *ControlEffort {
	return &ControlEffort{hover: hover}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) OnFrame(f replay.Frame) {
	c.sum += math.Abs(f.TL-c.hover) + math.Abs(f.TR-c.hover)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(2*c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// TargetError is the distance from the last seen frame to the target.
type TargetError struct {
	targetX, targetY float64
	lastX, lastY     float64
	seen             bool
}

func NewTargetError(targetX, targetY float64) *TargetError {
	return &TargetError{targetX: targetX, targetY: targetY}
}

func (t *TargetError) Name() string { return "target_error" }

func (t *TargetError) OnFrame(f replay.Frame) {
	t.lastX, t.lastY = f.X, f.Y
	t.seen = true
}

func (t *TargetError) Value() float64 {
	if !t.seen {
		return 0
	}
	dx := t.lastX - t.targetX
	dy := t.lastY - t.targetY
	return math.Sqrt(dx*dx + dy*dy)
}

func (t *TargetError) Reset() { t.seen = false }

// MinAltitude tracks the lowest altitude the trajectory reaches; useful for
// confirming the barrier kept the drone away from the floor.
type MinAltitude struct {
	min  float64
	seen bool
}

func NewMinAltitude() *MinAltitude { return &MinAltitude{} }

func (m *MinAltitude) Name() string { return "min_altitude" }

func (m *MinAltitude) OnFrame(f replay.Frame) {
	if !m.seen || f.Y < m.min {
		m.min = f.Y
		m.seen = true
	}
}

func (m *MinAltitude) Value() float64 {
	if !m.seen {
		return 0
	}
	return m.min
}

func (m *MinAltitude) Reset() { m.seen = false }

// Stability is the fraction of frames with tilt below a threshold.
type Stability struct {
	maxTilt    float64
	violations int
	samples    int
}

func NewStability(maxTilt float64) *Stability {
	return &Stability{maxTilt: maxTilt}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) OnFrame(f replay.Frame) {
	s.samples++
	if math.Abs(f.Theta) > s.maxTilt {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Default is the standard metric set for a run.
func Default(hover, targetX, targetY float64) []Metric {
	return []Metric{
		NewControlEffort(hover),
		NewTargetError(targetX, targetY),
		NewMinAltitude(),
		NewStability(math.Pi / 2),
	}
}

// Collect runs a frame slice through a metric set and returns the values.
func Collect(frames []replay.Frame, ms []Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
		for _, f := range frames {
			m.OnFrame(f)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
