package dynamics

import (
	"errors"
	"fmt"
)

// ErrInvalidParams indicates a physically meaningless parameter set.
var ErrInvalidParams = errors.New("dynamics: invalid parameters")

const (
	DefaultMass      = 1.0
	DefaultInertia   = 0.5
	DefaultArmLength = 0.25
	DefaultGravity   = 9.81
	DefaultDt        = 0.04
)

// Params holds the immutable physical constants of a run. Passing them
// explicitly keeps the step function reentrant for batched optimization.
type Params struct {
	Mass      float64
	Inertia   float64
	ArmLength float64
	Gravity   float64
	Dt        float64
}

func DefaultParams() Params {
	return Params{
		Mass:      DefaultMass,
		Inertia:   DefaultInertia,
		ArmLength: DefaultArmLength,
		Gravity:   DefaultGravity,
		Dt:        DefaultDt,
	}
}

// NewParams validates and returns a parameter set.
func NewParams(mass, inertia, armLength, gravity, dt float64) (Params, error) {
	p := Params{Mass: mass, Inertia: inertia, ArmLength: armLength, Gravity: gravity, Dt: dt}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func (p Params) Validate() error {
	if p.Mass <= 0 {
		return fmt.Errorf("%w: mass must be positive, got %f", ErrInvalidParams, p.Mass)
	}
	if p.Inertia <= 0 {
		return fmt.Errorf("%w: inertia must be positive, got %f", ErrInvalidParams, p.Inertia)
	}
	if p.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidParams, p.Dt)
	}
	if p.ArmLength <= 0 {
		return fmt.Errorf("%w: arm length must be positive, got %f", ErrInvalidParams, p.ArmLength)
	}
	return nil
}

// HoverThrust is the per-motor thrust balancing weight for two motors.
func (p Params) HoverThrust() float64 {
	return p.Mass * p.Gravity / 2.0
}
