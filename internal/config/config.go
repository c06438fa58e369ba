// Package config loads and saves run configuration. Every tuned constant of
// the optimization (physical parameters, loss weights, barrier placement,
// horizon and epoch counts) lives here rather than in code, so scenarios
// are reproducible from a single YAML file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/loss"
	"github.com/san-kum/trajopt/internal/rollout"
	"github.com/san-kum/trajopt/internal/train"
)

// Config is serialized two ways: YAML for files the user edits, JSON when a
// run's effective scenario is archived alongside its results.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics" json:"physics"`
	InitState InitStateConfig `yaml:"init_state" json:"init_state"`
	Target    TargetConfig    `yaml:"target" json:"target"`
	Weights   WeightsConfig   `yaml:"weights" json:"weights"`
	FloorY    float64         `yaml:"floor_y" json:"floor_y"`
	Horizon   int             `yaml:"horizon" json:"horizon"`
	Epochs    int             `yaml:"epochs" json:"epochs"`
	LR        float64         `yaml:"learning_rate" json:"learning_rate"`
	Decay     float64         `yaml:"weight_decay" json:"weight_decay"`
}

type PhysicsConfig struct {
	Mass      float64 `yaml:"mass" json:"mass"`
	Inertia   float64 `yaml:"inertia" json:"inertia"`
	ArmLength float64 `yaml:"arm_length" json:"arm_length"`
	Gravity   float64 `yaml:"gravity" json:"gravity"`
	Dt        float64 `yaml:"dt" json:"dt"`
}

type InitStateConfig struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	VX    float64 `yaml:"vx" json:"vx"`
	VY    float64 `yaml:"vy" json:"vy"`
	Theta float64 `yaml:"theta" json:"theta"`
	Omega float64 `yaml:"omega" json:"omega"`
}

type TargetConfig struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

type WeightsConfig struct {
	Pos     float64 `yaml:"pos" json:"pos"`
	Vel     float64 `yaml:"vel" json:"vel"`
	Angle   float64 `yaml:"angle" json:"angle"`
	Effort  float64 `yaml:"effort" json:"effort"`
	Barrier float64 `yaml:"barrier" json:"barrier"`
}

func DefaultConfig() *Config {
	w := loss.DefaultWeights()
	return &Config{
		Physics: PhysicsConfig{
			Mass:      dynamics.DefaultMass,
			Inertia:   dynamics.DefaultInertia,
			ArmLength: dynamics.DefaultArmLength,
			Gravity:   dynamics.DefaultGravity,
			Dt:        dynamics.DefaultDt,
		},
		InitState: InitStateConfig{X: -5, Y: 5},
		Target:    TargetConfig{X: 0, Y: 0.5},
		Weights:   WeightsConfig{Pos: w.Pos, Vel: w.Vel, Angle: w.Angle, Effort: w.Effort, Barrier: w.Barrier},
		FloorY:    -5.0,
		Horizon:   100,
		Epochs:    200,
		LR:        0.1,
		Decay:     0,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the physics section, validating it.
func (c *Config) Params() (dynamics.Params, error) {
	return dynamics.NewParams(c.Physics.Mass, c.Physics.Inertia, c.Physics.ArmLength, c.Physics.Gravity, c.Physics.Dt)
}

// Objective converts the target, weight and barrier sections.
func (c *Config) Objective() (loss.Objective, error) {
	p, err := c.Params()
	if err != nil {
		return loss.Objective{}, err
	}
	w := loss.Weights{Pos: c.Weights.Pos, Vel: c.Weights.Vel, Angle: c.Weights.Angle, Effort: c.Weights.Effort, Barrier: c.Weights.Barrier}
	return loss.NewObjective(c.Target.X, c.Target.Y, c.FloorY, p.HoverThrust(), w)
}

// Init converts the initial-state section.
func (c *Config) Init() rollout.Init {
	s := c.InitState
	return rollout.Init{X: s.X, VX: s.VX, Y: s.Y, VY: s.VY, Theta: s.Theta, Omega: s.Omega}
}

// TrainConfig converts the loop section.
func (c *Config) TrainConfig() train.Config {
	return train.Config{Horizon: c.Horizon, Epochs: c.Epochs, LearningRate: c.LR, WeightDecay: c.Decay}
}
