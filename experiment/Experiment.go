// Package experiment implements functionality for running a training
// session of an FB agent: collecting rollouts, updating the agent,
// evaluating it and saving the results.
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/fblearn/agent/fb"
	env "github.com/samuelfneumann/fblearn/environment"
	"github.com/samuelfneumann/fblearn/environment/envconfig"
	"github.com/samuelfneumann/fblearn/featurize"
)

// Config represents a configuration of a training session
type Config struct {
	Env        envconfig.Config
	Featurizer featurize.Config
	Agent      fb.Config

	NEpochs          int
	NCycles          int // Cycles per epoch
	RolloutsPerCycle int
	MaxTimesteps     int // Steps per rollout and per evaluation episode
	NBatches         int // Updates per cycle
	ReplayCapacity   int

	UpdateEps     float64 // Exploration of training rollouts
	EvalEps       float64 // Exploration of evaluation rollouts
	NTestRollouts int
	NumGPI        int // Training embeddings used by the GPI evaluation

	SaveDir            string
	RenderTrajectories bool
	Seed               uint64
}

// DefaultConfig returns the configuration used for the continuous world
func DefaultConfig() Config {
	return Config{
		Env:              envconfig.NewConfig(envconfig.ContinuousWorld, 0),
		Featurizer:       featurize.Config{Type: featurize.RBF},
		Agent:            fb.DefaultConfig(),
		NEpochs:          200,
		NCycles:          50,
		RolloutsPerCycle: 2,
		MaxTimesteps:     50,
		NBatches:         40,
		ReplayCapacity:   1_000_000,
		UpdateEps:        0.2,
		EvalEps:          0.02,
		NTestRollouts:    10,
		NumGPI:           20,
		SaveDir:          "results",
	}
}

// Validate checks that a Config is a valid configuration of a training
// session
func (c Config) Validate() error {
	if err := c.Env.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Featurizer.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}

	positive := map[string]int{
		"epochs":          c.NEpochs,
		"cycles":          c.NCycles,
		"rollouts":        c.RolloutsPerCycle,
		"max timesteps":   c.MaxTimesteps,
		"batches":         c.NBatches,
		"replay capacity": c.ReplayCapacity,
		"test rollouts":   c.NTestRollouts,
		"GPI embeddings":  c.NumGPI,
	}
	for name, v := range positive {
		if v < 1 {
			return fmt.Errorf("validate: number of %v must be positive"+
				"\n\twant(>0)\n\thave(%v)", name, v)
		}
	}

	if c.UpdateEps < 0 || c.UpdateEps > 1 {
		return fmt.Errorf("validate: update epsilon out of range"+
			"\n\twant([0, 1])\n\thave(%v)", c.UpdateEps)
	}
	if c.EvalEps < 0 || c.EvalEps > 1 {
		return fmt.Errorf("validate: evaluation epsilon out of range"+
			"\n\twant([0, 1])\n\thave(%v)", c.EvalEps)
	}

	if c.SaveDir == "" {
		return fmt.Errorf("validate: save directory must be set")
	}
	return nil
}

// Create creates the environment and agent described by the Config
func (c Config) Create() (env.Environment, *fb.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("create: %v", err)
	}

	e, err := c.Env.Create(c.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("create: could not create "+
			"environment: %v", err)
	}

	f, err := c.Featurizer.Create(e.ObservationSpec().Dims())
	if err != nil {
		return nil, nil, fmt.Errorf("create: could not create "+
			"featurizer: %v", err)
	}

	agent, err := fb.New(e, f, c.Agent, c.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("create: could not create agent: %v",
			err)
	}
	return e, agent, nil
}
