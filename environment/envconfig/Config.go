// Package envconfig provides configuration structs for configuring
// environments with default parameters. Environment configurations in
// this package are JSON serializable.
package envconfig

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/fblearn/environment"
	"github.com/samuelfneumann/fblearn/environment/chain"
	"github.com/samuelfneumann/fblearn/environment/continuousworld"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	ContinuousWorld EnvName = "ContinuousWorld"
	Chain           EnvName = "Chain"
)

// Default parameters of the configurable environments
const (
	DefaultStepSize   float64 = 0.05
	DefaultGoalRadius float64 = 0.05
	DefaultStates     int     = 10
)

// Config implements a specific configuration of a specific environment.
//
// StepSize and GoalRadius are used by ContinuousWorld only, States is
// used by Chain only. Zero values are replaced by the defaults above.
type Config struct {
	Environment   EnvName
	EpisodeCutoff int
	StepSize      float64
	GoalRadius    float64
	States        int
}

// NewConfig returns a new environment Config with default parameters
func NewConfig(envName EnvName, episodeCutoff int) Config {
	return Config{
		Environment:   envName,
		EpisodeCutoff: episodeCutoff,
	}
}

// Validate checks that the Config describes a known environment
func (c Config) Validate() error {
	switch c.Environment {
	case ContinuousWorld, Chain:
	default:
		return fmt.Errorf("validate: no such environment %q", c.Environment)
	}

	if c.EpisodeCutoff < 0 {
		return fmt.Errorf("validate: episode cutoff must be non-negative"+
			"\n\twant(>=0)\n\thave(%v)", c.EpisodeCutoff)
	}
	return nil
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Environment {
	case ContinuousWorld:
		return CreateContinuousWorld(c.StepSize, c.GoalRadius,
			c.EpisodeCutoff, seed)

	case Chain:
		states := c.States
		if states == 0 {
			states = DefaultStates
		}
		e, _, err := chain.New(states, c.EpisodeCutoff, seed)
		return e, err
	}

	panic(fmt.Sprintf("create: cannot create environment %v, no such "+
		"environment", c.Environment))
}

// CreateContinuousWorld is a factory for creating the ContinuousWorld
// environment with uniformly sampled starts and goals over the unit
// square.
func CreateContinuousWorld(stepSize, goalRadius float64, cutoff int,
	seed uint64) (env.Environment, error) {
	if stepSize == 0 {
		stepSize = DefaultStepSize
	}
	if goalRadius == 0 {
		goalRadius = DefaultGoalRadius
	}

	unit := r1.Interval{Min: 0, Max: 1}
	starter := env.NewUniformStarter([]r1.Interval{unit, unit}, seed)
	goals := env.NewUniformStarter([]r1.Interval{unit, unit}, seed+1)

	w, _, err := continuousworld.New(starter, goals, stepSize, goalRadius,
		cutoff)
	return w, err
}
