package fb

import (
	"fmt"

	"github.com/samuelfneumann/fblearn/initwfn"
	"github.com/samuelfneumann/fblearn/network"
	"github.com/samuelfneumann/fblearn/solver"
)

// Config implements a configuration for an FB agent
type Config struct {
	EmbedDim int // Dimension D of embeddings

	// Hidden layer sizes and activations of the Forward and Backward
	// networks. Every layer has a bias unit.
	ForwardLayers       []int
	ForwardActivations  []*network.Activation
	BackwardLayers      []int
	BackwardActivations []*network.Activation

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Solver for learning weights. Forward and Backward networks are
	// updated jointly by a single solver step.
	Solver *solver.Solver

	BatchSize int     // Size of both minibatches of each update
	Gamma     float64 // Discount
	Polyak    float64 // Target net averaging: target = p*target + (1-p)*online
	RegCoef   float64 // Weight of the orthonormality regulariser

	// SoftUpdate uses the expectation of the target Forward network
	// under the Boltzmann policy with temperature Temp as the bootstrap
	// target. Otherwise the greedy action is used.
	SoftUpdate bool
	Temp       float64

	Sampling Sampling
}

// DefaultConfig returns a Config with the hyperparameters used for the
// continuous world
func DefaultConfig() Config {
	init, _ := initwfn.NewGlorotU(1.0)
	s, _ := solver.NewDefaultAdam(1e-4, 1)

	return Config{
		EmbedDim:            16,
		ForwardLayers:       []int{256, 256},
		ForwardActivations:  []*network.Activation{network.ReLU(), network.ReLU()},
		BackwardLayers:      []int{256, 256},
		BackwardActivations: []*network.Activation{network.ReLU(), network.ReLU()},
		InitWFn:             init,
		Solver:              s,
		BatchSize:           128,
		Gamma:               0.99,
		Polyak:              0.95,
		RegCoef:             1.0,
		SoftUpdate:          false,
		Temp:                200,
		Sampling:            GoalOriented,
	}
}

// Validate checks a Config to ensure it is a valid configuration of an
// FB agent.
func (c Config) Validate() error {
	if c.EmbedDim < 1 {
		return fmt.Errorf("validate: embedding dimension must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.EmbedDim)
	}

	if len(c.ForwardLayers) != len(c.ForwardActivations) {
		return fmt.Errorf("validate: invalid number of forward activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.ForwardLayers),
			len(c.ForwardActivations))
	}

	if len(c.BackwardLayers) != len(c.BackwardActivations) {
		return fmt.Errorf("validate: invalid number of backward activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.BackwardLayers),
			len(c.BackwardActivations))
	}

	for _, act := range append(append([]*network.Activation{},
		c.ForwardActivations...), c.BackwardActivations...) {
		if act == nil {
			return fmt.Errorf("validate: activations must not be nil")
		}
	}

	if c.InitWFn == nil || c.Solver == nil {
		return fmt.Errorf("validate: weight initializer and solver must " +
			"be set")
	}

	// The loss contrasts every sample against the other batch
	if c.BatchSize < 2 {
		return fmt.Errorf("validate: batch size must be at least 2"+
			"\n\twant(>=2)\n\thave(%v)", c.BatchSize)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount out of range\n\twant([0, 1])"+
			"\n\thave(%v)", c.Gamma)
	}

	if c.Polyak < 0 || c.Polyak > 1 {
		return fmt.Errorf("validate: polyak coefficient out of range"+
			"\n\twant([0, 1])\n\thave(%v)", c.Polyak)
	}

	if c.SoftUpdate && c.Temp <= 0 {
		return fmt.Errorf("validate: temperature must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.Temp)
	}

	return c.Sampling.Validate()
}
