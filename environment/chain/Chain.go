// Package chain implements a 1-dimensional chain of discrete states
// with a goal state. The agent moves left or right along the chain.
package chain

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/fblearn/environment"
	ts "github.com/samuelfneumann/fblearn/timestep"
)

// Actions available in the chain
const (
	Left int = iota
	Right
	Actions // Number of actions
)

// Chain is a chain of n states. Observations and goals are the index of
// a state scaled to [0, 1]. Reaching the goal gives a reward of 1 and
// ends the episode.
type Chain struct {
	n       int
	starter env.Starter
	goals   env.Starter
	ender   env.Ender

	state int
	goal  int

	currentStep ts.TimeStep
}

// New returns a new Chain with n states. Starting states and goals are
// sampled uniformly over the chain on each Reset() using seed.
func New(n, cutoff int, seed uint64) (*Chain, ts.TimeStep, error) {
	if n < 2 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: chain must have at "+
			"least 2 states \n\twant(>=2) \n\thave(%v)", n)
	}

	c := &Chain{
		n:       n,
		starter: env.NewCategoricalStarter([]int{n}, seed),
		goals:   env.NewCategoricalStarter([]int{n}, seed+1),
		ender:   env.NewStepLimit(cutoff),
	}

	step, err := c.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, err
	}
	return c, step, nil
}

// Reset resets the chain to a new starting state and goal
func (c *Chain) Reset() (ts.TimeStep, error) {
	c.state = int(c.starter.Start()[0])
	c.goal = int(c.goals.Start()[0])
	c.currentStep = ts.New(ts.First, 0, c.obs(c.state), c.obs(c.goal), 0)
	return c.currentStep, nil
}

// Step takes a single step along the chain
func (c *Chain) Step(action int) (ts.TimeStep, bool, error) {
	switch action {
	case Left:
		if c.state > 0 {
			c.state--
		}
	case Right:
		if c.state < c.n-1 {
			c.state++
		}
	default:
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action "+
			"\n\twant([0, %v)) \n\thave(%v)", Actions, action)
	}

	reward := 0.0
	stepType := ts.Mid
	if c.state == c.goal {
		reward = 1.0
		stepType = ts.Last
	}

	step := ts.New(stepType, reward, c.obs(c.state), c.obs(c.goal),
		c.currentStep.Number+1)
	last := step.Last() || c.ender.End(&step)
	c.currentStep = step

	return step, last, nil
}

// SetGoal sets the goal state of the chain
func (c *Chain) SetGoal(state int) error {
	if state < 0 || state >= c.n {
		return fmt.Errorf("setgoal: illegal goal state \n\twant([0, %v)) "+
			"\n\thave(%v)", c.n, state)
	}
	c.goal = state
	return nil
}

// Goal returns the current goal as an observation
func (c *Chain) Goal() []float64 {
	return c.obs(c.goal)
}

// ObservationSpec returns the observation specification of the chain
func (c *Chain) ObservationSpec() env.Spec {
	return env.NewSpec(env.Observation, []r1.Interval{{Min: 0, Max: 1}},
		env.Discrete)
}

// ActionSpec returns the action specification of the chain
func (c *Chain) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(Actions)
}

func (c *Chain) obs(state int) []float64 {
	return []float64{float64(state) / float64(c.n-1)}
}
