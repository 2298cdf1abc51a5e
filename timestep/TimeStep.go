// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a TimeStep can be, either a first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment. The
// Goal is the goal the environment was pursuing when the observation
// was produced.
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Observation []float64
	Goal        []float64
	Number      int
}

// New returns a new TimeStep. The observation and goal are copied.
func New(t StepType, r float64, obs, goal []float64, n int) TimeStep {
	o := make([]float64, len(obs))
	copy(o, obs)
	g := make([]float64, len(goal))
	copy(g, goal)
	return TimeStep{StepType: t, Reward: r, Observation: o, Goal: g, Number: n}
}

// First returns whether a TimeStep is the first in an episode
func (t TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Number)
}
