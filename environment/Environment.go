// Package environment outlines the interfaces and structs needed to
// implement concrete goal-conditioned environments
package environment

import (
	ts "github.com/samuelfneumann/fblearn/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() []float64
}

// Environment implements a simulated, goal-conditioned environment with
// a discrete action set. Actions are enumerated in [0, ActionSpec().N).
//
// A new goal may be chosen by the environment on every call to Reset().
// The goal that the environment is currently pursuing is returned by
// Goal().
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action int) (ts.TimeStep, bool, error)
	Goal() []float64
	ObservationSpec() Spec
	ActionSpec() Spec
}
