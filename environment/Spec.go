package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action or an observation
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// size, and bounds of an action or observation in an environment.
//
// For discrete actions, Bounds holds a single interval [0, N-1] and N is
// the number of actions.
type Spec struct {
	Type   SpecType
	Bounds []r1.Interval
	N      int
	Cardinality
}

// NewSpec constructs a new environment specification. The argument t
// outlines what the specification is describing and bounds gives the
// range of each dimension.
func NewSpec(t SpecType, bounds []r1.Interval, cardinality Cardinality) Spec {
	for i, b := range bounds {
		if b.Min > b.Max {
			panic(fmt.Sprintf("newspec: bound %v has min %v > max %v", i,
				b.Min, b.Max))
		}
	}
	return Spec{Type: t, Bounds: bounds, N: len(bounds), Cardinality: cardinality}
}

// NewDiscreteActionSpec returns the specification of n discrete actions
// enumerated from 0.
func NewDiscreteActionSpec(n int) Spec {
	bounds := []r1.Interval{{Min: 0, Max: float64(n - 1)}}
	return Spec{Type: Action, Bounds: bounds, N: n, Cardinality: Discrete}
}

// Dims returns the number of dimensions of the specified value
func (s Spec) Dims() int {
	return len(s.Bounds)
}
