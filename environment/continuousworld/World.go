// Package continuousworld implements a goal-reaching point world on the
// unit square. The agent moves a point in fixed-size steps along the
// axes and is rewarded for reaching a goal region.
package continuousworld

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/fblearn/environment"
	ts "github.com/samuelfneumann/fblearn/timestep"
	"github.com/samuelfneumann/fblearn/utils/floatutils"
)

// Actions available in the world
const (
	Stay int = iota
	Left
	Right
	Down
	Up
	Actions // Number of actions
)

const (
	// GoalReward is received when the point enters the goal region
	GoalReward float64 = 1.0

	// StepReward is received on every other transition
	StepReward float64 = 0.0
)

var bounds = r1.Interval{Min: 0, Max: 1}

// World is a 2-dimensional continuous world. Observations are the (x, y)
// position of the point. Goals are positions and the goal region is the
// Chebyshev ball of radius goalRadius around the goal.
type World struct {
	starter env.Starter
	goals   env.Starter
	ender   env.Ender

	stepSize   float64
	goalRadius float64

	position []float64
	goal     []float64

	currentStep ts.TimeStep
}

// New returns a new World. Starting positions are sampled from starter
// and goals are sampled from goals on each call to Reset(). Episodes
// end when the goal region is reached or after cutoff steps if cutoff
// is positive.
func New(starter, goals env.Starter, stepSize, goalRadius float64,
	cutoff int) (*World, ts.TimeStep, error) {
	if stepSize <= 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: step size must be "+
			"positive \n\twant(>0) \n\thave(%v)", stepSize)
	}
	if goalRadius < 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: goal radius must be "+
			"non-negative \n\twant(>=0) \n\thave(%v)", goalRadius)
	}

	w := &World{
		starter:    starter,
		goals:      goals,
		ender:      env.NewStepLimit(cutoff),
		stepSize:   stepSize,
		goalRadius: goalRadius,
	}

	step, err := w.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, err
	}
	return w, step, nil
}

// Reset resets the world to a new starting position and goal
func (w *World) Reset() (ts.TimeStep, error) {
	start := w.starter.Start()
	goal := w.goals.Start()
	if len(start) != 2 || len(goal) != 2 {
		return ts.TimeStep{}, fmt.Errorf("reset: starts and goals must be "+
			"2-dimensional \n\twant(2, 2) \n\thave(%v, %v)", len(start),
			len(goal))
	}

	w.position = clip(start)
	w.goal = clip(goal)
	w.currentStep = ts.New(ts.First, 0, w.position, w.goal, 0)

	return w.currentStep, nil
}

// Step takes one step in the world
func (w *World) Step(action int) (ts.TimeStep, bool, error) {
	if action < 0 || action >= Actions {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action "+
			"\n\twant([0, %v)) \n\thave(%v)", Actions, action)
	}

	switch action {
	case Left:
		w.position[0] -= w.stepSize
	case Right:
		w.position[0] += w.stepSize
	case Down:
		w.position[1] -= w.stepSize
	case Up:
		w.position[1] += w.stepSize
	}
	w.position = clip(w.position)

	reward := StepReward
	stepType := ts.Mid
	if w.AtGoal(w.position) {
		reward = GoalReward
		stepType = ts.Last
	}

	step := ts.New(stepType, reward, w.position, w.goal,
		w.currentStep.Number+1)
	last := step.Last() || w.ender.End(&step)
	w.currentStep = step

	return step, last, nil
}

// AtGoal returns whether a position lies in the goal region
func (w *World) AtGoal(position []float64) bool {
	return Distance(position, w.goal) <= w.goalRadius
}

// Goal returns the current goal
func (w *World) Goal() []float64 {
	g := make([]float64, len(w.goal))
	copy(g, w.goal)
	return g
}

// CurrentTimeStep returns the last TimeStep produced by the world
func (w *World) CurrentTimeStep() ts.TimeStep {
	return w.currentStep
}

// ObservationSpec returns the observation specification of the world
func (w *World) ObservationSpec() env.Spec {
	return env.NewSpec(env.Observation, []r1.Interval{bounds, bounds},
		env.Continuous)
}

// ActionSpec returns the action specification of the world
func (w *World) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(Actions)
}

// Distance returns the Chebyshev distance between two points
func Distance(a, b []float64) float64 {
	var max float64
	for i := range a {
		max = math.Max(max, math.Abs(a[i]-b[i]))
	}
	return max
}

func clip(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = floatutils.ClipInterval(v[i], bounds)
	}
	return out
}
