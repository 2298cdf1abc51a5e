// Package replay implements a fixed-capacity store of transitions with
// uniform random sampling, used for off-policy learning.
package replay

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Transition is a single transition in a goal-conditioned environment.
// The Goal is the goal the environment was pursuing when the transition
// occurred.
type Transition struct {
	Obs     []float64
	Goal    []float64
	Action  int
	Reward  float64
	NextObs []float64
	Done    bool
}

// Batch is a batch of transitions. Obs, Goal and NextObs are row-major
// with Size rows.
type Batch struct {
	Obs     []float64
	Goal    []float64
	Action  []int
	Reward  []float64
	NextObs []float64
	Done    []bool

	Size    int
	ObsDim  int
	GoalDim int
}

// Store is a ring buffer of transitions. Once full, each new transition
// overwrites the oldest stored transition.
type Store struct {
	obsCache     []float64
	goalCache    []float64
	actionCache  []int
	rewardCache  []float64
	nextObsCache []float64
	doneCache    []bool

	obsDim      int
	goalDim     int
	maxCapacity int

	// Position of the next insert and whether the ring has wrapped
	pos    int
	isFull bool

	rng *rand.Rand
}

// New returns a new Store holding at most capacity transitions with
// observations of size obsDim and goals of size goalDim
func New(capacity, obsDim, goalDim int, seed uint64) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be positive\n\t"+
			"want(>0)\n\thave(%v)", capacity)
	}
	if obsDim < 1 || goalDim < 1 {
		return nil, fmt.Errorf("new: observation and goal sizes must be "+
			"positive\n\thave(%v, %v)", obsDim, goalDim)
	}

	return &Store{
		obsCache:     make([]float64, capacity*obsDim),
		goalCache:    make([]float64, capacity*goalDim),
		actionCache:  make([]int, capacity),
		rewardCache:  make([]float64, capacity),
		nextObsCache: make([]float64, capacity*obsDim),
		doneCache:    make([]bool, capacity),
		obsDim:       obsDim,
		goalDim:      goalDim,
		maxCapacity:  capacity,
		rng:          rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a transition to the store, evicting the oldest transition if
// the store is full
func (s *Store) Add(t Transition) error {
	if len(t.Obs) != s.obsDim || len(t.NextObs) != s.obsDim {
		return fmt.Errorf("add: invalid observation size \n\twant(%v)"+
			"\n\thave(%v, %v)", s.obsDim, len(t.Obs), len(t.NextObs))
	}
	if len(t.Goal) != s.goalDim {
		return fmt.Errorf("add: invalid goal size \n\twant(%v)\n\thave(%v)",
			s.goalDim, len(t.Goal))
	}

	copy(s.obsCache[s.pos*s.obsDim:], t.Obs)
	copy(s.nextObsCache[s.pos*s.obsDim:], t.NextObs)
	copy(s.goalCache[s.pos*s.goalDim:], t.Goal)
	s.actionCache[s.pos] = t.Action
	s.rewardCache[s.pos] = t.Reward
	s.doneCache[s.pos] = t.Done

	s.pos++
	if s.pos == s.maxCapacity {
		s.pos = 0
		s.isFull = true
	}
	return nil
}

// Sample samples n transitions uniformly at random with replacement.
// Any positive n may be sampled from a non-empty store.
func (s *Store) Sample(n int) (Batch, error) {
	if s.Capacity() == 0 {
		return Batch{}, &Error{Op: "sample", Err: errEmpty}
	}
	if n < 1 {
		return Batch{}, &Error{
			Op:  "sample",
			Err: fmt.Errorf("%w: want(>0) have(%v)", errBatchSize, n),
		}
	}

	b := Batch{
		Obs:     make([]float64, 0, n*s.obsDim),
		Goal:    make([]float64, 0, n*s.goalDim),
		Action:  make([]int, n),
		Reward:  make([]float64, n),
		NextObs: make([]float64, 0, n*s.obsDim),
		Done:    make([]bool, n),
		Size:    n,
		ObsDim:  s.obsDim,
		GoalDim: s.goalDim,
	}

	for i := 0; i < n; i++ {
		index := s.rng.Intn(s.Capacity())

		b.Obs = append(b.Obs, s.obsCache[index*s.obsDim:(index+1)*s.obsDim]...)
		b.NextObs = append(b.NextObs,
			s.nextObsCache[index*s.obsDim:(index+1)*s.obsDim]...)
		b.Goal = append(b.Goal,
			s.goalCache[index*s.goalDim:(index+1)*s.goalDim]...)
		b.Action[i] = s.actionCache[index]
		b.Reward[i] = s.rewardCache[index]
		b.Done[i] = s.doneCache[index]
	}
	return b, nil
}

// At returns the transition stored at index i, where index 0 is the
// oldest stored transition
func (s *Store) At(i int) (Transition, error) {
	if i < 0 || i >= s.Capacity() {
		return Transition{}, &Error{
			Op:  "at",
			Err: fmt.Errorf("index %v out of range [0, %v)", i, s.Capacity()),
		}
	}

	index := i
	if s.isFull {
		index = (s.pos + i) % s.maxCapacity
	}

	obs := s.obsCache[index*s.obsDim : (index+1)*s.obsDim]
	next := s.nextObsCache[index*s.obsDim : (index+1)*s.obsDim]
	goal := s.goalCache[index*s.goalDim : (index+1)*s.goalDim]
	return Transition{
		Obs:     append([]float64(nil), obs...),
		Goal:    append([]float64(nil), goal...),
		Action:  s.actionCache[index],
		Reward:  s.rewardCache[index],
		NextObs: append([]float64(nil), next...),
		Done:    s.doneCache[index],
	}, nil
}

// Capacity returns the current number of transitions in the store
func (s *Store) Capacity() int {
	if s.isFull {
		return s.maxCapacity
	}
	return s.pos
}

// MaxCapacity returns the maximum number of transitions in the store
func (s *Store) MaxCapacity() int {
	return s.maxCapacity
}

// String implements the fmt.Stringer interface
func (s *Store) String() string {
	return fmt.Sprintf("Store{capacity: %v/%v, obs: %v, goal: %v}",
		s.Capacity(), s.maxCapacity, s.obsDim, s.goalDim)
}
