package fb

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampling determines how task embeddings are chosen for rollouts and
// updates
type Sampling string

// Available embedding sampling strategies
const (
	// GoalOriented embeds the environment goal with the Backward network
	GoalOriented Sampling = "GoalOriented"

	// UniformBall samples uniformly in the ball of radius sqrt(D)
	UniformBall Sampling = "UniformBall"

	// CauchyBall samples directions uniformly with a heavy-tailed
	// Cauchy(0, 0.5) radius scaled by sqrt(D)
	CauchyBall Sampling = "CauchyBall"
)

// Validate returns an error if s is not a known Sampling
func (s Sampling) Validate() error {
	switch s {
	case GoalOriented, UniformBall, CauchyBall:
		return nil
	}
	return fmt.Errorf("validate: no such embedding sampling %q", s)
}

// normEps guards the normalisation of directions
const normEps = 1e-10

// EmbeddingSampler samples random embeddings of a fixed dimension
type EmbeddingSampler struct {
	dim     int
	normal  distuv.Normal
	uniform distuv.Uniform
	cauchy  distuv.StudentsT
}

// NewEmbeddingSampler returns a new EmbeddingSampler for embeddings of
// dimension dim
func NewEmbeddingSampler(dim int, seed uint64) (*EmbeddingSampler, error) {
	if dim < 1 {
		return nil, fmt.Errorf("newEmbeddingSampler: embedding dimension "+
			"must be positive\n\twant(>0)\n\thave(%v)", dim)
	}

	src := rand.NewSource(seed)
	return &EmbeddingSampler{
		dim:     dim,
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},

		// A Student's t with one degree of freedom is a Cauchy
		cauchy: distuv.StudentsT{Mu: 0, Sigma: 0.5, Nu: 1, Src: src},
	}, nil
}

// Dim returns the dimension of sampled embeddings
func (e *EmbeddingSampler) Dim() int {
	return e.dim
}

// Direction samples n directions, one per row, each of unit norm
func (e *EmbeddingSampler) Direction(n int) (*mat.Dense, error) {
	if n < 1 {
		return nil, fmt.Errorf("direction: number of samples must be "+
			"positive\n\twant(>0)\n\thave(%v)", n)
	}

	dirs := mat.NewDense(n, e.dim, nil)
	for i := 0; i < n; i++ {
		row := dirs.RawRowView(i)
		for j := range row {
			row[j] = e.normal.Rand()
		}
		floats.Scale(1/(floats.Norm(row, 2)+normEps), row)
	}
	return dirs, nil
}

// UniformBall samples n embeddings sqrt(D) * direction * U(0, 1)
func (e *EmbeddingSampler) UniformBall(n int) (*mat.Dense, error) {
	return e.scaled(n, e.uniform.Rand)
}

// CauchyBall samples n embeddings sqrt(D) * direction * Cauchy(0, 0.5)
func (e *EmbeddingSampler) CauchyBall(n int) (*mat.Dense, error) {
	return e.scaled(n, e.cauchy.Rand)
}

// scaled samples n directions and scales each row by sqrt(D) times a
// radius drawn from radius
func (e *EmbeddingSampler) scaled(n int, radius func() float64) (*mat.Dense,
	error) {
	w, err := e.Direction(n)
	if err != nil {
		return nil, err
	}

	scale := math.Sqrt(float64(e.dim))
	for i := 0; i < n; i++ {
		floats.Scale(scale*radius(), w.RawRowView(i))
	}
	return w, nil
}
