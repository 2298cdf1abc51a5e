package fb

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/fblearn/utils/floatutils"
)

// PolicyType determines how a latent value surface is turned into a
// distribution over actions
type PolicyType string

// Available policy types
const (
	Greedy    PolicyType = "Greedy"
	Boltzmann PolicyType = "Boltzmann"
)

// Validate returns an error if p is not a known PolicyType
func (p PolicyType) Validate() error {
	switch p {
	case Greedy, Boltzmann:
		return nil
	}
	return fmt.Errorf("validate: no such policy type %q", p)
}

// nanReplacement replaces NaN entries in diagnostics
const nanReplacement = 1e-10

// ExtractPolicy converts a latent value surface z of shape [S, A] into
// a distribution over actions of the same shape. A Greedy policy is
// one-hot on the first maximal action. A Boltzmann policy is the row
// softmax of z / temp.
func ExtractPolicy(z *mat.Dense, policyType PolicyType,
	temp float64) (*mat.Dense, error) {
	rows, cols := z.Dims()
	pi := mat.NewDense(rows, cols, nil)

	switch policyType {
	case Greedy:
		for i, a := range Argmax(z) {
			pi.Set(i, a, 1.0)
		}

	case Boltzmann:
		if temp <= 0 {
			return nil, fmt.Errorf("extractPolicy: temperature must be "+
				"positive\n\twant(>0)\n\thave(%v)", temp)
		}
		for i := 0; i < rows; i++ {
			row := pi.RawRowView(i)
			copy(row, z.RawRowView(i))
			floats.Scale(1/temp, row)

			// Subtract the max for numerical stability
			floats.AddConst(-floats.Max(row), row)
			for j := range row {
				row[j] = math.Exp(row[j])
			}
			floats.Scale(1/floats.Sum(row), row)
		}

	default:
		return nil, fmt.Errorf("extractPolicy: %v", policyType.Validate())
	}

	return pi, nil
}

// Argmax returns the first maximal column of each row of z
func Argmax(z *mat.Dense) []int {
	rows, _ := z.Dims()
	actions := make([]int, rows)
	for i := range actions {
		actions[i] = floatutils.Argmax(z.RawRowView(i))
	}
	return actions
}

// EGreedy returns a uniformly random action with probability eps and
// the action returned by greedy otherwise
func EGreedy(rng *rand.Rand, eps float64, numActions int,
	greedy func() (int, error)) (int, error) {
	if rng.Float64() < eps {
		return rng.Intn(numActions), nil
	}
	return greedy()
}

// Entropy returns the Shannon entropy of each row of pi. Rows with
// zero-probability actions have a NaN entropy.
func Entropy(pi *mat.Dense) []float64 {
	rows, _ := pi.Dims()
	entropy := make([]float64, rows)
	for i := range entropy {
		for _, p := range pi.RawRowView(i) {
			entropy[i] -= math.Log(p) * p
		}
	}
	return entropy
}

// NaNMean returns the mean of v where NaN entries count as 1e-10
func NaNMean(v []float64) float64 {
	clean := make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			x = nanReplacement
		}
		clean[i] = x
	}
	return stat.Mean(clean, nil)
}
