package fb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestExtractPolicy(t *testing.T) {
	z := mat.NewDense(2, 3, []float64{
		1, 3, 3,
		-1, 0, -2,
	})

	greedy, err := ExtractPolicy(z, Greedy, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 0, 0, 1, 0}, greedy.RawMatrix().Data)
	require.Equal(t, []int{1, 1}, Argmax(z))

	boltzmann, err := ExtractPolicy(z, Boltzmann, 1)
	require.NoError(t, err)
	norm := math.Exp(1) + 2*math.Exp(3)
	require.InDelta(t, math.Exp(1)/norm, boltzmann.At(0, 0), 1e-12)
	require.InDelta(t, 1.0, mat.Sum(boltzmann.RowView(1)), 1e-12)

	// Very high temperatures give uniform policies
	uniform, err := ExtractPolicy(z, Boltzmann, 1e12)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1. / 3, 1. / 3, 1. / 3},
		uniform.RawRowView(0), 1e-9)

	_, err = ExtractPolicy(z, Boltzmann, 0)
	require.Error(t, err)
	_, err = ExtractPolicy(z, "Softmax", 1)
	require.Error(t, err)
}

func TestEntropy(t *testing.T) {
	pi := mat.NewDense(2, 2, []float64{
		0.5, 0.5,
		1, 0,
	})
	entropy := Entropy(pi)
	require.InDelta(t, math.Log(2), entropy[0], 1e-12)
	require.True(t, math.IsNaN(entropy[1]))

	require.InDelta(t, (math.Log(2)+1e-10)/2, NaNMean(entropy), 1e-12)
}

func TestEGreedy(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	greedy := func() (int, error) { return 2, nil }

	for i := 0; i < 100; i++ {
		a, err := EGreedy(rng, 0, 4, greedy)
		require.NoError(t, err)
		require.Equal(t, 2, a)
	}

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		a, err := EGreedy(rng, 1, 4, greedy)
		require.NoError(t, err)
		require.True(t, a >= 0 && a < 4)
		seen[a] = true
	}
	require.Len(t, seen, 4)
}
