package featurize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRBFGrid(t *testing.T) {
	r := NewRBFGrid(2, 3, 0, 1, 0.5)
	require.Equal(t, 9, r.Features())

	// An observation on a center has a feature of exactly 1 there
	features := r.Transform([]float64{0.5, 0})
	require.InDelta(t, 1.0, features[3], 1e-12)

	for _, f := range features {
		require.True(t, f > 0 && f <= 1)
	}

	// Distance √(0.5²) = 0.5 from (0, 0)
	require.InDelta(t, math.Exp(-0.25/0.5), features[0], 1e-12)
}

func TestCosSin(t *testing.T) {
	c := NewCosSin(2)
	features := c.Transform([]float64{0.25, 0})
	require.InDeltaSlice(t, []float64{1, 0, 0, 1}, features, 1e-12)
}

func TestTransformBatch(t *testing.T) {
	r := NewRBFGrid(1, 5, 0, 1, 0.1)
	batch := r.TransformBatch([]float64{0.1, 0.7}, 1)
	require.Len(t, batch, 10)
	require.Equal(t, r.Transform([]float64{0.7}), batch[5:])

	require.Panics(t, func() { r.TransformBatch([]float64{0.1, 0.2, 0.3}, 2) })
}

func TestConfig(t *testing.T) {
	f, err := Config{Type: RBF}.Create(2)
	require.NoError(t, err)
	require.Equal(t, DefaultCenters*DefaultCenters, f.Features())

	f, err = Config{Type: Identity}.Create(3)
	require.NoError(t, err)
	require.Equal(t, 3, f.Features())

	_, err = Config{Type: "Fourier"}.Create(2)
	require.Error(t, err)
}
