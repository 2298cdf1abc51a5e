package replay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func transition(i int) Transition {
	x := float64(i)
	return Transition{
		Obs:     []float64{x, -x},
		Goal:    []float64{x / 2},
		Action:  i % 3,
		Reward:  x,
		NextObs: []float64{x + 1, -x - 1},
		Done:    i%2 == 0,
	}
}

func TestEvictsOldest(t *testing.T) {
	const capacity = 4
	s, err := New(capacity, 2, 1, 1)
	require.NoError(t, err)

	for i := 0; i <= capacity; i++ {
		require.NoError(t, s.Add(transition(i)))
	}
	require.Equal(t, capacity, s.Capacity())

	// The first transition is gone, the rest are in insertion order
	for i := 0; i < capacity; i++ {
		tr, err := s.At(i)
		require.NoError(t, err)
		require.Equal(t, transition(i+1), tr)
	}

	for i := 0; i < 50; i++ {
		b, err := s.Sample(capacity)
		require.NoError(t, err)
		for _, r := range b.Reward {
			require.NotEqual(t, 0.0, r)
		}
	}
}

func TestSampleShapes(t *testing.T) {
	s, err := New(10, 2, 1, 2)
	require.NoError(t, err)

	_, err = s.Sample(1)
	require.True(t, IsEmpty(err))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Add(transition(i)))
	}

	_, err = s.Sample(0)
	require.True(t, IsBatchSize(err))

	// Sampling is with replacement, so batches may exceed the number of
	// stored transitions
	b, err := s.Sample(5)
	require.NoError(t, err)
	require.Equal(t, 5, b.Size)
	require.Len(t, b.Obs, 10)
	require.Len(t, b.NextObs, 10)
	require.Len(t, b.Goal, 5)
	require.Len(t, b.Action, 5)

	// Rows stay aligned across fields
	for i := 0; i < b.Size; i++ {
		require.Equal(t, b.Reward[i], b.Obs[2*i])
		require.Equal(t, b.Reward[i]/2, b.Goal[i])
		require.Equal(t, b.Reward[i]+1, b.NextObs[2*i])
	}
}

func TestAddValidation(t *testing.T) {
	s, err := New(2, 2, 1, 0)
	require.NoError(t, err)

	bad := transition(1)
	bad.Goal = []float64{1, 2}
	require.Error(t, s.Add(bad))

	_, err = New(0, 2, 1, 0)
	require.Error(t, err)
}
