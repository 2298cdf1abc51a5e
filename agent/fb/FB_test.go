package fb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/fblearn/environment/chain"
	"github.com/samuelfneumann/fblearn/featurize"
	"github.com/samuelfneumann/fblearn/initwfn"
	"github.com/samuelfneumann/fblearn/network"
	"github.com/samuelfneumann/fblearn/replay"
	"github.com/samuelfneumann/fblearn/solver"
)

// toyConfig returns a small configuration for a 2-state chain
func toyConfig(t *testing.T, sampling Sampling) Config {
	t.Helper()
	init, err := initwfn.NewGlorotU(1.0)
	require.NoError(t, err)
	s, err := solver.NewDefaultAdam(1e-2, 1)
	require.NoError(t, err)

	return Config{
		EmbedDim:            2,
		ForwardLayers:       []int{8},
		ForwardActivations:  []*network.Activation{network.TanH()},
		BackwardLayers:      []int{8},
		BackwardActivations: []*network.Activation{network.TanH()},
		InitWFn:             init,
		Solver:              s,
		BatchSize:           4,
		Gamma:               0.9,
		Polyak:              0.5,
		RegCoef:             1.0,
		Temp:                1.0,
		Sampling:            sampling,
	}
}

func newToyAgent(t *testing.T, c Config) *Agent {
	t.Helper()
	e, _, err := chain.New(2, 10, 1)
	require.NoError(t, err)

	a, err := New(e, featurize.NewIdentity(1), c, 42)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

// toyStore returns a replay store holding 4 synthetic transitions of
// the 2-state chain
func toyStore(t *testing.T) *replay.Store {
	t.Helper()
	s, err := replay.New(4, 1, 1, 7)
	require.NoError(t, err)

	transitions := []replay.Transition{
		{Obs: []float64{0}, Goal: []float64{1}, Action: chain.Right,
			Reward: 1, NextObs: []float64{1}, Done: true},
		{Obs: []float64{0}, Goal: []float64{1}, Action: chain.Left,
			Reward: 0, NextObs: []float64{0}},
		{Obs: []float64{1}, Goal: []float64{0}, Action: chain.Left,
			Reward: 1, NextObs: []float64{0}, Done: true},
		{Obs: []float64{1}, Goal: []float64{0}, Action: chain.Right,
			Reward: 0, NextObs: []float64{1}},
	}
	for _, tr := range transitions {
		require.NoError(t, s.Add(tr))
	}
	return s
}

func allParams(s Snapshot) []float64 {
	var out []float64
	for _, p := range append(append([]network.Param{}, s.Forward...),
		s.Backward...) {
		out = append(out, p.Data...)
	}
	return out
}

func changed(before, after []network.Param) bool {
	for i := range before {
		for j := range before[i].Data {
			if before[i].Data[j] != after[i].Data[j] {
				return true
			}
		}
	}
	return false
}

func TestUpdateToyChain(t *testing.T) {
	for _, soft := range []bool{false, true} {
		c := toyConfig(t, GoalOriented)
		c.SoftUpdate = soft
		a := newToyAgent(t, c)
		store := toyStore(t)

		b, err := store.Sample(4)
		require.NoError(t, err)
		other, err := store.Sample(4)
		require.NoError(t, err)

		before := a.Snapshot()
		loss, entropy, err := a.Update(b, other)
		require.NoError(t, err)
		require.False(t, math.IsNaN(loss) || math.IsInf(loss, 0))
		require.False(t, math.IsNaN(entropy))
		if !soft {
			require.Equal(t, 0.0, entropy)
		}

		after := a.Snapshot()
		require.True(t, changed(before.Forward, after.Forward))
		require.True(t, changed(before.Backward, after.Backward))
		require.Equal(t, 1, a.Updates())

		// Targets are untouched by a gradient step
		require.Equal(t, allParams(before), allParams(a.TargetSnapshot()))
	}
}

func TestUpdateRandomSampling(t *testing.T) {
	for _, sampling := range []Sampling{UniformBall, CauchyBall} {
		a := newToyAgent(t, toyConfig(t, sampling))
		store := toyStore(t)

		b, err := store.Sample(4)
		require.NoError(t, err)
		loss, _, err := a.Update(b, b)
		require.NoError(t, err)
		require.False(t, math.IsNaN(loss))
	}
}

func TestUpdateBatchSize(t *testing.T) {
	a := newToyAgent(t, toyConfig(t, GoalOriented))
	store := toyStore(t)

	b, err := store.Sample(3)
	require.NoError(t, err)
	_, _, err = a.Update(b, b)
	require.Error(t, err)
}

func TestLossOtherBatchPermutation(t *testing.T) {
	a := newToyAgent(t, toyConfig(t, GoalOriented))
	store := toyStore(t)

	b, err := store.Sample(4)
	require.NoError(t, err)
	other, err := store.Sample(4)
	require.NoError(t, err)

	// Reverse the rows of the other batch
	permuted := other
	permuted.Obs = []float64{other.Obs[3], other.Obs[2], other.Obs[1],
		other.Obs[0]}

	loss, _, err := a.Loss(b, other)
	require.NoError(t, err)
	offDiag := a.Diagnostics().ZNextOffDiag

	permutedLoss, _, err := a.Loss(b, permuted)
	require.NoError(t, err)
	require.InDelta(t, loss, permutedLoss, 1e-9)

	// Loss does not change weights
	require.Equal(t, 0, a.Updates())
	require.False(t, math.IsNaN(offDiag))
}

func TestOffDiagonalMeanPermutation(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	require.InDelta(t, (2+3+4+6+7+8)/6.0, OffDiagonalMean(m), 1e-12)

	// Simultaneous row and column permutation (0 2 1)
	perm := []int{0, 2, 1}
	p := mat.NewDense(3, 3, nil)
	for i := range perm {
		for j := range perm {
			p.Set(i, j, m.At(perm[i], perm[j]))
		}
	}
	require.InDelta(t, OffDiagonalMean(m), OffDiagonalMean(p), 1e-12)
}

func TestTargetUpdates(t *testing.T) {
	c := toyConfig(t, GoalOriented)
	a := newToyAgent(t, c)
	store := toyStore(t)

	// Targets are hard copies at construction
	require.Equal(t, allParams(a.Snapshot()), allParams(a.TargetSnapshot()))

	b, err := store.Sample(4)
	require.NoError(t, err)
	_, _, err = a.Update(b, b)
	require.NoError(t, err)

	old := allParams(a.TargetSnapshot())
	online := allParams(a.Snapshot())
	require.NoError(t, a.SoftUpdateTargets())
	soft := allParams(a.TargetSnapshot())
	for i := range soft {
		want := c.Polyak*old[i] + (1-c.Polyak)*online[i]
		require.InDelta(t, want, soft[i], 1e-12)
	}

	require.NoError(t, a.HardUpdateTargets())
	require.Equal(t, online, allParams(a.TargetSnapshot()))
}

func TestGPISingletonMatchesAct(t *testing.T) {
	a := newToyAgent(t, toyConfig(t, UniformBall))
	sampler, err := NewEmbeddingSampler(2, 3)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		w, err := sampler.UniformBall(1)
		require.NoError(t, err)
		obs := []float64{float64(i % 2)}

		want, err := a.Act(obs, w.RawRowView(0))
		require.NoError(t, err)
		got, err := a.ActGPI(obs, w, w.RawRowView(0))
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestGPIPolicy(t *testing.T) {
	a := newToyAgent(t, toyConfig(t, UniformBall))
	wTrain, err := a.SampleEmbeddings(3, nil)
	require.NoError(t, err)

	pi, err := a.GPIPolicy([]float64{0, 1}, wTrain, wTrain.RawRowView(0),
		Boltzmann, 0.1)
	require.NoError(t, err)
	r, c := pi.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, a.NumActions(), c)
	for i := 0; i < r; i++ {
		require.InDelta(t, 1.0, mat.Sum(pi.RowView(i)), 1e-9)
	}
}

func TestPolicyAndEmbed(t *testing.T) {
	a := newToyAgent(t, toyConfig(t, GoalOriented))

	w, err := a.Embed([]float64{0, 1})
	require.NoError(t, err)
	r, c := w.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 2, c)

	_, err = a.SampleEmbeddings(2, []float64{0})
	require.Error(t, err)

	for _, target := range []bool{false, true} {
		pi, err := a.Policy([]float64{0, 1}, w, Greedy, 1, target)
		require.NoError(t, err)
		require.Equal(t, 2.0, mat.Sum(pi))
	}
}

func TestSnapshotRestore(t *testing.T) {
	a := newToyAgent(t, toyConfig(t, GoalOriented))
	snap := a.Snapshot()

	store := toyStore(t)
	b, err := store.Sample(4)
	require.NoError(t, err)
	_, _, err = a.Update(b, b)
	require.NoError(t, err)
	require.NotEqual(t, allParams(snap), allParams(a.Snapshot()))

	require.NoError(t, a.Restore(snap))
	require.Equal(t, allParams(snap), allParams(a.Snapshot()))
	require.Equal(t, allParams(snap), allParams(a.TargetSnapshot()))
}

func TestConfigValidate(t *testing.T) {
	c := toyConfig(t, "Spherical")
	require.Error(t, c.Validate())

	c = toyConfig(t, GoalOriented)
	c.BatchSize = 1
	require.Error(t, c.Validate())

	c = toyConfig(t, GoalOriented)
	c.ForwardActivations = nil
	require.Error(t, c.Validate())

	require.NoError(t, DefaultConfig().Validate())
}
