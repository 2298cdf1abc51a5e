package fb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/fblearn/network"
	"github.com/samuelfneumann/fblearn/replay"
	"github.com/samuelfneumann/fblearn/solver"
)

// detached holds the values of a loss computation that receive no
// gradient
type detached struct {
	w     *mat.Dense  // B(goal), one embedding per row
	gz    [][]float64 // γ <f_next_s, b_next_t>
	bSg   [][]float64 // B(s)
	boSg  [][]float64 // B(s_other)
	feat  []float64
	other []float64
}

// rows splits a row-major slice into rows of length cols
func rows(data []float64, cols int) [][]float64 {
	out := make([][]float64, len(data)/cols)
	for i := range out {
		out[i] = data[i*cols : (i+1)*cols]
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// detachedValues computes the detached values of the loss of b against
// other element by element from the agent's current networks
func detachedValues(t *testing.T, a *Agent, b, other replay.Batch) detached {
	t.Helper()
	size, dim, actions := a.config.BatchSize, a.config.EmbedDim, a.numActions

	feat, _, err := a.featurize(b.Obs)
	require.NoError(t, err)
	featNext, _, err := a.featurize(b.NextObs)
	require.NoError(t, err)
	featOther, _, err := a.featurize(other.Obs)
	require.NoError(t, err)

	w, err := a.Embed(b.Goal)
	require.NoError(t, err)

	fTarget, err := a.forwardTargets.run(concatRows(featNext, a.features,
		rowMajor(w), dim), size)
	require.NoError(t, err)

	// Bootstrap successor features f_next[s][d]
	fNext := make([][]float64, size)
	for s := 0; s < size; s++ {
		out := fTarget[s*dim*actions : (s+1)*dim*actions]
		q := make([]float64, actions)
		for act := range q {
			for d := 0; d < dim; d++ {
				q[act] += out[d*actions+act] * w.At(s, d)
			}
		}

		pi := make([]float64, actions)
		if a.config.SoftUpdate {
			top := math.Inf(-1)
			for _, v := range q {
				top = math.Max(top, v)
			}
			var total float64
			for act, v := range q {
				pi[act] = math.Exp((v - top) / a.config.Temp)
				total += pi[act]
			}
			for act := range pi {
				pi[act] /= total
			}
		} else {
			best := 0
			for act, v := range q {
				if v > q[best] {
					best = act
				}
			}
			pi[best] = 1
		}

		fNext[s] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			for act := range pi {
				fNext[s][d] += pi[act] * out[d*actions+act]
			}
		}
	}

	bNextData, err := a.backwardTargets.run(featOther, size)
	require.NoError(t, err)
	bNext := rows(bNextData, dim)

	gz := make([][]float64, size)
	for s := range gz {
		gz[s] = make([]float64, size)
		for u := range gz[s] {
			gz[s][u] = a.config.Gamma * dot(fNext[s], bNext[u])
		}
	}

	bData, err := a.backward.run(feat, size)
	require.NoError(t, err)
	boData, err := a.backward.run(featOther, size)
	require.NoError(t, err)

	return detached{
		w:     w,
		gz:    gz,
		bSg:   rows(bData, dim),
		boSg:  rows(boData, dim),
		feat:  feat,
		other: featOther,
	}
}

// referenceLoss computes the FB loss of b with the online networks of
// a, holding the values in det fixed
func referenceLoss(t *testing.T, a *Agent, b replay.Batch,
	det detached) float64 {
	t.Helper()
	size, dim, actions := a.config.BatchSize, a.config.EmbedDim, a.numActions

	fOut, err := a.forward.run(concatRows(det.feat, a.features,
		rowMajor(det.w), dim), size)
	require.NoError(t, err)
	f := make([][]float64, size)
	for s := range f {
		f[s] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			f[s][d] = fOut[s*dim*actions+d*actions+b.Action[s]]
		}
	}

	bData, err := a.backward.run(det.feat, size)
	require.NoError(t, err)
	boData, err := a.backward.run(det.other, size)
	require.NoError(t, err)
	bOn, bo := rows(bData, dim), rows(boData, dim)

	n := float64(size)
	var primary, diag, reg float64
	for s := 0; s < size; s++ {
		diag += dot(f[s], bOn[s]) / n
		for u := 0; u < size; u++ {
			td := dot(f[s], bo[u]) - det.gz[s][u]
			primary += 0.5 * td * td / (n * n)

			reg += (dot(bOn[s], det.bSg[s])*dot(det.bSg[s], det.boSg[u]) -
				dot(bOn[s], det.boSg[u])) / (n * n)
		}
	}
	return primary - diag + a.config.RegCoef*reg
}

func copyParams(params []network.Param) []network.Param {
	out := make([]network.Param, len(params))
	for i, p := range params {
		out[i] = network.Param{
			Name:  p.Name,
			Shape: append([]int(nil), p.Shape...),
			Data:  append([]float64(nil), p.Data...),
		}
	}
	return out
}

// setOnline sets the weights of the online networks without touching
// the targets
func setOnline(t *testing.T, a *Agent, s Snapshot) {
	t.Helper()
	require.NoError(t, a.train.forward.SetParams(s.Forward))
	require.NoError(t, a.train.backward.SetParams(s.Backward))
	a.forward.changed()
	a.backward.changed()
}

func TestLossMatchesReference(t *testing.T) {
	for _, soft := range []bool{false, true} {
		c := toyConfig(t, GoalOriented)
		c.SoftUpdate = soft
		c.RegCoef = 0.7
		a := newToyAgent(t, c)
		store := toyStore(t)

		b, err := store.Sample(4)
		require.NoError(t, err)
		other, err := store.Sample(4)
		require.NoError(t, err)

		// Separate the online networks from the targets
		_, _, err = a.Update(b, other)
		require.NoError(t, err)
		require.NotEqual(t, allParams(a.Snapshot()),
			allParams(a.TargetSnapshot()))

		loss, _, err := a.Loss(b, other)
		require.NoError(t, err)
		want := referenceLoss(t, a, b, detachedValues(t, a, b, other))
		require.InDelta(t, want, loss, 1e-9, "soft update: %v", soft)
	}
}

// TestGradientStopsAtDetachedValues compares one plain gradient step
// against central differences of the loss in which the bootstrap
// target, the goal embedding and the stop-gradient Backward values are
// held fixed. Gradients leaking into any of those would make the two
// disagree.
func TestGradientStopsAtDetachedValues(t *testing.T) {
	const (
		stepSize = 1e-3
		h        = 1e-6
	)

	for _, soft := range []bool{false, true} {
		c := toyConfig(t, GoalOriented)
		c.SoftUpdate = soft
		a := newToyAgent(t, c)
		store := toyStore(t)

		b, err := store.Sample(4)
		require.NoError(t, err)
		other, err := store.Sample(4)
		require.NoError(t, err)

		in, _, err := a.prepare(b, other)
		require.NoError(t, err)
		det := detachedValues(t, a, b, other)
		start := a.Snapshot()

		vanilla, err := solver.NewVanilla(stepSize, 1, -1)
		require.NoError(t, err)
		loss, err := a.train.run(in, vanilla)
		require.NoError(t, err)
		stepped := a.Snapshot()

		setOnline(t, a, start)
		require.InDelta(t, referenceLoss(t, a, b, det), loss, 1e-9)

		check := func(net string, params func(Snapshot) []network.Param) {
			before, after := params(start), params(stepped)
			for i := range before {
				for j := range before[i].Data {
					grad := (before[i].Data[j] - after[i].Data[j]) / stepSize

					perturbed := Snapshot{
						Forward:  copyParams(start.Forward),
						Backward: copyParams(start.Backward),
					}
					params(perturbed)[i].Data[j] += h
					setOnline(t, a, perturbed)
					up := referenceLoss(t, a, b, det)

					params(perturbed)[i].Data[j] -= 2 * h
					setOnline(t, a, perturbed)
					down := referenceLoss(t, a, b, det)

					numerical := (up - down) / (2 * h)
					require.InDelta(t, numerical, grad,
						1e-6+1e-4*math.Abs(numerical),
						"soft update %v: %v parameter %v[%v]", soft, net,
						before[i].Name, j)
				}
			}
			setOnline(t, a, start)
		}
		check("forward", func(s Snapshot) []network.Param { return s.Forward })
		check("backward", func(s Snapshot) []network.Param { return s.Backward })
	}
}

// TestRegulariserLeavesForwardUnchanged checks that the orthonormality
// term only trains the Backward network
func TestRegulariserLeavesForwardUnchanged(t *testing.T) {
	a := newToyAgent(t, toyConfig(t, GoalOriented))
	store := toyStore(t)

	b, err := store.Sample(4)
	require.NoError(t, err)
	in, _, err := a.prepare(b, b)
	require.NoError(t, err)

	// Zero predictions of the primary loss make the Forward gradient
	// vanish when the regulariser is the only other term
	for i := range in.actionMask {
		in.actionMask[i] = 0
	}
	for i := range in.gammaZNext {
		in.gammaZNext[i] = 0
	}

	vanilla, err := solver.NewVanilla(1e-2, 1, -1)
	require.NoError(t, err)
	before := a.Snapshot()
	_, err = a.train.run(in, vanilla)
	require.NoError(t, err)
	after := a.Snapshot()

	require.Equal(t, allParams(Snapshot{Forward: before.Forward}),
		allParams(Snapshot{Forward: after.Forward}))
	require.True(t, changed(before.Backward, after.Backward))
}
