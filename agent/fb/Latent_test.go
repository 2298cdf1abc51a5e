package fb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// Two samples, D = 2, A = 3. Column d*A + a holds F[s, d, a].
var testF = []float64{
	1, 2, 3, 4, 5, 6,
	-1, 0, 1, 2, 0, -2,
}

func TestLatent(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{
		1, 0.5,
		2, -1,
	})
	z := latent(testF, w, 3)
	require.Equal(t, []float64{
		1 + 2, 2 + 2.5, 3 + 3,
		-2 - 2, 0, 2 + 2,
	}, z.RawMatrix().Data)
}

func TestGatherMatchesMask(t *testing.T) {
	actions := []int{2, 0}
	g := gather(testF, actions, 2, 3)
	require.Equal(t, []float64{3, 6, -1, 2}, g.RawMatrix().Data)

	// Masking then collapsing, as done in the training graph, gathers
	// the same values
	var masked mat.Dense
	f := mat.NewDense(2, 6, append([]float64(nil), testF...))
	mask := mat.NewDense(2, 6, actionMask(actions, 2, 3))
	masked.MulElem(f, mask)

	var collapsed mat.Dense
	collapsed.Mul(&masked, mat.NewDense(6, 2, collapse(2, 3)))
	require.Equal(t, g.RawMatrix().Data, collapsed.RawMatrix().Data)
}

func TestExpectation(t *testing.T) {
	pi := mat.NewDense(2, 3, []float64{
		0, 0.5, 0.5,
		1, 0, 0,
	})
	out := expectation(testF, pi, 2)
	require.Equal(t, []float64{2.5, 5.5, -1, 2}, out.RawMatrix().Data)
}

func TestConcatRows(t *testing.T) {
	out := concatRows([]float64{1, 2, 3, 4}, 2, []float64{5, 6}, 1)
	require.Equal(t, []float64{1, 2, 5, 3, 4, 6}, out)
}
