package fb

import (
	"gonum.org/v1/gonum/mat"
)

// Forward network outputs are stored row-major with D*A columns per
// sample, where column d*A + a holds F[s, d, a].

// latent contracts forward outputs f with embeddings w:
//
//	z[s, a] = Σ_d F[s, d, a] w[s, d]
func latent(f []float64, w *mat.Dense, numActions int) *mat.Dense {
	rows, dim := w.Dims()
	z := mat.NewDense(rows, numActions, nil)

	for s := 0; s < rows; s++ {
		fs := mat.NewDense(dim, numActions, f[s*dim*numActions:(s+1)*dim*numActions])
		zs := mat.NewVecDense(numActions, z.RawRowView(s))
		zs.MulVec(fs.T(), w.RowView(s))
	}
	return z
}

// expectation contracts forward outputs f with a policy pi over actions:
//
//	out[s, d] = Σ_a F[s, d, a] pi[s, a]
func expectation(f []float64, pi *mat.Dense, dim int) *mat.Dense {
	rows, numActions := pi.Dims()
	out := mat.NewDense(rows, dim, nil)

	for s := 0; s < rows; s++ {
		fs := mat.NewDense(dim, numActions, f[s*dim*numActions:(s+1)*dim*numActions])
		outs := mat.NewVecDense(dim, out.RawRowView(s))
		outs.MulVec(fs, pi.RowView(s))
	}
	return out
}

// gather selects the column of a single action per sample:
//
//	out[s, d] = F[s, d, actions[s]]
func gather(f []float64, actions []int, dim, numActions int) *mat.Dense {
	out := mat.NewDense(len(actions), dim, nil)
	for s, a := range actions {
		row := out.RawRowView(s)
		for d := range row {
			row[d] = f[s*dim*numActions+d*numActions+a]
		}
	}
	return out
}

// actionMask returns the [S, D*A] mask which is 1 at F[s, d, actions[s]]
// for every d
func actionMask(actions []int, dim, numActions int) []float64 {
	mask := make([]float64, len(actions)*dim*numActions)
	for s, a := range actions {
		for d := 0; d < dim; d++ {
			mask[s*dim*numActions+d*numActions+a] = 1
		}
	}
	return mask
}

// collapse returns the [D*A, D] matrix summing the A columns of each
// embedding dimension
func collapse(dim, numActions int) []float64 {
	c := make([]float64, dim*numActions*dim)
	for d := 0; d < dim; d++ {
		for a := 0; a < numActions; a++ {
			c[(d*numActions+a)*dim+d] = 1
		}
	}
	return c
}

// cross returns the matrix of inner products between the rows of a and
// the rows of b: out[s, t] = <a[s], b[t]>
func cross(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(a, b.T())
	return &out
}

// concatRows joins the rows of two row-major batches with the same
// number of rows
func concatRows(a []float64, aCols int, b []float64, bCols int) []float64 {
	rows := len(a) / aCols
	out := make([]float64, 0, rows*(aCols+bCols))
	for i := 0; i < rows; i++ {
		out = append(out, a[i*aCols:(i+1)*aCols]...)
		out = append(out, b[i*bCols:(i+1)*bCols]...)
	}
	return out
}

// OffDiagonalMean returns the mean of the off-diagonal entries of the
// square matrix m. It is invariant under a simultaneous permutation of
// the rows and columns of m.
func OffDiagonalMean(m *mat.Dense) float64 {
	n, _ := m.Dims()
	if n < 2 {
		return 0
	}

	var diag float64
	for i := 0; i < n; i++ {
		diag += m.At(i, i)
	}
	total := mat.Sum(m)
	return (total - diag) / float64(n*(n-1))
}

// rowMajor returns the elements of m in row-major order
func rowMajor(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}

	data := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return data
}
