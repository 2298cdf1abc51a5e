package matutils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMeans(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	require.Equal(t, []float64{2, 5}, RowMean(m).RawVector().Data)
	require.Equal(t, 3.5, Mean(m))
}
