package network

import (
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func newTestMLP(t *testing.T, name string) NeuralNet {
	t.Helper()
	g := G.NewGraph()
	net, err := NewMLP(g, name, 3, 2, 4, []int{5}, []bool{true},
		G.GlorotU(1.0), []*Activation{TanH()})
	require.NoError(t, err)
	return net
}

func runOutput(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()
	require.NoError(t, net.SetInput(input))

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	out := net.Output().Data().([]float64)
	return append([]float64(nil), out...)
}

func TestSet(t *testing.T) {
	online := newTestMLP(t, "online")
	target := newTestMLP(t, "target")

	// Perturb the bias so that biases are compared as well
	bias := online.Learnables()[1].Value().Data().([]float64)
	for i := range bias {
		bias[i] = float64(i) + 0.5
	}

	require.NoError(t, target.Set(online))

	sourceParams := online.Params()
	targetParams := target.Params()
	for i := range sourceParams {
		require.Equal(t, sourceParams[i].Data, targetParams[i].Data)
	}

	input := []float64{0.1, -0.2, 0.3, 0.4, 0.5, -0.6}
	require.InDeltaSlice(t, runOutput(t, online, input),
		runOutput(t, target, input), 1e-12)
}

func TestPolyak(t *testing.T) {
	online := newTestMLP(t, "online")
	target := newTestMLP(t, "target")

	before := target.Params()
	source := online.Params()

	const polyak = 0.9
	require.NoError(t, target.Polyak(online, polyak))

	after := target.Params()
	for i := range after {
		for j := range after[i].Data {
			want := polyak*before[i].Data[j] + (1-polyak)*source[i].Data[j]
			require.InDelta(t, want, after[i].Data[j], 1e-12)
		}
	}

	// The source must be unchanged
	for i, p := range online.Params() {
		require.Equal(t, source[i].Data, p.Data)
	}

	require.Error(t, target.Polyak(online, 1.5))
}

func TestCloneWithBatch(t *testing.T) {
	net := newTestMLP(t, "net")
	clone, err := net.CloneWithBatch(1)
	require.NoError(t, err)
	require.Equal(t, 1, clone.BatchSize())
	require.NotSame(t, net.Graph(), clone.Graph())

	input := []float64{0.1, -0.2, 0.3, 0.4, 0.5, -0.6}
	out := runOutput(t, net, input)
	require.InDeltaSlice(t, out[4:], runOutput(t, clone, input[3:]), 1e-12)

	// Clones do not share weights with the original
	w := clone.Learnables()[0].Value().Data().([]float64)
	w[0] += 1
	require.NotEqual(t, w[0], net.Learnables()[0].Value().Data().([]float64)[0])
}

func TestFwdSharesWeights(t *testing.T) {
	net := newTestMLP(t, "net")
	other := G.NewMatrix(net.Graph(), tensor.Float64, G.WithShape(2, 3),
		G.WithName("other"), G.WithInit(G.Zeroes()))
	pred, err := net.Fwd(other)
	require.NoError(t, err)

	input := []float64{0.1, -0.2, 0.3, 0.4, 0.5, -0.6}
	require.NoError(t, G.Let(other, tensor.New(tensor.WithShape(2, 3),
		tensor.WithBacking(input))))
	out := runOutput(t, net, input)

	require.InDeltaSlice(t, out, pred.Value().Data().([]float64), 1e-12)
}

func TestSetParams(t *testing.T) {
	a := newTestMLP(t, "net")
	b := newTestMLP(t, "net")

	require.NoError(t, b.SetParams(a.Params()))
	for i, p := range b.Params() {
		require.Equal(t, a.Params()[i], p)
	}

	bad := a.Params()[:1]
	require.Error(t, b.SetParams(bad))
}

func TestNewMLPValidation(t *testing.T) {
	g := G.NewGraph()
	_, err := NewMLP(g, "net", 3, 2, 4, []int{5, 5}, []bool{true},
		G.GlorotU(1.0), []*Activation{TanH(), ReLU()})
	require.Error(t, err)
}

func TestActivationJSON(t *testing.T) {
	var a Activation
	require.NoError(t, a.UnmarshalJSON([]byte(`"ReLU"`)))
	require.Equal(t, "relu", a.String())

	require.Error(t, a.UnmarshalJSON([]byte(`"softplus"`)))
}
