package network

import (
	"strconv"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newfcLayer adds a new fully connected layer to the graph g with
// input inputs and output outputs. Weights are initialized with init
// and biases are initialized to zero.
func newfcLayer(g *G.ExprGraph, name string, inputs, outputs int, bias bool,
	init G.InitWFn, act *Activation) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, outputs),
		G.WithName(name+"W"),
		G.WithInit(init),
	)

	var b *G.Node
	if bias {
		b = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, outputs),
			G.WithName(name+"B"),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{weights: weights, bias: b, act: act}
}

// addfcLayers creates the fully connected layers of an MLP. Layer i
// has hiddenSizes[i] outputs, a bias unit if biases[i] is true and
// activation activations[i].
func addfcLayers(g *G.ExprGraph, prefix string, features int,
	hiddenSizes []int, biases []bool, activations []*Activation,
	init G.InitWFn) []*fcLayer {
	layers := make([]*fcLayer, len(hiddenSizes))

	inputs := features
	for i := range hiddenSizes {
		name := prefix + "L" + strconv.Itoa(i)
		layers[i] = newfcLayer(g, name, inputs, hiddenSizes[i], biases[i],
			init, activations[i])
		inputs = hiddenSizes[i]
	}
	return layers
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	var err error
	if x, err = G.Mul(x, f.weights); err != nil {
		return nil, err
	}
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		if x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0}); err != nil {
			return nil, err
		}
	}
	return f.act.fwd(x)
}

// cloneTo clones an fcLayer to a new computational graph. The values
// of the parameters are copied.
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	var bias *G.Node
	if f.bias != nil {
		bias = cloneParam(g, f.bias)
	}

	return &fcLayer{
		weights: cloneParam(g, f.weights),
		bias:    bias,
		act:     f.act,
	}
}

func cloneParam(g *G.ExprGraph, node *G.Node) *G.Node {
	data := node.Value().Data().([]float64)
	backing := make([]float64, len(data))
	copy(backing, data)

	value := tensor.New(
		tensor.WithShape(node.Shape().Clone()...),
		tensor.WithBacking(backing),
	)
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(node.Shape().Clone()...),
		G.WithName(node.Name()),
		G.WithValue(value),
	)
}
