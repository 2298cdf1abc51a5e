package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron with a single matrix input
// node. A final linear layer with a bias unit and no activation is
// always added so that the network predicts outputs values per sample.
type mlp struct {
	g         *G.ExprGraph
	name      string
	layers    []*fcLayer
	input     *G.Node
	outputs   int
	features  int
	batchSize int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron in the graph
// g. All nodes of the network are named with the prefix name, so that
// more than one network may be placed in the same graph.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. For index
// i, hiddenSizes[i] is the number of nodes in hidden layer i; biases[i]
// is true if the hidden layer will contain a bias unit and false
// otherwise; and activations[i] is the activation function for hidden
// layer i. The parameter init determines the weight initialization
// scheme.
func NewMLP(g *G.ExprGraph, name string, features, batch, outputs int,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newMLP: invalid number of biases\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features, batch size and outputs "+
			"must be positive\n\thave(%v, %v, %v)", features, batch, outputs)
	}

	sizes := append(append([]int{}, hiddenSizes...), outputs)
	bs := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(name+"Input"), G.WithInit(G.Zeroes()))

	net := &mlp{
		g:         g,
		name:      name,
		layers:    addfcLayers(g, name, features, sizes, bs, acts, init),
		input:     input,
		outputs:   outputs,
		features:  features,
		batchSize: batch,
	}

	if err := net.build(); err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}
	return net, nil
}

// build adds the forward pass on the input node to the graph
func (m *mlp) build() error {
	pred, err := m.Fwd(m.input)
	if err != nil {
		return err
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)
	return nil
}

// Graph returns the computational graph of the mlp
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// Clone clones an mlp into a new graph
func (m *mlp) Clone() (NeuralNet, error) {
	return m.CloneWithBatch(m.batchSize)
}

// CloneWithBatch clones an mlp into a new graph with a new input batch
// size. The weights of the clone are copies of the receiver's weights.
func (m *mlp) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("cloneWithBatch: batch size must be "+
			"positive\n\twant(>0)\n\thave(%v)", batchSize)
	}
	graph := G.NewGraph()

	layers := make([]*fcLayer, len(m.layers))
	for i := range m.layers {
		layers[i] = m.layers[i].cloneTo(graph)
	}

	input := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batchSize, m.features), G.WithName(m.name+"Input"),
		G.WithInit(G.Zeroes()))

	net := &mlp{
		g:         graph,
		name:      m.name,
		layers:    layers,
		input:     input,
		outputs:   m.outputs,
		features:  m.features,
		batchSize: batchSize,
	}

	if err := net.build(); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not clone: %v", err)
	}
	return net, nil
}

// BatchSize returns the batch size of inputs to the network
func (m *mlp) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input vector
func (m *mlp) Features() int {
	return m.features
}

// Outputs returns the number of outputs from the network per sample
func (m *mlp) Outputs() int {
	return m.outputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (m *mlp) SetInput(input []float64) error {
	if len(input) != m.features*m.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", m.features*m.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(m.input.Shape()...),
	)
	return G.Let(m.input, inputTensor)
}

// Set sets the weights of the receiver to be equal to the weights of
// source
func (m *mlp) Set(source NeuralNet) error {
	return m.combine(source, "set", func(dest, src []float64) {
		copy(dest, src)
	})
}

// Polyak sets the weights of the receiver to be a polyak average between
// its existing weights and the weights of source:
//
//	weights = polyak * weights + (1 - polyak) * source
func (m *mlp) Polyak(source NeuralNet, polyak float64) error {
	if polyak < 0 || polyak > 1 {
		return fmt.Errorf("polyak: coefficient out of range\n\t"+
			"want([0, 1])\n\thave(%v)", polyak)
	}
	return m.combine(source, "polyak", func(dest, src []float64) {
		for i := range dest {
			dest[i] = polyak*dest[i] + (1-polyak)*src[i]
		}
	})
}

// combine applies f to the backing data of each pair of corresponding
// learnables of the receiver and source
func (m *mlp) combine(source NeuralNet, op string,
	f func(dest, src []float64)) error {
	sourceNodes := source.Learnables()
	nodes := m.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("%v: incompatible networks\n\twant(%v "+
			"learnables)\n\thave(%v)", op, len(nodes), len(sourceNodes))
	}

	for i := range nodes {
		if !nodes[i].Shape().Eq(sourceNodes[i].Shape()) {
			return fmt.Errorf("%v: incompatible shapes for learnable %v"+
				"\n\twant(%v)\n\thave(%v)", op, nodes[i].Name(),
				nodes[i].Shape(), sourceNodes[i].Shape())
		}
		dest := nodes[i].Value().Data().([]float64)
		src := sourceNodes[i].Value().Data().([]float64)
		f(dest, src)
	}
	return nil
}

// Params returns a copy of the learnable parameters of the mlp
func (m *mlp) Params() []Param {
	nodes := m.Learnables()
	params := make([]Param, len(nodes))

	for i, node := range nodes {
		data := node.Value().Data().([]float64)
		params[i] = Param{
			Name:  node.Name(),
			Shape: node.Shape().Clone(),
			Data:  append([]float64(nil), data...),
		}
	}
	return params
}

// SetParams sets the learnable parameters of the mlp from a copy
// previously returned by Params
func (m *mlp) SetParams(params []Param) error {
	nodes := m.Learnables()
	if len(params) != len(nodes) {
		return fmt.Errorf("setParams: invalid number of parameters"+
			"\n\twant(%v)\n\thave(%v)", len(nodes), len(params))
	}

	for i, node := range nodes {
		dest := node.Value().Data().([]float64)
		if params[i].Name != node.Name() || len(params[i].Data) != len(dest) {
			return fmt.Errorf("setParams: parameter %v does not match "+
				"\n\twant(%v, %v values)\n\thave(%v, %v values)", i,
				node.Name(), len(dest), params[i].Name, len(params[i].Data))
		}
	}

	for i, node := range nodes {
		copy(node.Value().Data().([]float64), params[i].Data)
	}
	return nil
}

// Learnables returns the learnable nodes in an mlp
func (m *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if m.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(m.layers))
		for _, l := range m.layers {
			learnables = append(learnables, l.weights)
			if l.bias != nil {
				learnables = append(learnables, l.bias)
			}
		}
		m.learnables = G.Nodes(learnables)
	}
	return m.learnables
}

// Model returns the learnables nodes with their gradients.
func (m *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if m.model == nil {
		model := make([]G.ValueGrad, 0, len(m.Learnables()))
		for _, node := range m.Learnables() {
			model = append(model, node)
		}
		m.model = model
	}
	return m.model
}

// Fwd adds a forward pass of the mlp on input to the computational
// graph. The weights used are the weights of the mlp, so gradients
// flowing through the returned node reach the mlp's learnables.
func (m *mlp) Fwd(input *G.Node) (*G.Node, error) {
	if input.Graph() != m.g {
		return nil, fmt.Errorf("fwd: input must be in the graph of the " +
			"network")
	}
	if !input.IsMatrix() || input.Shape()[1] != m.features {
		return nil, fmt.Errorf("fwd: invalid shape for input to neural net:"+
			" \n\twant(_, %v) \n\thave(%v)", m.features, input.Shape())
	}

	pred := input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}
	return pred, nil
}

// Output returns the output of the mlp after the graph has been run
func (m *mlp) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the mlp
func (m *mlp) Prediction() *G.Node {
	return m.prediction
}
