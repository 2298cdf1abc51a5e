// Package network implements feed forward neural networks as gorgonia
// computational graphs, together with the operations needed to keep a
// target network in sync with an online network.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network which lives in a single
// gorgonia computational graph.
//
// Fwd applies the network, with shared weights, to an additional input
// node of the same graph. Set and Polyak change the weights of the
// receiver in place given the weights of a network with an identical
// architecture.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Polyak(NeuralNet, float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Params() []Param
	SetParams([]Param) error
	Fwd(*G.Node) (*G.Node, error)
	Output() G.Value
	Prediction() *G.Node
}

// Param is a copy of a single learnable parameter of a NeuralNet
type Param struct {
	Name  string
	Shape []int
	Data  []float64
}
