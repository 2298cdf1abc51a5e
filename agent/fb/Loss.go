package fb

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/fblearn/network"
)

// trainGraph holds the online Forward and Backward networks together
// with the FB loss in a single computational graph.
//
// Gradients are stopped by feeding values computed in separate forward
// passes into input nodes, which are never learnable:
//
//	gammaZNext     = γ f_next b_nextᵀ             from the target networks
//	bDetached      = sg(b)
//	bOtherDetached = sg(b_other)
//	rowMean[s]     = mean_t sg(<b_s, b_other_t>)
type trainGraph struct {
	g        *G.ExprGraph
	forward  network.NeuralNet
	backward network.NeuralNet

	otherInput     *G.Node
	actionMask     *G.Node
	gammaZNext     *G.Node
	bDetached      *G.Node
	bOtherDetached *G.Node
	rowMean        *G.Node

	loss    *G.Node
	lossVal G.Value

	vm    G.VM
	model []G.ValueGrad
}

// newTrainGraph creates the online networks and adds the FB loss to
// their graph:
//
//	Z      = f b_otherᵀ
//	Z_diag = <f_s, b_s>
//	loss   = mean(0.5 (Z - γ Z_next)²) - mean(Z_diag)
//	       + regCoef (mean_s(<b_s, sg(b_s)> rowMean_s) - mean(b sg(b_other)ᵀ))
func newTrainGraph(c Config, features, numActions int) (*trainGraph, error) {
	g := G.NewGraph()
	batch, dim := c.BatchSize, c.EmbedDim
	init := c.InitWFn.InitWFn()

	forward, err := network.NewMLP(g, "fwd", features+dim, batch,
		dim*numActions, c.ForwardLayers, trueSlice(len(c.ForwardLayers)),
		init, c.ForwardActivations)
	if err != nil {
		return nil, fmt.Errorf("newTrainGraph: could not create forward "+
			"network: %v", err)
	}

	backward, err := network.NewMLP(g, "bwd", features, batch, dim,
		c.BackwardLayers, trueSlice(len(c.BackwardLayers)), init,
		c.BackwardActivations)
	if err != nil {
		return nil, fmt.Errorf("newTrainGraph: could not create backward "+
			"network: %v", err)
	}

	matrix := func(name string, rows, cols int) *G.Node {
		return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols),
			G.WithName(name), G.WithInit(G.Zeroes()))
	}
	t := &trainGraph{
		g:              g,
		forward:        forward,
		backward:       backward,
		otherInput:     matrix("otherInput", batch, features),
		actionMask:     matrix("actionMask", batch, dim*numActions),
		gammaZNext:     matrix("gammaZNext", batch, batch),
		bDetached:      matrix("bDetached", batch, dim),
		bOtherDetached: matrix("bOtherDetached", batch, dim),
		rowMean: G.NewVector(g, tensor.Float64, G.WithShape(batch),
			G.WithName("rowMean"), G.WithInit(G.Zeroes())),
	}

	collapseValue := tensor.New(
		tensor.WithShape(dim*numActions, dim),
		tensor.WithBacking(collapse(dim, numActions)),
	)
	collapseNode := G.NewMatrix(g, tensor.Float64,
		G.WithShape(dim*numActions, dim), G.WithName("collapse"),
		G.WithValue(collapseValue))

	// Online predictions
	b := backward.Prediction()
	bOther, err := backward.Fwd(t.otherInput)
	if err != nil {
		return nil, fmt.Errorf("newTrainGraph: %v", err)
	}
	f := G.Must(G.HadamardProd(forward.Prediction(), t.actionMask))
	f = G.Must(G.Mul(f, collapseNode))

	// Primary loss
	zDiag := G.Must(G.Sum(G.Must(G.HadamardProd(f, b)), 1))
	z := G.Must(G.Mul(f, G.Must(G.Transpose(bOther))))
	td := G.Must(G.Square(G.Must(G.Sub(z, t.gammaZNext))))
	primary := G.Must(G.Mul(G.NewConstant(0.5), G.Must(G.Mean(td))))
	primary = G.Must(G.Sub(primary, G.Must(G.Mean(zDiag))))

	// Orthonormality regulariser
	self := G.Must(G.Sum(G.Must(G.HadamardProd(b, t.bDetached)), 1))
	reg := G.Must(G.Mean(G.Must(G.HadamardProd(self, t.rowMean))))
	crossDetached := G.Must(G.Mul(b, G.Must(G.Transpose(t.bOtherDetached))))
	reg = G.Must(G.Sub(reg, G.Must(G.Mean(crossDetached))))

	t.loss = G.Must(G.Add(primary,
		G.Must(G.Mul(G.NewConstant(c.RegCoef), reg))))
	G.Read(t.loss, &t.lossVal)

	learnables := append(append(G.Nodes{}, forward.Learnables()...),
		backward.Learnables()...)
	if _, err := G.Grad(t.loss, learnables...); err != nil {
		return nil, fmt.Errorf("newTrainGraph: could not compute "+
			"gradient: %v", err)
	}

	t.model = append(append([]G.ValueGrad{}, forward.Model()...),
		backward.Model()...)
	t.vm = G.NewTapeMachine(g, G.BindDualValues(learnables...))

	return t, nil
}

// lossInputs are the values fed to a trainGraph for a single update.
// All slices are row-major.
type lossInputs struct {
	forwardInput  []float64 // [S, features + D]
	backwardInput []float64 // [S, features]
	otherInput    []float64 // [S, features]
	actionMask    []float64 // [S, D*A]

	gammaZNext     []float64 // [S, S]
	bDetached      []float64 // [S, D]
	bOtherDetached []float64 // [S, D]
	rowMean        []float64 // [S]
}

// run computes the loss and its gradients with respect to the online
// networks. If s is not nil, a solver step is then taken using those
// gradients.
func (t *trainGraph) run(in lossInputs, s G.Solver) (float64, error) {
	if err := t.forward.SetInput(in.forwardInput); err != nil {
		return 0, fmt.Errorf("run: forward input: %v", err)
	}
	if err := t.backward.SetInput(in.backwardInput); err != nil {
		return 0, fmt.Errorf("run: backward input: %v", err)
	}

	lets := []struct {
		node  *G.Node
		value []float64
	}{
		{t.otherInput, in.otherInput},
		{t.actionMask, in.actionMask},
		{t.gammaZNext, in.gammaZNext},
		{t.bDetached, in.bDetached},
		{t.bOtherDetached, in.bOtherDetached},
		{t.rowMean, in.rowMean},
	}
	for _, l := range lets {
		if l.node.Shape().TotalSize() != len(l.value) {
			return 0, fmt.Errorf("run: invalid size for %v\n\twant(%v)"+
				"\n\thave(%v)", l.node.Name(), l.node.Shape().TotalSize(),
				len(l.value))
		}
		value := tensor.New(tensor.WithShape(l.node.Shape()...),
			tensor.WithBacking(l.value))
		if err := G.Let(l.node, value); err != nil {
			return 0, fmt.Errorf("run: could not set %v: %v", l.node.Name(),
				err)
		}
	}

	defer t.vm.Reset()
	if err := t.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("run: %v", err)
	}
	loss := t.lossVal.Data().(float64)

	if s != nil {
		if err := s.Step(t.model); err != nil {
			return 0, fmt.Errorf("run: could not step solver: %v", err)
		}
	}
	return loss, nil
}

func trueSlice(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}
