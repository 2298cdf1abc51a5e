package fb

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/fblearn/network"
)

// runner runs the forward pass of a network in its own graph
type runner struct {
	net     network.NeuralNet
	vm      G.VM
	version int
}

func newRunner(net network.NeuralNet) *runner {
	return &runner{net: net, vm: G.NewTapeMachine(net.Graph()), version: -1}
}

// run returns a copy of the network output for the row-major input
func (r *runner) run(input []float64) ([]float64, error) {
	if err := r.net.SetInput(input); err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}
	defer r.vm.Reset()

	if err := r.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}

	out := r.net.Output().Data().([]float64)
	return append([]float64(nil), out...), nil
}

// runnerCache holds clones of a source network for each batch size
// that has been requested. Clones are synchronised with the source
// lazily whenever the source's version has changed.
type runnerCache struct {
	source  network.NeuralNet
	version int
	runners map[int]*runner
}

func newRunnerCache(source network.NeuralNet) *runnerCache {
	return &runnerCache{source: source, runners: make(map[int]*runner)}
}

// changed records that the weights of the source have changed
func (c *runnerCache) changed() {
	c.version++
}

// get returns a runner for batch inputs whose weights equal the
// source's
func (c *runnerCache) get(batch int) (*runner, error) {
	r, ok := c.runners[batch]
	if !ok {
		net, err := c.source.CloneWithBatch(batch)
		if err != nil {
			return nil, fmt.Errorf("get: could not clone network: %v", err)
		}
		r = newRunner(net)
		r.version = c.version
		c.runners[batch] = r
	}

	if r.version != c.version {
		if err := r.net.Set(c.source); err != nil {
			return nil, fmt.Errorf("get: could not sync network: %v", err)
		}
		r.version = c.version
	}
	return r, nil
}

// run runs the source network on a batch of batch inputs
func (c *runnerCache) run(input []float64, batch int) ([]float64, error) {
	r, err := c.get(batch)
	if err != nil {
		return nil, err
	}
	return r.run(input)
}

func (c *runnerCache) close() {
	for _, r := range c.runners {
		r.vm.Close()
	}
}
