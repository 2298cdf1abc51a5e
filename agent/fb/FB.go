// Package fb implements the Forward-Backward (FB) representation agent.
//
// The agent learns a Forward network F(s, a, w) ∈ R^D and a Backward
// network B(s) ∈ R^D whose product F(s, a, w)·B(s') approximates the
// successor measure of the policy that is greedy with respect to
// Q(s, a) = F(s, a, w)·w. Any goal g then induces the task embedding
// w = B(g).
package fb

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/fblearn/environment"
	"github.com/samuelfneumann/fblearn/featurize"
	"github.com/samuelfneumann/fblearn/network"
	"github.com/samuelfneumann/fblearn/replay"
	"github.com/samuelfneumann/fblearn/utils/matutils"
)

// Snapshot is a copy of the weights of the online networks of an Agent
type Snapshot struct {
	Forward  []network.Param
	Backward []network.Param
}

// Diagnostics reports values computed during the last update
type Diagnostics struct {
	// Mean of the diagonal and off-diagonal entries of Z_next
	ZNextDiag    float64
	ZNextOffDiag float64

	// Mean of B(s)·B(s')ᵀ between the two batches
	BackwardCross float64
}

// Agent implements the FB agent. Agent is not safe for concurrent use.
type Agent struct {
	config     Config
	featurizer featurize.Featurizer
	obsDim     int
	features   int
	numActions int

	train *trainGraph

	// Targets are separate networks with the batch size of updates
	forwardTarget  network.NeuralNet
	backwardTarget network.NeuralNet

	// Runners mirroring the online and target networks for inference
	forward         *runnerCache
	backward        *runnerCache
	forwardTargets  *runnerCache
	backwardTargets *runnerCache

	sampler  *EmbeddingSampler
	samplers map[Sampling]func(n int, goals []float64) (*mat.Dense, error)
	rng      *rand.Rand

	updates     int
	diagnostics Diagnostics
}

// New creates a new FB agent for environment e. Observations and goals
// of e are featurized by f before being passed to the networks.
func New(e env.Environment, f featurize.Featurizer, c Config,
	seed uint64) (*Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("new: cannot use non-discrete actions")
	}
	numActions := e.ActionSpec().N
	if numActions < 1 {
		return nil, fmt.Errorf("new: environment must have actions"+
			"\n\twant(>0)\n\thave(%v)", numActions)
	}

	train, err := newTrainGraph(c, f.Features(), numActions)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Targets start as hard copies of the online networks
	forwardTarget, err := train.forward.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create forward target: %v",
			err)
	}
	backwardTarget, err := train.backward.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create backward target: %v",
			err)
	}

	sampler, err := NewEmbeddingSampler(c.EmbedDim, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	a := &Agent{
		config:          c,
		featurizer:      f,
		obsDim:          e.ObservationSpec().Dims(),
		features:        f.Features(),
		numActions:      numActions,
		train:           train,
		forwardTarget:   forwardTarget,
		backwardTarget:  backwardTarget,
		forward:         newRunnerCache(train.forward),
		backward:        newRunnerCache(train.backward),
		forwardTargets:  newRunnerCache(forwardTarget),
		backwardTargets: newRunnerCache(backwardTarget),
		sampler:         sampler,
		rng:             rand.New(rand.NewSource(seed + 1)),
	}
	a.samplers = map[Sampling]func(int, []float64) (*mat.Dense, error){
		GoalOriented: a.embedGoals,
		UniformBall: func(n int, _ []float64) (*mat.Dense, error) {
			return a.sampler.UniformBall(n)
		},
		CauchyBall: func(n int, _ []float64) (*mat.Dense, error) {
			return a.sampler.CauchyBall(n)
		},
	}

	if err := a.HardUpdateTargets(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return a, nil
}

// Config returns the configuration of the agent
func (a *Agent) Config() Config {
	return a.config
}

// NumActions returns the number of actions the agent chooses from
func (a *Agent) NumActions() int {
	return a.numActions
}

// EmbedDim returns the dimension of embeddings
func (a *Agent) EmbedDim() int {
	return a.config.EmbedDim
}

// Updates returns the number of gradient steps taken
func (a *Agent) Updates() int {
	return a.updates
}

// Diagnostics returns values computed during the last update
func (a *Agent) Diagnostics() Diagnostics {
	return a.diagnostics
}

// featurize featurizes a row-major batch of observations of the
// environment and returns the features and the number of rows
func (a *Agent) featurize(obs []float64) ([]float64, int, error) {
	if len(obs) == 0 || len(obs)%a.obsDim != 0 {
		return nil, 0, fmt.Errorf("featurize: invalid observation batch"+
			"\n\twant(multiple of %v values)\n\thave(%v)", a.obsDim,
			len(obs))
	}
	return a.featurizer.TransformBatch(obs, a.obsDim), len(obs) / a.obsDim,
		nil
}

// Embed returns the embeddings B(goal) of a row-major batch of goals
// using the online Backward network
func (a *Agent) Embed(goals []float64) (*mat.Dense, error) {
	feat, n, err := a.featurize(goals)
	if err != nil {
		return nil, fmt.Errorf("embed: %v", err)
	}

	w, err := a.backward.run(feat, n)
	if err != nil {
		return nil, fmt.Errorf("embed: %v", err)
	}
	return mat.NewDense(n, a.config.EmbedDim, w), nil
}

func (a *Agent) embedGoals(n int, goals []float64) (*mat.Dense, error) {
	if len(goals) != n*a.obsDim {
		return nil, fmt.Errorf("embedGoals: need one goal per embedding"+
			"\n\twant(%v values)\n\thave(%v)", n*a.obsDim, len(goals))
	}
	return a.Embed(goals)
}

// SampleEmbeddings returns n embeddings, one per row, sampled with the
// configured Sampling. Goal-oriented sampling embeds the n row-major
// goals; other strategies ignore goals.
func (a *Agent) SampleEmbeddings(n int, goals []float64) (*mat.Dense, error) {
	if n < 1 {
		return nil, fmt.Errorf("sampleEmbeddings: number of embeddings "+
			"must be positive\n\twant(>0)\n\thave(%v)", n)
	}
	return a.samplers[a.config.Sampling](n, goals)
}

// latentValues returns z[s, a] = Σ_d F(obs_s, w_s)[d, a] w_s[d] from the
// online or target Forward network, for a row-major batch of
// observations with one embedding per observation
func (a *Agent) latentValues(obs []float64, w *mat.Dense,
	target bool) (*mat.Dense, error) {
	feat, n, err := a.featurize(obs)
	if err != nil {
		return nil, err
	}
	if rows, cols := w.Dims(); rows != n || cols != a.config.EmbedDim {
		return nil, fmt.Errorf("latentValues: invalid embeddings"+
			"\n\twant(%v×%v)\n\thave(%v×%v)", n, a.config.EmbedDim, rows,
			cols)
	}

	forward := a.forward
	if target {
		forward = a.forwardTargets
	}
	f, err := forward.run(concatRows(feat, a.features, rowMajor(w),
		a.config.EmbedDim), n)
	if err != nil {
		return nil, err
	}
	return latent(f, w, a.numActions), nil
}

// Act returns the greedy action in obs for the embedding w
func (a *Agent) Act(obs, w []float64) (int, error) {
	z, err := a.latentValues(obs, mat.NewDense(1, len(w), w), false)
	if err != nil {
		return 0, fmt.Errorf("act: %v", err)
	}
	return Argmax(z)[0], nil
}

// ActEGreedy returns a random action with probability eps and the
// greedy action for embedding w otherwise
func (a *Agent) ActEGreedy(obs, w []float64, eps float64) (int, error) {
	return EGreedy(a.rng, eps, a.numActions, func() (int, error) {
		return a.Act(obs, w)
	})
}

// gpiValues returns, for each of the n row-major observations, the
// value of each action maximised over the policies of the embeddings
// in wTrain, where values are scored under wEval:
//
//	z[s, a] = max_g Σ_d F(obs_s, wTrain_g)[d, a] wEval[d]
func (a *Agent) gpiValues(obs []float64, wTrain *mat.Dense,
	wEval []float64) (*mat.Dense, error) {
	numGPI, dim := wTrain.Dims()
	if dim != a.config.EmbedDim || len(wEval) != dim {
		return nil, fmt.Errorf("gpiValues: invalid embedding dimension"+
			"\n\twant(%v)\n\thave(%v, %v)", a.config.EmbedDim, dim,
			len(wEval))
	}

	feat, n, err := a.featurize(obs)
	if err != nil {
		return nil, err
	}

	// Row s*G + g is [feat_s | wTrain_g]
	input := make([]float64, 0, n*numGPI*(a.features+dim))
	for s := 0; s < n; s++ {
		for g := 0; g < numGPI; g++ {
			input = append(input, feat[s*a.features:(s+1)*a.features]...)
			input = append(input, wTrain.RawRowView(g)...)
		}
	}
	f, err := a.forward.run(input, n*numGPI)
	if err != nil {
		return nil, err
	}

	eval := mat.NewDense(n*numGPI, dim, nil)
	for i := 0; i < n*numGPI; i++ {
		eval.SetRow(i, wEval)
	}
	zAll := latent(f, eval, a.numActions)

	z := mat.NewDense(n, a.numActions, nil)
	for s := 0; s < n; s++ {
		row := z.RawRowView(s)
		copy(row, zAll.RawRowView(s*numGPI))
		for g := 1; g < numGPI; g++ {
			for j, v := range zAll.RawRowView(s*numGPI + g) {
				if v > row[j] {
					row[j] = v
				}
			}
		}
	}
	return z, nil
}

// ActGPI returns the action selected by generalized policy improvement
// over the policies of the embeddings in wTrain, scored under wEval
func (a *Agent) ActGPI(obs []float64, wTrain *mat.Dense,
	wEval []float64) (int, error) {
	z, err := a.gpiValues(obs, wTrain, wEval)
	if err != nil {
		return 0, fmt.Errorf("actGPI: %v", err)
	}
	return Argmax(z)[0], nil
}

// ActGPIEGreedy returns a random action with probability eps and the
// GPI action otherwise
func (a *Agent) ActGPIEGreedy(obs []float64, wTrain *mat.Dense,
	wEval []float64, eps float64) (int, error) {
	return EGreedy(a.rng, eps, a.numActions, func() (int, error) {
		return a.ActGPI(obs, wTrain, wEval)
	})
}

// GPIPolicy returns the policy extracted from the GPI values of a
// row-major batch of observations
func (a *Agent) GPIPolicy(obs []float64, wTrain *mat.Dense, wEval []float64,
	policyType PolicyType, temp float64) (*mat.Dense, error) {
	z, err := a.gpiValues(obs, wTrain, wEval)
	if err != nil {
		return nil, fmt.Errorf("gpiPolicy: %v", err)
	}
	return ExtractPolicy(z, policyType, temp)
}

// Policy returns the policy extracted from the latent values of a
// row-major batch of observations with one embedding per observation,
// using either the online or the target Forward network
func (a *Agent) Policy(obs []float64, w *mat.Dense, policyType PolicyType,
	temp float64, target bool) (*mat.Dense, error) {
	z, err := a.latentValues(obs, w, target)
	if err != nil {
		return nil, fmt.Errorf("policy: %v", err)
	}
	return ExtractPolicy(z, policyType, temp)
}

// prepare computes all values needed by the training graph for the
// primary batch b and the other batch, together with the entropy of
// the bootstrap policy
func (a *Agent) prepare(b, other replay.Batch) (lossInputs, float64,
	error) {
	size, dim := a.config.BatchSize, a.config.EmbedDim
	if b.Size != size || other.Size != size {
		return lossInputs{}, 0, fmt.Errorf("prepare: invalid batch size"+
			"\n\twant(%v)\n\thave(%v, %v)", size, b.Size, other.Size)
	}

	feat, _, err := a.featurize(b.Obs)
	if err != nil {
		return lossInputs{}, 0, err
	}
	featNext, _, err := a.featurize(b.NextObs)
	if err != nil {
		return lossInputs{}, 0, err
	}
	featOther, _, err := a.featurize(other.Obs)
	if err != nil {
		return lossInputs{}, 0, err
	}

	w, err := a.SampleEmbeddings(size, b.Goal)
	if err != nil {
		return lossInputs{}, 0, err
	}

	// Bootstrap target from the target networks
	fTarget, err := a.forwardTargets.run(concatRows(featNext, a.features,
		rowMajor(w), dim), size)
	if err != nil {
		return lossInputs{}, 0, err
	}
	zTarget := latent(fTarget, w, a.numActions)

	var (
		fNext   *mat.Dense
		entropy float64
	)
	if a.config.SoftUpdate {
		pi, err := ExtractPolicy(zTarget, Boltzmann, a.config.Temp)
		if err != nil {
			return lossInputs{}, 0, err
		}
		entropy = NaNMean(Entropy(pi))
		fNext = expectation(fTarget, pi, dim)
	} else {
		fNext = gather(fTarget, Argmax(zTarget), dim, a.numActions)
	}

	bNextData, err := a.backwardTargets.run(featOther, size)
	if err != nil {
		return lossInputs{}, 0, err
	}
	zNext := cross(fNext, mat.NewDense(size, dim, bNextData))

	a.diagnostics = Diagnostics{
		ZNextDiag:    mat.Trace(zNext) / float64(size),
		ZNextOffDiag: OffDiagonalMean(zNext),
	}
	zNext.Scale(a.config.Gamma, zNext)

	// Values of the online Backward network for stop-gradients
	bData, err := a.backward.run(feat, size)
	if err != nil {
		return lossInputs{}, 0, err
	}
	bOtherData, err := a.backward.run(featOther, size)
	if err != nil {
		return lossInputs{}, 0, err
	}
	bb := cross(mat.NewDense(size, dim, bData),
		mat.NewDense(size, dim, bOtherData))
	a.diagnostics.BackwardCross = matutils.Mean(bb)

	return lossInputs{
		forwardInput:   concatRows(feat, a.features, rowMajor(w), dim),
		backwardInput:  feat,
		otherInput:     featOther,
		actionMask:     actionMask(b.Action, dim, a.numActions),
		gammaZNext:     zNext.RawMatrix().Data,
		bDetached:      bData,
		bOtherDetached: bOtherData,
		rowMean:        matutils.RowMean(bb).RawVector().Data,
	}, entropy, nil
}

// Loss returns the FB loss and bootstrap policy entropy of the primary
// batch b against the other batch without changing any weights
func (a *Agent) Loss(b, other replay.Batch) (float64, float64, error) {
	in, entropy, err := a.prepare(b, other)
	if err != nil {
		return 0, 0, fmt.Errorf("loss: %v", err)
	}

	loss, err := a.train.run(in, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("loss: %v", err)
	}
	return loss, entropy, nil
}

// Update takes a single gradient step on the FB loss of the primary
// batch b against the independently sampled other batch. Both online
// networks are updated jointly. The loss before the step and the
// entropy of the bootstrap policy (0 for greedy bootstraps) are
// returned.
func (a *Agent) Update(b, other replay.Batch) (float64, float64, error) {
	in, entropy, err := a.prepare(b, other)
	if err != nil {
		return 0, 0, fmt.Errorf("update: %v", err)
	}

	loss, err := a.train.run(in, a.config.Solver)
	if err != nil {
		return 0, 0, fmt.Errorf("update: %v", err)
	}

	a.updates++
	a.forward.changed()
	a.backward.changed()
	return loss, entropy, nil
}

// SoftUpdateTargets moves the target networks towards the online
// networks: target = polyak * target + (1 - polyak) * online
func (a *Agent) SoftUpdateTargets() error {
	if err := a.forwardTarget.Polyak(a.train.forward,
		a.config.Polyak); err != nil {
		return fmt.Errorf("softUpdateTargets: %v", err)
	}
	if err := a.backwardTarget.Polyak(a.train.backward,
		a.config.Polyak); err != nil {
		return fmt.Errorf("softUpdateTargets: %v", err)
	}
	a.forwardTargets.changed()
	a.backwardTargets.changed()
	return nil
}

// HardUpdateTargets copies the online networks into the target
// networks
func (a *Agent) HardUpdateTargets() error {
	if err := a.forwardTarget.Set(a.train.forward); err != nil {
		return fmt.Errorf("hardUpdateTargets: %v", err)
	}
	if err := a.backwardTarget.Set(a.train.backward); err != nil {
		return fmt.Errorf("hardUpdateTargets: %v", err)
	}
	a.forwardTargets.changed()
	a.backwardTargets.changed()
	return nil
}

// Snapshot returns a copy of the weights of the online networks
func (a *Agent) Snapshot() Snapshot {
	return Snapshot{
		Forward:  a.train.forward.Params(),
		Backward: a.train.backward.Params(),
	}
}

// TargetSnapshot returns a copy of the weights of the target networks
func (a *Agent) TargetSnapshot() Snapshot {
	return Snapshot{
		Forward:  a.forwardTarget.Params(),
		Backward: a.backwardTarget.Params(),
	}
}

// Restore sets the weights of the online networks from a Snapshot and
// copies them into the target networks
func (a *Agent) Restore(s Snapshot) error {
	if err := a.train.forward.SetParams(s.Forward); err != nil {
		return fmt.Errorf("restore: forward network: %v", err)
	}
	if err := a.train.backward.SetParams(s.Backward); err != nil {
		return fmt.Errorf("restore: backward network: %v", err)
	}
	a.forward.changed()
	a.backward.changed()
	return a.HardUpdateTargets()
}

// Close releases the resources held by the agent's computational graphs
func (a *Agent) Close() error {
	a.forward.close()
	a.backward.close()
	a.forwardTargets.close()
	a.backwardTargets.close()
	return a.train.vm.Close()
}
