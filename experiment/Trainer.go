package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/samuelfneumann/fblearn/agent/fb"
	env "github.com/samuelfneumann/fblearn/environment"
	"github.com/samuelfneumann/fblearn/experiment/checkpointer"
	"github.com/samuelfneumann/fblearn/experiment/tracker"
	"github.com/samuelfneumann/fblearn/render"
	"github.com/samuelfneumann/fblearn/replay"
	"github.com/samuelfneumann/fblearn/utils/progressbar"
)

// Files written to the save directory
const (
	ArgumentsFile     = "arguments.json"
	MonitorFile       = "score_monitor.csv"
	ModelFile         = "model.bin"
	BestModelFile     = "best_model.bin"
	CurvesFile        = "curves.png"
	ReturnFile        = "return.bin"
	EpisodeLengthFile = "episode_length.bin"
)

const (
	progressWidth = 40
	renderSize    = 512
)

// Trainer is a training session of an FB agent in an environment.
// Each epoch consists of NCycles cycles of RolloutsPerCycle rollouts
// followed by NBatches updates and a soft update of the target
// networks. After each epoch the agent is evaluated with and without
// GPI, the scores are logged and written to the monitor, and the agent
// is checkpointed.
//
// Trainer is not safe for concurrent use.
type Trainer struct {
	config Config
	env    env.Environment
	agent  *fb.Agent
	store  *replay.Store

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	monitor       *Monitor
	log           *logrus.Logger
	progress      io.Writer

	epoch  int
	scores []Score
}

// Option configures a Trainer
type Option func(*Trainer)

// WithLogger sets the logger of the Trainer
func WithLogger(l *logrus.Logger) Option {
	return func(t *Trainer) {
		t.log = l
	}
}

// WithProgress displays a progress bar of each epoch on out
func WithProgress(out io.Writer) Option {
	return func(t *Trainer) {
		t.progress = out
	}
}

// WithTrackers registers additional trackers of the training rollouts
func WithTrackers(trackers ...tracker.Tracker) Option {
	return func(t *Trainer) {
		t.trackers = append(t.trackers, trackers...)
	}
}

// NewTrainer returns a new Trainer for agent acting in e. The save
// directory is created if needed and the configuration is written to
// it.
func NewTrainer(c Config, e env.Environment, agent *fb.Agent,
	opts ...Option) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newTrainer: %v", err)
	}

	obsDim := e.ObservationSpec().Dims()
	store, err := replay.New(c.ReplayCapacity, obsDim, len(e.Goal()),
		c.Seed+2)
	if err != nil {
		return nil, fmt.Errorf("newTrainer: %v", err)
	}

	if err := os.MkdirAll(c.SaveDir, 0755); err != nil {
		return nil, errors.Wrap(err, "newTrainer: could not create save "+
			"directory")
	}
	if err := saveArguments(filepath.Join(c.SaveDir, ArgumentsFile),
		c); err != nil {
		return nil, errors.Wrap(err, "newTrainer")
	}

	monitor, err := NewMonitor(filepath.Join(c.SaveDir, MonitorFile))
	if err != nil {
		return nil, errors.Wrap(err, "newTrainer")
	}

	saver := agentSaver{agent}
	latest, err := checkpointer.NewNStep(1, saver,
		checkpointer.Filename(filepath.Join(c.SaveDir, ModelFile)))
	if err != nil {
		monitor.Close()
		return nil, fmt.Errorf("newTrainer: %v", err)
	}
	best := checkpointer.NewBest(0, saver,
		checkpointer.Filename(filepath.Join(c.SaveDir, BestModelFile)))

	t := &Trainer{
		config:        c,
		env:           e,
		agent:         agent,
		store:         store,
		checkpointers: []checkpointer.Checkpointer{latest, best},
		monitor:       monitor,
		log:           logrus.StandardLogger(),
		trackers: []tracker.Tracker{
			tracker.NewReturn(filepath.Join(c.SaveDir, ReturnFile)),
			tracker.NewEpisodeLength(filepath.Join(c.SaveDir,
				EpisodeLengthFile)),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// saveArguments writes the configuration of a session as JSON
func saveArguments(filename string, c Config) error {
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return errors.Wrap(err, "saveArguments: could not encode config")
	}
	return errors.Wrap(os.WriteFile(filename, data, 0644),
		"saveArguments: could not write config")
}

// Store returns the replay store of the session
func (t *Trainer) Store() *replay.Store {
	return t.store
}

// Scores returns the Score of each epoch run so far
func (t *Trainer) Scores() []Score {
	out := make([]Score, len(t.scores))
	copy(out, t.scores)
	return out
}

// Run runs nEpochs training epochs
func (t *Trainer) Run(nEpochs int) error {
	for i := 0; i < nEpochs; i++ {
		if err := t.runEpoch(); err != nil {
			return errors.Wrapf(err, "run: epoch %v", t.epoch)
		}
		t.epoch++
	}
	return nil
}

func (t *Trainer) runEpoch() error {
	var bar *progressbar.ManualProgressBar
	if t.progress != nil {
		bar = progressbar.NewManualProgressBar(t.progress, progressWidth,
			t.config.NCycles)
	}

	// Loss and entropy of the last update of the epoch
	loss, entropy := math.NaN(), math.NaN()
	for cycle := 0; cycle < t.config.NCycles; cycle++ {
		for i := 0; i < t.config.RolloutsPerCycle; i++ {
			if err := t.rollout(); err != nil {
				return err
			}
		}

		for i := 0; i < t.config.NBatches; i++ {
			l, e, updated, err := t.update()
			if err != nil {
				return err
			}
			if updated {
				loss, entropy = l, e
			}
		}

		if err := t.agent.SoftUpdateTargets(); err != nil {
			return err
		}

		if bar != nil {
			bar.Increment()
			bar.Display()
		}
	}
	if bar != nil {
		fmt.Fprintln(t.progress)
	}

	eval, err := t.Evaluate()
	if err != nil {
		return err
	}
	gpi, err := t.EvaluateGPI()
	if err != nil {
		return err
	}

	score := Score{
		Epoch:        t.epoch,
		EvalSuccess:  eval.Success,
		EvalDistance: eval.Distance,
		GPISuccess:   gpi.Success,
		GPIDistance:  gpi.Distance,
		Loss:         loss,
		Entropy:      entropy,
	}
	t.scores = append(t.scores, score)

	diag := t.agent.Diagnostics()
	t.log.WithFields(logrus.Fields{
		"epoch":        score.Epoch,
		"eval":         score.EvalSuccess,
		"dist":         score.EvalDistance,
		"evalGPI":      score.GPISuccess,
		"distGPI":      score.GPIDistance,
		"loss":         score.Loss,
		"entropy":      score.Entropy,
		"updates":      t.agent.Updates(),
		"zNextDiag":    diag.ZNextDiag,
		"zNextOffDiag": diag.ZNextOffDiag,
		"bCross":       diag.BackwardCross,
	}).Info("finished epoch")

	if err := t.monitor.Write(score); err != nil {
		return err
	}

	for _, c := range t.checkpointers {
		if err := c.Checkpoint(t.epoch, eval.Success); err != nil {
			return err
		}
	}

	if t.config.RenderTrajectories {
		filename := filepath.Join(t.config.SaveDir,
			fmt.Sprintf("trajectory_%v.png", t.epoch))
		if err := render.Trajectories(filename, renderSize,
			eval.Trajectories); err != nil {
			return errors.Wrap(err, "could not render trajectories")
		}
	}
	return nil
}

// Finalize saves the data of all trackers, plots the learning curves
// and closes the monitor. The Trainer must not be used after Finalize.
func (t *Trainer) Finalize() error {
	defer t.monitor.Close()

	for _, tr := range t.trackers {
		if err := tr.Save(); err != nil {
			return errors.Wrap(err, "finalize")
		}
	}

	if len(t.scores) == 0 {
		t.log.Warn("finalize: no epochs to plot")
		return nil
	}

	filename := filepath.Join(t.config.SaveDir, CurvesFile)
	return errors.Wrap(PlotScores(filename, t.scores), "finalize")
}
