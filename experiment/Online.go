package experiment

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samuelfneumann/fblearn/replay"
	ts "github.com/samuelfneumann/fblearn/timestep"
)

// rollout runs the agent online for MaxTimesteps steps with a single
// embedding sampled at the start of the rollout, adding every
// transition to the replay store. Episodes that end during the rollout
// are reset immediately and the embedding is kept.
func (t *Trainer) rollout() error {
	step, err := t.env.Reset()
	if err != nil {
		return fmt.Errorf("rollout: could not reset environment: %v", err)
	}
	t.track(step)

	w, err := t.agent.SampleEmbeddings(1, t.env.Goal())
	if err != nil {
		return fmt.Errorf("rollout: %v", err)
	}
	embedding := w.RawRowView(0)

	obs := step.Observation
	for i := 0; i < t.config.MaxTimesteps; i++ {
		action, err := t.agent.ActEGreedy(obs, embedding, t.config.UpdateEps)
		if err != nil {
			return fmt.Errorf("rollout: %v", err)
		}

		next, done, err := t.env.Step(action)
		if err != nil {
			return fmt.Errorf("rollout: %v", err)
		}
		t.track(next)

		err = t.store.Add(replay.Transition{
			Obs:     obs,
			Goal:    next.Goal,
			Action:  action,
			Reward:  next.Reward,
			NextObs: next.Observation,
			Done:    done,
		})
		if err != nil {
			return fmt.Errorf("rollout: %v", err)
		}

		if !done {
			obs = next.Observation
			continue
		}

		step, err = t.env.Reset()
		if err != nil {
			return fmt.Errorf("rollout: could not reset environment: %v",
				err)
		}
		t.track(step)
		obs = step.Observation
	}
	return nil
}

// update performs a single update of the agent on two independent
// batches sampled from the replay store. The returned boolean reports
// whether an update was performed.
func (t *Trainer) update() (float64, float64, bool, error) {
	batchSize := t.config.Agent.BatchSize
	if stored := t.store.Capacity(); stored < batchSize {
		t.log.WithFields(logrus.Fields{
			"stored": stored,
			"batch":  batchSize,
		}).Debug("skipping update: not enough transitions")
		return 0, 0, false, nil
	}

	b, err := t.store.Sample(batchSize)
	if err != nil {
		return 0, 0, false, fmt.Errorf("update: %v", err)
	}
	other, err := t.store.Sample(batchSize)
	if err != nil {
		return 0, 0, false, fmt.Errorf("update: %v", err)
	}

	loss, entropy, err := t.agent.Update(b, other)
	if err != nil {
		return 0, 0, false, fmt.Errorf("update: %v", err)
	}
	return loss, entropy, true, nil
}

// track tracks the current timestep by sending it to each tracker
func (t *Trainer) track(step ts.TimeStep) {
	for _, tr := range t.trackers {
		tr.Track(step)
	}
}
