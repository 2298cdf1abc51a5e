package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/fblearn/agent/fb"
	"github.com/samuelfneumann/fblearn/environment/continuousworld"
	"github.com/samuelfneumann/fblearn/render"
)

// Evaluation is the result of NTestRollouts evaluation episodes
type Evaluation struct {
	Success  float64 // Fraction of episodes reaching the goal
	Distance float64 // Mean Chebyshev distance of final observations to goals

	Trajectories []render.Trajectory
}

// actor selects an action for obs given the embedding of the goal
type actor func(obs, w []float64) (int, error)

// Evaluate runs NTestRollouts episodes acting epsilon-greedily with
// respect to the embedding B(goal) of each episode's goal
func (t *Trainer) Evaluate() (Evaluation, error) {
	eval, err := t.evaluate(func() (actor, error) {
		return func(obs, w []float64) (int, error) {
			return t.agent.ActEGreedy(obs, w, t.config.EvalEps)
		}, nil
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate: %v", err)
	}
	return eval, nil
}

// EvaluateGPI runs NTestRollouts episodes acting epsilon-greedily by
// generalized policy improvement over NumGPI training embeddings, freshly
// sampled for each episode, scored under the embedding B(goal) of the
// episode's goal
func (t *Trainer) EvaluateGPI() (Evaluation, error) {
	eval, err := t.evaluate(func() (actor, error) {
		wTrain, err := t.trainingEmbeddings(t.config.NumGPI)
		if err != nil {
			return nil, err
		}
		return func(obs, w []float64) (int, error) {
			return t.agent.ActGPIEGreedy(obs, wTrain, w, t.config.EvalEps)
		}, nil
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluateGPI: %v", err)
	}
	return eval, nil
}

// trainingEmbeddings samples n embeddings the way embeddings are
// sampled for training rollouts. Goal-oriented embeddings encode goals
// sampled from the replay store with replacement.
func (t *Trainer) trainingEmbeddings(n int) (*mat.Dense, error) {
	if t.config.Agent.Sampling != fb.GoalOriented {
		return t.agent.SampleEmbeddings(n, nil)
	}

	b, err := t.store.Sample(n)
	if err != nil {
		return nil, err
	}
	return t.agent.SampleEmbeddings(n, b.Goal)
}

// evaluate runs NTestRollouts episodes. newActor is called at the start
// of each episode. Episodes end when a positive reward is received,
// when the environment ends the episode or after MaxTimesteps steps.
func (t *Trainer) evaluate(newActor func() (actor, error)) (Evaluation,
	error) {
	n := t.config.NTestRollouts
	success := make([]float64, n)
	distance := make([]float64, n)
	trajectories := make([]render.Trajectory, n)

	for i := 0; i < n; i++ {
		step, err := t.env.Reset()
		if err != nil {
			return Evaluation{}, err
		}
		goal := t.env.Goal()

		w, err := t.agent.Embed(goal)
		if err != nil {
			return Evaluation{}, err
		}
		act, err := newActor()
		if err != nil {
			return Evaluation{}, err
		}

		obs := step.Observation
		visited := [][]float64{obs}
		reward := 0.0
		for j := 0; j < t.config.MaxTimesteps; j++ {
			action, err := act(obs, w.RawRowView(0))
			if err != nil {
				return Evaluation{}, err
			}

			step, done, err := t.env.Step(action)
			if err != nil {
				return Evaluation{}, err
			}
			obs, reward = step.Observation, step.Reward
			visited = append(visited, obs)

			if reward > 0 || done {
				break
			}
		}

		if reward > 0 {
			success[i] = 1
		}
		distance[i] = continuousworld.Distance(obs, goal)
		trajectories[i] = render.Trajectory{
			Observations: visited,
			Goal:         goal,
			Success:      reward > 0,
		}
	}

	return Evaluation{
		Success:      stat.Mean(success, nil),
		Distance:     stat.Mean(distance, nil),
		Trajectories: trajectories,
	}, nil
}
