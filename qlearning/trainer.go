package qlearning

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Trainer applies the one-step Q-learning update to the network. The same
// rule serves both the single-transition ("short memory") path and the
// sampled batch ("long memory") path.
type Trainer struct {
	net    *Network
	solver gorgonia.Solver
	gamma  float64
}

// NewTrainer creates a trainer with an Adam solver at the given learning
// rate and a fixed discount factor.
func NewTrainer(net *Network, learningRate, gamma float64) *Trainer {
	return &Trainer{
		net:    net,
		solver: gorgonia.NewAdamSolver(gorgonia.WithLearnRate(learningRate), gorgonia.WithL2Reg(1e-6)),
		gamma:  gamma,
	}
}

// TrainStep performs one gradient step on a batch of transitions: build
// TD targets, take the MSE between them and the current predictions, and
// let the solver update the weights in place.
func (t *Trainer) TrainStep(batch []Transition) error {
	if len(batch) == 0 {
		return nil
	}

	states := make([]float64, 0, len(batch)*t.net.Inputs)
	nextStates := make([]float64, 0, len(batch)*t.net.Inputs)
	for _, tr := range batch {
		states = append(states, tr.State...)
		nextStates = append(nextStates, tr.NextState...)
	}

	pred, err := t.net.Forward(states)
	if err != nil {
		return err
	}
	next, err := t.net.Forward(nextStates)
	if err != nil {
		return err
	}

	targets, err := buildTargets(batch, pred, next, t.gamma, t.net.Outputs)
	if err != nil {
		return err
	}

	g := gorgonia.NewGraph()
	predNode, params, err := t.net.buildForward(g, states)
	if err != nil {
		return err
	}

	targetTensor := tensor.New(tensor.WithShape(len(batch), t.net.Outputs), tensor.WithBacking(targets))
	targetNode := gorgonia.NodeFromAny(g, targetTensor, gorgonia.WithName("target"))

	diff := gorgonia.Must(gorgonia.Sub(predNode, targetNode))
	loss := gorgonia.Must(gorgonia.Mean(gorgonia.Must(gorgonia.Square(diff))))

	if _, err := gorgonia.Grad(loss, params...); err != nil {
		return fmt.Errorf("gradient construction: %w", err)
	}

	vm := gorgonia.NewTapeMachine(g, gorgonia.BindDualValues(params...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return fmt.Errorf("backward pass: %w", err)
	}

	return t.solver.Step(gorgonia.NodesToValueGrads(params))
}

// buildTargets produces the training targets for a batch: a copy of the
// current predictions where, for each transition, the entry of the chosen
// action is overwritten with reward, plus gamma times the best next-state
// Q-value when the transition is not terminal.
func buildTargets(batch []Transition, pred, next []float64, gamma float64, outputs int) ([]float64, error) {
	targets := make([]float64, len(pred))
	copy(targets, pred)

	for i, tr := range batch {
		q := tr.Reward
		if !tr.Done {
			q += gamma * floats.Max(next[i*outputs:(i+1)*outputs])
		}

		idx, err := hotIndex(tr.Action)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
		targets[i*outputs+idx] = q
	}
	return targets, nil
}

// hotIndex returns the index of the single 1 in a one-hot action vector.
func hotIndex(action []float64) (int, error) {
	hot := -1
	for i, v := range action {
		switch v {
		case 0:
		case 1:
			if hot >= 0 {
				return 0, fmt.Errorf("action %v is not one-hot", action)
			}
			hot = i
		default:
			return 0, fmt.Errorf("action %v is not one-hot", action)
		}
	}
	if hot < 0 {
		return 0, fmt.Errorf("action %v is not one-hot", action)
	}
	return hot, nil
}
