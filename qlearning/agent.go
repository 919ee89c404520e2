package qlearning

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// Default hyperparameters, matching the values the shipped weights were
// trained with.
const (
	DefaultHidden       = 256
	DefaultLearningRate = 0.001
	DefaultGamma        = 0.9
	DefaultBatchSize    = 1000
	DefaultMemorySize   = 100_000
)

// Epsilon schedule: the exploration percentage starts at epsilonStart,
// drops by one point per finished game and floors at epsilonFloor, out of
// a draw range of epsilonScale. Exploration never fully vanishes during
// training.
const (
	epsilonStart = 80
	epsilonFloor = 5
	epsilonScale = 200
)

// AgentConfig collects the knobs for a learning agent.
type AgentConfig struct {
	Inputs       int
	Outputs      int
	Hidden       int
	LearningRate float64
	Gamma        float64
	BatchSize    int
	MemorySize   int
}

// Agent couples the network, the trainer and the replay buffer behind an
// epsilon-greedy action selector.
type Agent struct {
	Net     *Network
	Trainer *Trainer
	Memory  *ReplayBuffer

	// GamesPlayed drives the epsilon schedule. It is not persisted with
	// the weights, so a resumed run restarts the schedule from the top.
	GamesPlayed int

	batchSize int
	eval      bool
	rng       *rand.Rand
}

// NewAgent builds an agent with freshly initialized weights.
func NewAgent(cfg AgentConfig, rng *rand.Rand) *Agent {
	net := NewNetwork(cfg.Inputs, cfg.Hidden, cfg.Outputs)
	return &Agent{
		Net:       net,
		Trainer:   NewTrainer(net, cfg.LearningRate, cfg.Gamma),
		Memory:    NewReplayBuffer(cfg.MemorySize, rng),
		batchSize: cfg.BatchSize,
		rng:       rng,
	}
}

// SetEval switches the agent between training and evaluation mode. In
// evaluation mode epsilon is forced to zero: the policy always exploits.
func (a *Agent) SetEval(eval bool) {
	a.eval = eval
}

// Epsilon returns the current exploration percentage.
func (a *Agent) Epsilon() float64 {
	if a.eval {
		return 0
	}
	eps := epsilonStart - a.GamesPlayed
	if eps < epsilonFloor {
		eps = epsilonFloor
	}
	return float64(eps)
}

// SelectAction picks a one-hot action for the given state: a uniformly
// random one with probability epsilon/epsilonScale, the network's argmax
// otherwise.
func (a *Agent) SelectAction(state []float64) ([]float64, error) {
	action := make([]float64, a.Net.Outputs)

	if !a.eval && a.rng.Intn(epsilonScale) < int(a.Epsilon()) {
		action[a.rng.Intn(a.Net.Outputs)] = 1
		return action, nil
	}

	qvals, err := a.Net.Forward(state)
	if err != nil {
		return nil, err
	}
	action[floats.MaxIdx(qvals)] = 1
	return action, nil
}

// Remember records a transition in the replay buffer.
func (a *Agent) Remember(t Transition) {
	a.Memory.Push(t)
}

// TrainShortMemory applies the TD update to a single transition.
func (a *Agent) TrainShortMemory(t Transition) error {
	return a.Trainer.TrainStep([]Transition{t})
}

// TrainLongMemory applies the TD update to a batch sampled from the replay
// buffer. With fewer stored transitions than the batch size, the whole
// buffer is used.
func (a *Agent) TrainLongMemory() error {
	return a.Trainer.TrainStep(a.Memory.Sample(a.batchSize))
}

// FinishEpisode advances the epsilon schedule by one game.
func (a *Agent) FinishEpisode() {
	a.GamesPlayed++
}
