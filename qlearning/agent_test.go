package qlearning

import (
	"testing"

	"golang.org/x/exp/rand"
)

func newTestAgent(seed uint64) *Agent {
	return NewAgent(AgentConfig{
		Inputs:       11,
		Outputs:      3,
		Hidden:       8,
		LearningRate: 0.001,
		Gamma:        0.9,
		BatchSize:    16,
		MemorySize:   64,
	}, rand.New(rand.NewSource(seed)))
}

func TestEpsilonSchedule(t *testing.T) {
	a := newTestAgent(1)

	if got := a.Epsilon(); got != 80 {
		t.Errorf("fresh agent: expected epsilon 80, got %v", got)
	}

	a.GamesPlayed = 40
	if got := a.Epsilon(); got != 40 {
		t.Errorf("after 40 games: expected epsilon 40, got %v", got)
	}

	a.GamesPlayed = 75
	if got := a.Epsilon(); got != 5 {
		t.Errorf("after 75 games: expected epsilon 5, got %v", got)
	}

	// Exploration floors at 5 and never vanishes during training.
	a.GamesPlayed = 10_000
	if got := a.Epsilon(); got != 5 {
		t.Errorf("after 10000 games: expected floor epsilon 5, got %v", got)
	}
}

func TestEvalModeForcesExploitation(t *testing.T) {
	a := newTestAgent(1)
	a.SetEval(true)

	if got := a.Epsilon(); got != 0 {
		t.Errorf("eval mode: expected epsilon 0, got %v", got)
	}

	state := make([]float64, 11)
	state[4] = 1

	first, err := a.SelectAction(state)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := a.SelectAction(state)
		if err != nil {
			t.Fatal(err)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("eval action changed between calls: %v then %v", first, again)
			}
		}
	}
}

func TestSelectActionIsOneHot(t *testing.T) {
	a := newTestAgent(3)
	state := make([]float64, 11)

	for i := 0; i < 20; i++ {
		action, err := a.SelectAction(state)
		if err != nil {
			t.Fatal(err)
		}
		if len(action) != 3 {
			t.Fatalf("expected 3-vector, got length %d", len(action))
		}
		hot := 0
		for _, v := range action {
			switch v {
			case 1:
				hot++
			case 0:
			default:
				t.Fatalf("non-binary action entry in %v", action)
			}
		}
		if hot != 1 {
			t.Fatalf("expected exactly one hot entry, got %v", action)
		}
	}
}

func TestRememberFeedsReplayBuffer(t *testing.T) {
	a := newTestAgent(1)

	for i := 0; i < 10; i++ {
		a.Remember(Transition{
			State:     make([]float64, 11),
			Action:    []float64{1, 0, 0},
			Reward:    float64(i),
			NextState: make([]float64, 11),
		})
	}
	if a.Memory.Len() != 10 {
		t.Errorf("expected 10 remembered transitions, got %d", a.Memory.Len())
	}
}
