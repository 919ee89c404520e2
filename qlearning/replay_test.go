package qlearning

import (
	"testing"

	"golang.org/x/exp/rand"
)

func transitionWithReward(r float64) Transition {
	return Transition{
		State:     []float64{r},
		Action:    []float64{1, 0, 0},
		Reward:    r,
		NextState: []float64{r + 1},
	}
}

func TestBufferNeverExceedsCapacity(t *testing.T) {
	b := NewReplayBuffer(5, rand.New(rand.NewSource(1)))

	for i := 0; i < 12; i++ {
		b.Push(transitionWithReward(float64(i)))
		if b.Len() > 5 {
			t.Fatalf("after %d pushes: length %d exceeds capacity 5", i+1, b.Len())
		}
	}
	if b.Len() != 5 {
		t.Errorf("expected full buffer of 5, got %d", b.Len())
	}
}

func TestOldestEvictedFirst(t *testing.T) {
	b := NewReplayBuffer(5, rand.New(rand.NewSource(1)))

	for i := 0; i < 6; i++ {
		b.Push(transitionWithReward(float64(i)))
	}

	got := b.Sample(5)
	if len(got) != 5 {
		t.Fatalf("expected 5 transitions, got %d", len(got))
	}
	for i, tr := range got {
		if tr.Reward == 0 {
			t.Error("transition 0 should have been evicted")
		}
		// Underfull-or-exact sampling preserves insertion order.
		if want := float64(i + 1); tr.Reward != want {
			t.Errorf("position %d: expected reward %v, got %v", i, want, tr.Reward)
		}
	}
}

func TestUnderfullSampleReturnsEverything(t *testing.T) {
	b := NewReplayBuffer(10, rand.New(rand.NewSource(1)))
	for i := 0; i < 3; i++ {
		b.Push(transitionWithReward(float64(i)))
	}

	got := b.Sample(8)
	if len(got) != 3 {
		t.Fatalf("expected all 3 transitions, got %d", len(got))
	}
	for i, tr := range got {
		if tr.Reward != float64(i) {
			t.Errorf("position %d: expected insertion order, got reward %v", i, tr.Reward)
		}
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	b := NewReplayBuffer(20, rand.New(rand.NewSource(7)))
	for i := 0; i < 20; i++ {
		b.Push(transitionWithReward(float64(i)))
	}

	got := b.Sample(8)
	if len(got) != 8 {
		t.Fatalf("expected 8 transitions, got %d", len(got))
	}
	seen := make(map[float64]bool)
	for _, tr := range got {
		if seen[tr.Reward] {
			t.Errorf("transition with reward %v sampled twice", tr.Reward)
		}
		seen[tr.Reward] = true
	}
}

func TestEmptyBufferSample(t *testing.T) {
	b := NewReplayBuffer(4, rand.New(rand.NewSource(1)))
	if got := b.Sample(4); len(got) != 0 {
		t.Fatalf("expected empty sample, got %d transitions", len(got))
	}
}
