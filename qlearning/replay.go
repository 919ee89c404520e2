package qlearning

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Transition is one recorded step: the encoded state, the one-hot action
// taken, the reward observed, the encoded next state, and whether the
// episode ended. Immutable once pushed.
type Transition struct {
	State     []float64
	Action    []float64
	Reward    float64
	NextState []float64
	Done      bool
}

// ReplayBuffer is a bounded FIFO store of transitions. Once full, pushes
// overwrite the oldest entry.
type ReplayBuffer struct {
	buf      []Transition
	capacity int
	pos      int
	size     int
	rng      *rand.Rand
}

// NewReplayBuffer creates a buffer holding at most capacity transitions.
func NewReplayBuffer(capacity int, rng *rand.Rand) *ReplayBuffer {
	return &ReplayBuffer{
		buf:      make([]Transition, capacity),
		capacity: capacity,
		rng:      rng,
	}
}

// Len returns the number of stored transitions.
func (b *ReplayBuffer) Len() int {
	return b.size
}

// Push appends a transition, evicting the oldest one when at capacity.
func (b *ReplayBuffer) Push(t Transition) {
	b.buf[b.pos] = t
	b.pos = (b.pos + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Sample returns n transitions drawn uniformly without replacement. When the
// buffer holds n or fewer, the whole contents are returned in insertion
// order.
func (b *ReplayBuffer) Sample(n int) []Transition {
	if b.size <= n {
		out := make([]Transition, b.size)
		for i := 0; i < b.size; i++ {
			out[i] = b.buf[b.index(i)]
		}
		return out
	}

	// Uniform weights; each Take removes the chosen index, so the draw is
	// without replacement.
	weights := make([]float64, b.size)
	for i := range weights {
		weights[i] = 1
	}
	w := sampleuv.NewWeighted(weights, b.rng)

	out := make([]Transition, 0, n)
	for len(out) < n {
		i, ok := w.Take()
		if !ok {
			break
		}
		out = append(out, b.buf[b.index(i)])
	}
	return out
}

// index maps insertion order (0 = oldest) onto the ring.
func (b *ReplayBuffer) index(i int) int {
	if b.size < b.capacity {
		return i
	}
	return (b.pos + i) % b.capacity
}
