package qlearning

import (
	"math"
	"testing"
)

func TestTargetsEqualRewardsWhenDone(t *testing.T) {
	batch := []Transition{
		{Action: []float64{1, 0, 0}, Reward: -10, Done: true},
		{Action: []float64{0, 1, 0}, Reward: 10, Done: true},
		{Action: []float64{0, 0, 1}, Reward: 0, Done: true},
	}
	pred := []float64{
		0.1, 0.2, 0.3,
		-0.4, 0.5, 0.6,
		0.7, 0.8, -0.9,
	}
	// Large next-state values that must NOT leak into the targets.
	next := []float64{
		100, 100, 100,
		100, 100, 100,
		100, 100, 100,
	}

	targets, err := buildTargets(batch, pred, next, 0.9, 3)
	if err != nil {
		t.Fatal(err)
	}

	wantHot := []float64{-10, 10, 0}
	hotIdx := []int{0, 1, 2}
	for i := range batch {
		for j := 0; j < 3; j++ {
			got := targets[i*3+j]
			if j == hotIdx[i] {
				if got != wantHot[i] {
					t.Errorf("transition %d action %d: expected target %v, got %v", i, j, wantHot[i], got)
				}
			} else if got != pred[i*3+j] {
				t.Errorf("transition %d action %d: expected untouched prediction %v, got %v", i, j, pred[i*3+j], got)
			}
		}
	}
}

func TestTargetsBootstrapWhenNotDone(t *testing.T) {
	batch := []Transition{
		{Action: []float64{0, 1, 0}, Reward: 10, Done: false},
	}
	pred := []float64{1, 2, 3}
	next := []float64{0.5, -0.2, 1.5}
	gamma := 0.9

	targets, err := buildTargets(batch, pred, next, gamma, 3)
	if err != nil {
		t.Fatal(err)
	}

	want := 10 + gamma*1.5
	if math.Abs(targets[1]-want) > 1e-12 {
		t.Errorf("expected bootstrapped target %v, got %v", want, targets[1])
	}
	if targets[0] != 1 || targets[2] != 3 {
		t.Errorf("expected non-action entries untouched, got %v", targets)
	}
}

func TestTargetsSameRuleForSingleAndBatch(t *testing.T) {
	tr := Transition{Action: []float64{0, 0, 1}, Reward: -10, Done: true}
	predSingle := []float64{0.4, 0.1, 0.2}

	single, err := buildTargets([]Transition{tr}, predSingle, []float64{9, 9, 9}, 0.9, 3)
	if err != nil {
		t.Fatal(err)
	}

	batch := []Transition{tr, tr}
	pred := append(append([]float64(nil), predSingle...), predSingle...)
	nexts := []float64{9, 9, 9, 9, 9, 9}
	double, err := buildTargets(batch, pred, nexts, 0.9, 3)
	if err != nil {
		t.Fatal(err)
	}

	for j := 0; j < 3; j++ {
		if single[j] != double[j] || single[j] != double[3+j] {
			t.Errorf("entry %d: single %v, batch %v/%v", j, single[j], double[j], double[3+j])
		}
	}
}

func TestTargetsRejectMalformedAction(t *testing.T) {
	bad := [][]float64{
		{0, 0, 0},
		{1, 1, 0},
		{0.3, 0.7, 0},
	}
	for _, action := range bad {
		batch := []Transition{{Action: action, Reward: 1, Done: true}}
		if _, err := buildTargets(batch, []float64{0, 0, 0}, []float64{0, 0, 0}, 0.9, 3); err == nil {
			t.Errorf("expected error for action %v", action)
		}
	}
}
