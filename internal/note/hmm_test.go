// SPDX-License-Identifier: MIT
package note

import (
	"math"
	"testing"
)

func TestSmootherTransitionRows(t *testing.T) {
	s := NewSmoother()

	// Every row of the transition matrix must sum to 1.
	for i := 0; i < NumNotes; i++ {
		sum := 0.0
		for j := 0; j < NumNotes; j++ {
			sum += s.trans[i][j]
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("transition row %d sums to %f, want 1", i, sum)
		}
	}
}

func TestSmootherNormalization(t *testing.T) {
	s := NewSmoother()

	if sum := s.Sum(); math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("initial state sums to %f, want 1", sum)
	}

	s.Update([]Observation{{Note: 69, Weight: 0.9}})
	if sum := s.Sum(); math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("state after update sums to %f, want 1", sum)
	}

	// Empty observation set must not corrupt the distribution.
	s.Update(nil)
	if sum := s.Sum(); math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("state after empty update sums to %f, want 1", sum)
	}

	// Out-of-range observations are ignored, floor keeps mass positive.
	s.Update([]Observation{{Note: 5, Weight: 1.0}, {Note: 200, Weight: 1.0}})
	if sum := s.Sum(); math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("state after out-of-range update sums to %f, want 1", sum)
	}
}

func TestSmootherConvergence(t *testing.T) {
	s := NewSmoother()

	for i := 0; i < 5; i++ {
		s.Update([]Observation{{Note: 60, Weight: 0.9}})
	}
	if got := s.Best(); got != 60 {
		t.Fatalf("Best() = %d after repeated C4 evidence, want 60", got)
	}

	// A strong new observation flips the argmax within one step: the
	// observation floor keeps competing notes many orders of magnitude
	// below the evidence.
	s.Update([]Observation{{Note: 64, Weight: 0.9}})
	if got := s.Best(); got != 64 {
		t.Errorf("Best() = %d after E4 evidence, want 64", got)
	}
}

func TestSmootherReset(t *testing.T) {
	s := NewSmoother()
	s.Update([]Observation{{Note: 40, Weight: 0.8}})
	s.Reset()

	want := 1.0 / float64(NumNotes)
	for i := 0; i < NumNotes; i++ {
		if math.Abs(s.state[i]-want) > 1e-12 {
			t.Fatalf("state[%d] = %f after Reset, want uniform %f", i, s.state[i], want)
		}
	}
}

func TestSmootherUpdateAllocs(t *testing.T) {
	s := NewSmoother()
	obs := []Observation{{Note: 57, Weight: 0.7}}

	allocs := testing.AllocsPerRun(100, func() {
		s.Update(obs)
	})
	if allocs != 0 {
		t.Errorf("Update allocated %f times per run, want 0", allocs)
	}
}

func BenchmarkSmootherUpdate(b *testing.B) {
	s := NewSmoother()
	obs := []Observation{{Note: 57, Weight: 0.7}}

	b.ReportAllocs()
	for b.Loop() {
		s.Update(obs)
	}
}
