// SPDX-License-Identifier: MIT
package note

import "testing"

func TestStabilityFilter(t *testing.T) {
	t.Run("empty history is unstable", func(t *testing.T) {
		var f StabilityFilter
		if f.IsStable(60) {
			t.Error("IsStable = true with no history")
		}
	})

	t.Run("confident recent match is stable", func(t *testing.T) {
		var f StabilityFilter
		f.Push(60, 0.8, 0.0)
		f.Push(60, 0.7, 0.012)
		if !f.IsStable(60) {
			t.Error("IsStable = false, want true")
		}
	})

	t.Run("single recent match suffices", func(t *testing.T) {
		var f StabilityFilter
		f.Push(60, 0.8, 0.0)
		f.Push(62, 0.9, 0.012)
		if !f.IsStable(62) {
			t.Error("IsStable = false with one confident recent match")
		}
	})

	t.Run("note outside recent window is unstable", func(t *testing.T) {
		var f StabilityFilter
		f.Push(60, 0.9, 0.0)
		f.Push(62, 0.9, 0.012)
		f.Push(64, 0.9, 0.024)
		if f.IsStable(60) {
			t.Error("IsStable = true for a note evicted from the recent window")
		}
	})

	t.Run("low average confidence is unstable", func(t *testing.T) {
		var f StabilityFilter
		f.Push(60, 0.3, 0.0)
		f.Push(60, 0.4, 0.012)
		if f.IsStable(60) {
			t.Error("IsStable = true with average confidence below threshold")
		}
	})

	t.Run("confidence averages over matches only", func(t *testing.T) {
		var f StabilityFilter
		f.Push(62, 0.1, 0.0)
		f.Push(60, 0.9, 0.012)
		if !f.IsStable(60) {
			t.Error("IsStable = false, non-matching entry should not dilute confidence")
		}
	})

	t.Run("no pitch is never stable", func(t *testing.T) {
		var f StabilityFilter
		f.Push(NoPitch, 0.9, 0.0)
		f.Push(NoPitch, 0.9, 0.012)
		if f.IsStable(NoPitch) {
			t.Error("IsStable = true for NoPitch")
		}
	})

	t.Run("reset clears history", func(t *testing.T) {
		var f StabilityFilter
		f.Push(60, 0.9, 0.0)
		f.Push(60, 0.9, 0.012)
		f.Reset()
		if f.IsStable(60) {
			t.Error("IsStable = true after Reset")
		}
	})
}

func TestStreamFilter(t *testing.T) {
	t.Run("consensus of matching notes is stable", func(t *testing.T) {
		f := NewStreamFilter(4)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		if !f.IsStable(57) {
			t.Error("IsStable = false with full consensus")
		}
	})

	t.Run("half consensus with consistent tail is stable", func(t *testing.T) {
		f := NewStreamFilter(4)
		f.Push(50)
		f.Push(50)
		f.Push(57)
		f.Push(57)
		if !f.IsStable(57) {
			t.Error("IsStable = false at exactly 50%% consensus")
		}
	})

	t.Run("unvoiced entries excluded from consensus ratio", func(t *testing.T) {
		f := NewStreamFilter(4)
		f.Push(NoPitch)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		if !f.IsStable(57) {
			t.Error("IsStable = false, unvoiced entries should not count against consensus")
		}
	})

	t.Run("voiced minority is unstable", func(t *testing.T) {
		f := NewStreamFilter(4)
		f.Push(NoPitch)
		f.Push(NoPitch)
		f.Push(57)
		f.Push(57)
		if f.IsStable(57) {
			t.Error("IsStable = true with voiced entries in only half the window")
		}
	})

	t.Run("voiced run confined to one block span is unstable", func(t *testing.T) {
		// A window sized for two 16-hop blocks must reject a burst
		// that fits entirely inside one of them.
		f := NewStreamFilter(32)
		for i := 0; i < 16; i++ {
			f.Push(NoPitch)
		}
		for i := 0; i < 16; i++ {
			f.Push(57)
		}
		if f.IsStable(57) {
			t.Error("IsStable = true for a burst spanning a single block")
		}
		for i := 0; i < 16; i++ {
			f.Push(57)
		}
		if !f.IsStable(57) {
			t.Error("IsStable = false once the run spans two blocks")
		}
	})

	t.Run("undersized window is clamped", func(t *testing.T) {
		f := NewStreamFilter(0)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		if !f.IsStable(57) {
			t.Error("IsStable = false after filling the minimum window")
		}
	})

	t.Run("inconsistent most recent detection is unstable", func(t *testing.T) {
		f := NewStreamFilter(4)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		f.Push(70)
		if f.IsStable(57) {
			t.Error("IsStable = true with a distant latest detection")
		}
	})

	t.Run("adjacent semitone latest detection passes", func(t *testing.T) {
		f := NewStreamFilter(4)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		f.Push(58)
		if !f.IsStable(57) {
			t.Error("IsStable = false with a within-one-semitone latest detection")
		}
	})

	t.Run("empty window is unstable", func(t *testing.T) {
		f := NewStreamFilter(4)
		if f.IsStable(57) {
			t.Error("IsStable = true with empty window")
		}
	})

	t.Run("reset clears window", func(t *testing.T) {
		f := NewStreamFilter(4)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		f.Push(57)
		f.Reset()
		if f.IsStable(57) {
			t.Error("IsStable = true after Reset")
		}
	})
}
