// SPDX-License-Identifier: MIT
package note

import "math"

// Tracker turns a per-block target note into a stream of on/off events.
// It guarantees that at most one note is active at any moment: a change
// always emits the off for the old note strictly before the on for the
// new one.
type Tracker struct {
	sink    Sink
	maxJump float64 // semitones; transitions beyond this are jump-guarded

	active int // currently sounding note, NoPitch if none
}

// NewTracker wires a tracker to a sink. maxJump is the semitone distance
// above which Advance reports a guarded jump.
func NewTracker(maxJump float64, sink Sink) *Tracker {
	return &Tracker{
		sink:    sink,
		maxJump: maxJump,
		active:  NoPitch,
	}
}

// Active returns the currently sounding note, or NoPitch.
func (t *Tracker) Active() int {
	return t.active
}

// Advance feeds the resolved target for one block. target is NoPitch when
// the gate or quantizer rejected the block. stable gates new onsets and
// note changes; an off for the active note is emitted regardless, so a
// decaying signal releases promptly.
//
// The return value is true when the transition crossed the jump guard,
// which callers use to reset downstream smoothing state.
func (t *Tracker) Advance(target int, stable bool) bool {
	if target == t.active {
		return false
	}

	// Release: active note, no (or unstable) replacement yet.
	if target == NoPitch {
		t.sink.OnNoteOff(t.active)
		t.active = NoPitch
		return false
	}

	if !stable {
		return false
	}

	jumped := false
	if t.active != NoPitch {
		jumped = math.Abs(float64(target-t.active)) > t.maxJump
		t.sink.OnNoteOff(t.active)
	}
	t.sink.OnNoteOn(target)
	t.active = target
	return jumped
}

// Reset silences the tracker, emitting an off for the active note if any.
// Used on stream stop and when detection reinitializes.
func (t *Tracker) Reset() {
	if t.active != NoPitch {
		t.sink.OnNoteOff(t.active)
		t.active = NoPitch
	}
}
