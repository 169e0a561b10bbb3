// SPDX-License-Identifier: MIT
/*
Package note maps detected frequencies onto discrete MIDI notes and turns the
resulting noisy per-block estimates into clean note-on/note-off transitions.

It contains the reference frequency table and quantizer, two short-term
stability filters, a Hidden Markov Model smoother over the 88 piano notes, and
the tracker that reconciles the smoothed and deterministic estimates into
emitted events.
*/
package note

import (
	"fmt"
	"math"
)

// MIDI note range covered by the detector (88 piano keys, A0 through C8).
const (
	MinMIDI  = 21
	MaxMIDI  = 108
	NumNotes = MaxMIDI - MinMIDI + 1

	// NoPitch marks a block with no detectable pitch.
	NoPitch = -1

	// Concert pitch reference.
	a4MIDI      = 69
	a4Frequency = 440.0
)

// noteNames in chromatic order starting at C.
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Table holds the reference frequency for every MIDI note in [MinMIDI, MaxMIDI],
// indexed by midiNote - MinMIDI. Built once, read-only afterwards.
type Table struct {
	freqs [NumNotes]float64
}

// NewTable builds the reference table from equal temperament around A4 = 440 Hz.
func NewTable() *Table {
	t := &Table{}
	for i := range t.freqs {
		midi := MinMIDI + i
		t.freqs[i] = a4Frequency * math.Exp2(float64(midi-a4MIDI)/12.0)
	}
	return t
}

// Frequency returns the reference frequency of midi, or 0 if out of range.
func (t *Table) Frequency(midi int) float64 {
	if midi < MinMIDI || midi > MaxMIDI {
		return 0
	}
	return t.freqs[midi-MinMIDI]
}

// Nearest returns the MIDI note whose reference frequency is closest to freq
// in absolute Hz. Ties resolve to the lower note (first match in the linear
// scan). Returns NoPitch for non-positive frequencies.
func (t *Table) Nearest(freq float64) int {
	if freq <= 0 {
		return NoPitch
	}
	best := 0
	bestDist := math.Abs(freq - t.freqs[0])
	for i := 1; i < NumNotes; i++ {
		d := math.Abs(freq - t.freqs[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return MinMIDI + best
}

// Cents returns the pitch distance from reference to detected in cents
// (100 cents = one semitone).
func Cents(detected, reference float64) float64 {
	if detected <= 0 || reference <= 0 {
		return 0
	}
	return 1200.0 * math.Log2(detected/reference)
}

// Name returns a human-readable note name such as "A4" or "C#3".
// MIDI octaves follow the convention where middle C (60) is C4.
func Name(midi int) string {
	if midi < MinMIDI || midi > MaxMIDI {
		return "--"
	}
	return fmt.Sprintf("%s%d", noteNames[midi%12], midi/12-1)
}
