// SPDX-License-Identifier: MIT
package note

import "math"

// Tolerance windows for accepting a frequency as a quantized note, in cents.
// Below the low-frequency cutoff pitch estimation is less reliable, so the
// window tightens.
const (
	toleranceCents        = 100.0
	lowFreqToleranceCents = 50.0
)

// Quantizer maps frequencies to MIDI notes with a cents-based tolerance check.
type Quantizer struct {
	table     *Table
	lowFreqHz float64 // below this the tighter tolerance applies
	minFreq   float64
	maxFreq   float64
}

// NewQuantizer creates a quantizer over table. Frequencies outside
// [minFreq, maxFreq] quantize to NoPitch; below lowFreqHz the tolerance
// tightens to ±50 cents.
func NewQuantizer(table *Table, minFreq, maxFreq, lowFreqHz float64) *Quantizer {
	return &Quantizer{
		table:     table,
		lowFreqHz: lowFreqHz,
		minFreq:   minFreq,
		maxFreq:   maxFreq,
	}
}

// Quantize returns the MIDI note for freq, or NoPitch when freq is outside the
// valid range or too far (in cents) from the nearest reference frequency.
func (q *Quantizer) Quantize(freq float64) int {
	if freq < q.minFreq || freq > q.maxFreq {
		return NoPitch
	}
	midi := q.table.Nearest(freq)
	if midi == NoPitch {
		return NoPitch
	}

	tolerance := toleranceCents
	if freq < q.lowFreqHz {
		tolerance = lowFreqToleranceCents
	}
	if math.Abs(q.CentsOff(freq, midi)) > tolerance {
		return NoPitch
	}
	return midi
}

// CentsOff returns the deviation of freq from the reference frequency of midi
// in cents. Zero for out-of-range notes.
func (q *Quantizer) CentsOff(freq float64, midi int) float64 {
	ref := q.table.Frequency(midi)
	if ref == 0 {
		return 0
	}
	return Cents(freq, ref)
}
