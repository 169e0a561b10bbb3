// SPDX-License-Identifier: MIT
package note

import (
	"math"
	"testing"
)

func TestTableFrequency(t *testing.T) {
	tbl := NewTable()

	tests := []struct {
		name string
		midi int
		want float64
	}{
		{"A4 reference", 69, 440.0},
		{"A0 lowest", 21, 27.5},
		{"C8 highest", 108, 4186.009},
		{"middle C", 60, 261.626},
		{"A3", 57, 220.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tbl.Frequency(tt.midi)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Frequency(%d) = %f, want %f", tt.midi, got, tt.want)
			}
		})
	}
}

func TestTableFrequencyOutOfRange(t *testing.T) {
	tbl := NewTable()
	if got := tbl.Frequency(MinMIDI - 1); got != 0 {
		t.Errorf("Frequency(%d) = %f, want 0", MinMIDI-1, got)
	}
	if got := tbl.Frequency(MaxMIDI + 1); got != 0 {
		t.Errorf("Frequency(%d) = %f, want 0", MaxMIDI+1, got)
	}
}

// Every note's exact frequency must quantize back to itself.
func TestQuantizerRoundTrip(t *testing.T) {
	tbl := NewTable()
	q := NewQuantizer(tbl, 27.5, 4186.01, 200.0)

	for midi := MinMIDI; midi <= MaxMIDI; midi++ {
		freq := tbl.Frequency(midi)
		if got := q.Quantize(freq); got != midi {
			t.Errorf("Quantize(%f) = %d, want %d", freq, got, midi)
		}
	}
}

func TestQuantizerTolerance(t *testing.T) {
	tbl := NewTable()
	q := NewQuantizer(tbl, 27.5, 4186.01, 200.0)

	tests := []struct {
		name string
		freq float64
		want int
	}{
		{"A4 sharp within 100 cents", 460.0, 69},
		{"A4 flat within 100 cents", 425.0, 69},
		{"midway 440-466 resolves up", tbl.Frequency(69) * math.Exp2(0.5/12.0) * 1.00001, 70},
		{"low freq within 50 cents", 56.0, 33}, // A1 = 55 Hz
		{"low freq nearer upper neighbor", 56.8, 34},
		{"below range", 20.0, NoPitch},
		{"above range", 5000.0, NoPitch},
		{"zero", 0.0, NoPitch},
		{"negative", -440.0, NoPitch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q.Quantize(tt.freq); got != tt.want {
				t.Errorf("Quantize(%f) = %d, want %d", tt.freq, got, tt.want)
			}
		})
	}
}

func TestCents(t *testing.T) {
	tbl := NewTable()

	// One semitone up is exactly +100 cents.
	got := Cents(tbl.Frequency(70), tbl.Frequency(69))
	if math.Abs(got-100.0) > 1e-6 {
		t.Errorf("Cents(one semitone) = %f, want 100", got)
	}

	// Identical frequencies are zero cents.
	if got := Cents(440.0, 440.0); math.Abs(got) > 1e-9 {
		t.Errorf("Cents(equal) = %f, want 0", got)
	}
}

func TestQuantizerCentsOff(t *testing.T) {
	tbl := NewTable()
	q := NewQuantizer(tbl, 27.5, 4186.01, 200.0)

	if got := q.CentsOff(440.0, 69); math.Abs(got) > 1e-9 {
		t.Errorf("CentsOff(440, A4) = %f, want 0", got)
	}

	// A quarter tone above A4.
	sharp := 440.0 * math.Exp2(0.5/12.0)
	if got := q.CentsOff(sharp, 69); math.Abs(got-50.0) > 1e-6 {
		t.Errorf("CentsOff(quarter tone) = %f, want 50", got)
	}

	// Out-of-range notes have no reference frequency.
	if got := q.CentsOff(440.0, 200); got != 0 {
		t.Errorf("CentsOff(out of range) = %f, want 0", got)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		midi int
		want string
	}{
		{69, "A4"},
		{60, "C4"},
		{21, "A0"},
		{108, "C8"},
		{58, "A#3"},
		{NoPitch, ""},
	}

	for _, tt := range tests {
		if got := Name(tt.midi); got != tt.want {
			t.Errorf("Name(%d) = %q, want %q", tt.midi, got, tt.want)
		}
	}
}
