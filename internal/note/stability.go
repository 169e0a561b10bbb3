// SPDX-License-Identifier: MIT
package note

import "math"

const (
	// Block-path history depth and acceptance threshold.
	historySize      = 3
	historyRecent    = 2
	minAvgConfidence = 0.5

	// Streaming-path consensus ratio and minimum window depth.
	streamConsensus = 0.5
	minStreamWindow = 4
)

// HistoryEntry is one quantized observation in the block-path history.
type HistoryEntry struct {
	Note       int // MIDI note or NoPitch
	Confidence float64
	Timestamp  float64 // seconds since detector start
}

// StabilityFilter suppresses single-block false positives on the
// block-accumulation path. It keeps a fixed-length FIFO of quantized notes and
// declares a note stable only once it recurs with sufficient confidence.
type StabilityFilter struct {
	entries [historySize]HistoryEntry
	n       int // total pushed, entries hold the last historySize
}

// Push appends an observation, evicting the oldest once the window is full.
func (f *StabilityFilter) Push(midi int, confidence, timestamp float64) {
	if f.n < historySize {
		f.entries[f.n] = HistoryEntry{Note: midi, Confidence: confidence, Timestamp: timestamp}
		f.n++
		return
	}
	copy(f.entries[:], f.entries[1:])
	f.entries[historySize-1] = HistoryEntry{Note: midi, Confidence: confidence, Timestamp: timestamp}
}

// IsStable reports whether midi appears in the most recent entries with an
// average matching confidence above the acceptance threshold.
func (f *StabilityFilter) IsStable(midi int) bool {
	if midi == NoPitch || f.n == 0 {
		return false
	}

	recent := historyRecent
	if f.n < recent {
		recent = f.n
	}

	matches := 0
	confSum := 0.0
	for i := f.len() - recent; i < f.len(); i++ {
		if f.entries[i].Note == midi {
			matches++
			confSum += f.entries[i].Confidence
		}
	}
	if matches == 0 {
		return false
	}
	return confSum/float64(matches) > minAvgConfidence
}

// Reset clears the history.
func (f *StabilityFilter) Reset() {
	f.n = 0
}

func (f *StabilityFilter) len() int {
	if f.n < historySize {
		return f.n
	}
	return historySize
}

// StreamFilter is the stability filter for the low-latency ring-buffer path.
// The kernel fires every hop, so estimates arrive far more often and far
// noisier than on the block path; a consensus vote over the window and a
// semitone consistency check compensate. Callers size the window to span
// more than one analysis block so consensus cannot form from the hops of a
// single block.
type StreamFilter struct {
	notes []int
	head  int
	n     int
}

// NewStreamFilter returns an empty streaming filter over a window of size
// per-hop estimates.
func NewStreamFilter(size int) *StreamFilter {
	if size < minStreamWindow {
		size = minStreamWindow
	}
	f := &StreamFilter{notes: make([]int, size)}
	f.Reset()
	return f
}

// Push records the latest per-hop quantized note (NoPitch for none).
func (f *StreamFilter) Push(midi int) {
	f.notes[f.head] = midi
	f.head = (f.head + 1) % len(f.notes)
	if f.n < len(f.notes) {
		f.n++
	}
}

// IsStable reports whether more than half the window is voiced, midi has at
// least 50% consensus among the voiced entries, and the most recent voiced
// detection lies within one semitone of it.
func (f *StreamFilter) IsStable(midi int) bool {
	if midi == NoPitch || f.n == 0 {
		return false
	}

	size := len(f.notes)
	voiced := 0
	matches := 0
	lastVoiced := NoPitch
	for i := 0; i < f.n; i++ {
		// Walk from oldest to newest.
		idx := (f.head - f.n + i + size) % size
		n := f.notes[idx]
		if n == NoPitch {
			continue
		}
		voiced++
		lastVoiced = n
		if n == midi {
			matches++
		}
	}
	// The vote only counts once voiced entries hold the majority of the
	// window; silence never delegates the decision to a handful of hops.
	if voiced*2 <= size {
		return false
	}
	if float64(matches)/float64(voiced) < streamConsensus {
		return false
	}
	return math.Abs(float64(lastVoiced-midi)) <= 1
}

// Reset clears the window.
func (f *StreamFilter) Reset() {
	f.head = 0
	f.n = 0
	for i := range f.notes {
		f.notes[i] = NoPitch
	}
}
