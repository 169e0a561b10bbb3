// SPDX-License-Identifier: MIT
package note

// Transition model: a sounding note mostly stays put, occasionally moves a few
// semitones, and rarely leaps. The observation floor keeps every state
// reachable so the smoother can never lock itself out of a note.
const (
	selfTransitionProb = 0.60
	neighborBulkProb   = 0.30
	neighborSpan       = 4 // semitones covered by the bulk probability
	observationFloor   = 1e-4
)

// Observation is one candidate note with its likelihood weight for a block.
type Observation struct {
	Note   int // MIDI note
	Weight float64
}

// Smoother maintains a probability distribution over the 88 detectable notes
// and advances it one forward-algorithm step per processed block. The static
// transition matrix is computed once at construction.
type Smoother struct {
	state   [NumNotes]float64
	scratch [NumNotes]float64
	obs     [NumNotes]float64
	trans   [NumNotes][NumNotes]float64
}

// NewSmoother creates a smoother with a uniform initial distribution.
func NewSmoother() *Smoother {
	s := &Smoother{}
	s.buildTransitions()
	s.Reset()
	return s
}

// buildTransitions fills the static transition matrix: 60% self-transition,
// 30% split across notes within ±4 semitones, and the remaining 10% spread
// uniformly over all other notes. Rows renormalize to absorb edge effects at
// the ends of the keyboard.
func (s *Smoother) buildTransitions() {
	for i := 0; i < NumNotes; i++ {
		neighbors := 0
		others := 0
		for j := 0; j < NumNotes; j++ {
			if j == i {
				continue
			}
			if absInt(j-i) <= neighborSpan {
				neighbors++
			} else {
				others++
			}
		}

		residualProb := 1.0 - selfTransitionProb - neighborBulkProb
		rowSum := 0.0
		for j := 0; j < NumNotes; j++ {
			var p float64
			switch {
			case j == i:
				p = selfTransitionProb
			case absInt(j-i) <= neighborSpan:
				p = neighborBulkProb / float64(neighbors)
			default:
				p = residualProb / float64(others)
			}
			s.trans[i][j] = p
			rowSum += p
		}
		for j := 0; j < NumNotes; j++ {
			s.trans[i][j] /= rowSum
		}
	}
}

// Reset reinitializes the distribution to uniform.
func (s *Smoother) Reset() {
	uniform := 1.0 / float64(NumNotes)
	for i := range s.state {
		s.state[i] = uniform
	}
}

// Update advances the distribution one forward step using the block's
// observations. Notes absent from obs receive the small nonzero floor. The
// distribution always renormalizes to sum 1.
func (s *Smoother) Update(obs []Observation) {
	for i := range s.obs {
		s.obs[i] = observationFloor
	}
	for _, o := range obs {
		if o.Note < MinMIDI || o.Note > MaxMIDI {
			continue
		}
		w := o.Weight
		if w < observationFloor {
			w = observationFloor
		}
		s.obs[o.Note-MinMIDI] = w
	}

	total := 0.0
	for j := 0; j < NumNotes; j++ {
		acc := 0.0
		for i := 0; i < NumNotes; i++ {
			acc += s.state[i] * s.trans[i][j]
		}
		v := acc * s.obs[j]
		s.scratch[j] = v
		total += v
	}

	if total <= 0 {
		// Unreachable while the floor holds, but never propagate NaNs.
		s.Reset()
		return
	}
	for j := 0; j < NumNotes; j++ {
		s.state[j] = s.scratch[j] / total
	}
}

// Best returns the most probable MIDI note under the current distribution.
func (s *Smoother) Best() int {
	best := 0
	for i := 1; i < NumNotes; i++ {
		if s.state[i] > s.state[best] {
			best = i
		}
	}
	return MinMIDI + best
}

// Probability returns the current probability mass of midi, 0 if out of range.
func (s *Smoother) Probability(midi int) float64 {
	if midi < MinMIDI || midi > MaxMIDI {
		return 0
	}
	return s.state[midi-MinMIDI]
}

// Sum returns the total probability mass. Used by tests to verify
// normalization.
func (s *Smoother) Sum() float64 {
	total := 0.0
	for i := range s.state {
		total += s.state[i]
	}
	return total
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
