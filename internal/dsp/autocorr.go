// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"sort"
)

// peakFloor is the fraction of the strongest autocorrelation value below
// which local maxima are discarded.
const peakFloor = 0.1

// Peak is one autocorrelation maximum expressed in the frequency domain.
type Peak struct {
	Frequency float64
	Magnitude float64
}

// Profile summarizes the periodic structure of one block. Peaks are ordered
// by descending magnitude. Clarity is the ratio of the dominant peak to the
// spread of the peak set; a clean tone produces a single tight peak and a
// high clarity, noise produces many scattered peaks and a low one.
type Profile struct {
	Peaks    []Peak
	Centroid float64
	Spread   float64
	Clarity  float64
}

// Analyzer computes autocorrelation profiles over a fixed lag range derived
// from the configured frequency bounds. The lag and peak buffers are
// pre-allocated and reused across calls.
type Analyzer struct {
	sampleRate float64
	minLag     int
	maxLag     int

	ac    []float64 // autocorrelation per lag, indexed [0, maxLag]
	peaks []Peak    // reused across calls
}

// NewAnalyzer creates an analyzer searching lags between
// sampleRate/maxFrequency and sampleRate/minFrequency.
func NewAnalyzer(sampleRate, minFrequency, maxFrequency float64) *Analyzer {
	minLag := int(sampleRate / maxFrequency)
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(sampleRate / minFrequency)
	if maxLag <= minLag {
		maxLag = minLag + 1
	}

	return &Analyzer{
		sampleRate: sampleRate,
		minLag:     minLag,
		maxLag:     maxLag,
		ac:         make([]float64, maxLag+1),
		peaks:      make([]Peak, 0, 32),
	}
}

// Analyze returns the spectral profile of block. The Peaks slice is owned
// by the analyzer and overwritten on the next call. Blocks shorter than the
// lag range are profiled over the lags they can support.
func (a *Analyzer) Analyze(block []float32) Profile {
	hi := a.maxLag
	if hi > len(block)-1 {
		hi = len(block) - 1
	}
	if hi < a.minLag {
		return Profile{}
	}

	// r(0) first for normalization, then the search range.
	a.ac[0] = autocorrAt(block, 0)
	largest := 0.0
	for lag := a.minLag; lag <= hi; lag++ {
		a.ac[lag] = autocorrAt(block, lag)
		if a.ac[lag] > largest {
			largest = a.ac[lag]
		}
	}
	if largest <= 0 {
		return Profile{}
	}

	a.peaks = a.peaks[:0]
	floor := largest * peakFloor
	for lag := a.minLag + 1; lag < hi; lag++ {
		v := a.ac[lag]
		if v <= floor || v <= a.ac[lag-1] || v < a.ac[lag+1] {
			continue
		}
		refined := float64(lag) + parabolicPeak(a.ac[:hi+1], lag)
		a.peaks = append(a.peaks, Peak{
			Frequency: a.sampleRate / refined,
			Magnitude: v / a.ac[0],
		})
	}
	if len(a.peaks) == 0 {
		return Profile{}
	}

	sort.Slice(a.peaks, func(i, j int) bool {
		return a.peaks[i].Magnitude > a.peaks[j].Magnitude
	})

	var weighted, total float64
	for _, p := range a.peaks {
		weighted += p.Frequency * p.Magnitude
		total += p.Magnitude
	}
	centroid := weighted / total

	var variance float64
	for _, p := range a.peaks {
		d := p.Frequency - centroid
		variance += p.Magnitude * d * d
	}
	spread := math.Sqrt(variance / total)

	clarity := a.peaks[0].Magnitude
	if spread > 0 {
		clarity = a.peaks[0].Magnitude / spread
	}
	if clarity > 1 {
		clarity = 1
	}

	return Profile{
		Peaks:    a.peaks,
		Centroid: centroid,
		Spread:   spread,
		Clarity:  clarity,
	}
}

// PitchConfidence scores how strongly block is periodic at freq: the
// normalized autocorrelation at the corresponding lag, clamped to [0, 1].
func (a *Analyzer) PitchConfidence(block []float32, freq float64) float64 {
	if freq <= 0 || len(block) == 0 {
		return 0
	}
	lag := int(a.sampleRate/freq + 0.5)
	if lag < 1 || lag > len(block)-1 {
		return 0
	}

	energy := autocorrAt(block, 0)
	if energy <= 0 {
		return 0
	}
	conf := autocorrAt(block, lag) / energy
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

func autocorrAt(block []float32, lag int) float64 {
	var sum float64
	for i := 0; i < len(block)-lag; i++ {
		sum += float64(block[i]) * float64(block[i+lag])
	}
	return sum
}
