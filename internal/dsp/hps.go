// SPDX-License-Identifier: MIT
package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// hpsHarmonics is the number of downsampled spectrum copies multiplied
// together. Five harmonics reaches the fundamental for tones whose energy
// concentrates in the overtones, typical of low piano and bass strings.
const hpsHarmonics = 5

// hpsFloorHz is the lower bound of the fundamental search range.
const hpsFloorHz = 20.0

// HPS estimates fundamentals below the very-low-frequency threshold with a
// harmonic product spectrum. The spectral approach is immune to the short
// autocorrelation lag budget that makes time-domain estimators unreliable
// in the bottom octaves.
type HPS struct {
	size       int
	sampleRate float64
	ceilingHz  float64

	input   []float64
	hann    []float64
	product []float64
}

// NewHPS creates an estimator for blocks of size samples searching
// fundamentals in [20 Hz, ceilingHz].
func NewHPS(size int, sampleRate, ceilingHz float64) *HPS {
	if size <= 0 || size&(size-1) != 0 {
		panic("HPS block size must be a power of 2") // panic for now
	}
	return &HPS{
		size:       size,
		sampleRate: sampleRate,
		ceilingHz:  ceilingHz,
		input:      make([]float64, size),
		hann:       window.Hann(size),
		product:    make([]float64, size/2+1),
	}
}

// Estimate returns the strongest fundamental in the search range and a
// confidence derived from the peak's prominence over its immediate
// neighbors. It returns (0, 0) when no usable peak exists. Blocks shorter
// than the estimator size are zero-padded.
func (h *HPS) Estimate(block []float32) (freq, confidence float64) {
	for i := range h.size {
		if i < len(block) {
			h.input[i] = float64(block[i]) * h.hann[i]
		} else {
			h.input[i] = 0
		}
	}

	spectrum := fft.FFTReal(h.input)
	half := len(h.product)

	// Seed with the base magnitudes, then fold in the downsampled copies.
	for i := 0; i < half; i++ {
		h.product[i] = cmplx.Abs(spectrum[i])
	}
	for harmonic := 2; harmonic <= hpsHarmonics; harmonic++ {
		for i := 0; i < half; i++ {
			j := i * harmonic
			if j >= half {
				h.product[i] = 0
				continue
			}
			h.product[i] *= cmplx.Abs(spectrum[j])
		}
	}

	binWidth := h.sampleRate / float64(h.size)
	lo := int(hpsFloorHz/binWidth + 0.999999)
	hi := int(h.ceilingHz / binWidth)
	if lo < 1 {
		lo = 1
	}
	if hi >= half-1 {
		hi = half - 2
	}
	if lo > hi {
		return 0, 0
	}

	best := -1
	bestVal := 0.0
	for i := lo; i <= hi; i++ {
		if h.product[i] > bestVal {
			bestVal = h.product[i]
			best = i
		}
	}
	if best < 0 || bestVal <= 0 {
		return 0, 0
	}

	refined := float64(best) + parabolicPeak(h.product, best)
	freq = refined * binWidth

	neighbors := (h.product[best-1] + h.product[best+1]) / 2
	confidence = 1 - neighbors/bestVal
	if confidence < 0 {
		confidence = 0
	}
	return freq, confidence
}
