// SPDX-License-Identifier: MIT

// Package dsp provides the spectral analysis primitives behind pitch
// detection: a windowed FFT processor, an autocorrelation profiler and a
// harmonic product spectrum estimator for the lowest octaves.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum performs windowed FFT analysis over fixed-size sample blocks.
// All buffers are pre-allocated; Process performs no allocations and is
// safe to call from the audio path.
type Spectrum struct {
	fftSize    int
	sampleRate float64

	input     []float64    // windowed, scaled input samples
	coeffs    []complex128 // FFT complex output
	magnitude []float64    // raw magnitude output
	hann      []float64    // window function coefficients
	freqBins  []float64    // per-bin center frequency in Hz

	fftObj *fourier.FFT
}

// NewSpectrum creates a spectrum processor for blocks of fftSize samples.
// It pre-allocates all buffers and the Hann window coefficients.
func NewSpectrum(fftSize int, sampleRate float64) *Spectrum {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		panic("FFT size must be a power of 2") // panic for now
	}
	fftObj := fourier.NewFFT(fftSize)

	outputSize := fftSize/2 + 1
	freqBins := make([]float64, outputSize)
	for i := range freqBins {
		freqBins[i] = fftObj.Freq(i) * sampleRate
	}

	return &Spectrum{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fftObj:     fftObj,

		input:     make([]float64, fftSize),
		coeffs:    make([]complex128, outputSize),
		magnitude: make([]float64, outputSize),
		hann:      window.Hann(fftSize),
		freqBins:  freqBins,
	}
}

// Process performs FFT analysis on block after applying a Hann window and
// returns the magnitude spectrum. The returned slice is owned by the
// processor and overwritten on the next call. Blocks shorter than the FFT
// size are zero-padded.
func (s *Spectrum) Process(block []float32) []float64 {
	for i := range s.fftSize {
		if i < len(block) {
			s.input[i] = float64(block[i]) * s.hann[i]
		} else {
			s.input[i] = 0
		}
	}

	_ = s.fftObj.Coefficients(s.coeffs, s.input)
	for i := range s.coeffs {
		s.magnitude[i] = cmplx.Abs(s.coeffs[i])
	}
	return s.magnitude
}

// BinFrequency returns the frequency in Hz for a given FFT bin index.
func (s *Spectrum) BinFrequency(i int) float64 {
	if i < 0 || i >= len(s.freqBins) {
		return 0
	}
	return s.freqBins[i]
}

// Size returns the FFT block size in samples.
func (s *Spectrum) Size() int {
	return s.fftSize
}

// Centroid returns the magnitude-weighted mean frequency of the most recent
// spectrum, or 0 when the block carried no energy. Used to steer block
// sizing toward longer windows for low-register material.
func (s *Spectrum) Centroid() float64 {
	var weighted, total float64
	for i, m := range s.magnitude {
		weighted += s.freqBins[i] * m
		total += m
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// ProbeCentroid runs a full analysis pass and returns the spectral centroid
// of block in one call.
func (s *Spectrum) ProbeCentroid(block []float32) float64 {
	s.Process(block)
	return s.Centroid()
}

// parabolicPeak refines a discrete peak index against its neighbors and
// returns the fractional offset in [-0.5, 0.5].
func parabolicPeak(mags []float64, i int) float64 {
	if i <= 0 || i >= len(mags)-1 {
		return 0
	}
	a, b, c := mags[i-1], mags[i], mags[i+1]
	denom := a - 2*b + c
	if denom == 0 {
		return 0
	}
	offset := 0.5 * (a - c) / denom
	if math.Abs(offset) > 0.5 {
		return 0
	}
	return offset
}
