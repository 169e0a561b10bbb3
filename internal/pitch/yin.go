// SPDX-License-Identifier: MIT
package pitch

import (
	"fmt"
	"math"
)

// YINKernel is the pure-Go pitch estimator: the YIN difference function
// with cumulative mean normalization, an absolute sensitivity threshold and
// parabolic refinement of the winning lag. All buffers are allocated up
// front; Process and Estimate are allocation-free.
type YINKernel struct {
	sampleRate float64
	threshold  float64
	window     int

	ring    []float32
	scratch []float32 // analysis window assembled from the ring
	cmndf   []float64 // normalized difference per lag, indexed [0, window/2]
}

// NewYINKernel creates a kernel with the given analysis window, ring
// capacity and sensitivity threshold. Both sizes must be powers of two and
// the ring must hold at least one window.
func NewYINKernel(window, ringSize int, threshold float64) (*YINKernel, error) {
	if window <= 0 || window&(window-1) != 0 {
		return nil, fmt.Errorf("analysis window must be a power of 2, got %d", window)
	}
	if ringSize < window || ringSize&(ringSize-1) != 0 {
		return nil, fmt.Errorf("ring size must be a power of 2 holding one window, got %d", ringSize)
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0, 1), got %f", threshold)
	}

	return &YINKernel{
		threshold: threshold,
		window:    window,
		ring:      make([]float32, ringSize),
		scratch:   make([]float32, window),
		cmndf:     make([]float64, window/2+1),
	}, nil
}

// Init records the sample rate. The kernel is unusable until this succeeds.
func (k *YINKernel) Init(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %f", sampleRate)
	}
	k.sampleRate = sampleRate
	return nil
}

// Ring returns the kernel's sample memory for ingestion to write into.
func (k *YINKernel) Ring() []float32 {
	return k.ring
}

// Process assembles the analysis window ending at writeIndex from the ring
// and estimates its fundamental.
func (k *YINKernel) Process(writeIndex int) float64 {
	mask := len(k.ring) - 1
	start := (writeIndex - k.window) & mask
	for i := range k.scratch {
		k.scratch[i] = k.ring[(start+i)&mask]
	}
	return k.Estimate(k.scratch)
}

// Estimate returns the fundamental frequency of block in Hz, or 0 when no
// lag dips below the sensitivity threshold. Blocks shorter than the
// analysis window are evaluated over the lags they support.
func (k *YINKernel) Estimate(block []float32) float64 {
	if k.sampleRate == 0 {
		return 0
	}

	maxLag := len(block) / 2
	if maxLag > k.window/2 {
		maxLag = k.window / 2
	}
	if maxLag < 2 {
		return 0
	}

	// Difference function, normalized by the cumulative mean as it goes.
	k.cmndf[0] = 1
	running := 0.0
	for lag := 1; lag <= maxLag; lag++ {
		var d float64
		for i := 0; i < len(block)-lag; i++ {
			delta := float64(block[i]) - float64(block[i+lag])
			d += delta * delta
		}
		running += d
		if running == 0 {
			k.cmndf[lag] = 1
		} else {
			k.cmndf[lag] = d * float64(lag) / running
		}
	}

	// First dip below the threshold, then slide to its local minimum.
	lag := -1
	for tau := 2; tau <= maxLag; tau++ {
		if k.cmndf[tau] < k.threshold {
			for tau+1 <= maxLag && k.cmndf[tau+1] < k.cmndf[tau] {
				tau++
			}
			lag = tau
			break
		}
	}
	if lag < 0 {
		return 0
	}

	return k.sampleRate / k.refineLag(lag, maxLag)
}

// refineLag interpolates the true minimum position between samples of the
// normalized difference function.
func (k *YINKernel) refineLag(lag, maxLag int) float64 {
	if lag <= 0 || lag >= maxLag {
		return float64(lag)
	}
	a, b, c := k.cmndf[lag-1], k.cmndf[lag], k.cmndf[lag+1]
	denom := a - 2*b + c
	if denom == 0 {
		return float64(lag)
	}
	offset := 0.5 * (a - c) / denom
	if math.Abs(offset) > 0.5 {
		return float64(lag)
	}
	return float64(lag) + offset
}
