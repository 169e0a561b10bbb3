// SPDX-License-Identifier: MIT

// Package pitch contains the pitch-estimation kernel boundary and the
// ring-buffer ingestion that drives it. Kernels are interchangeable behind
// the Kernel interface; YINKernel is the pure-Go implementation used when
// no external estimator is linked in.
package pitch

// Kernel is the pitch-estimation boundary. The ingestion side writes
// samples directly into the slice returned by Ring and signals the kernel
// once per hop with the current write index; the kernel reads backwards
// from that index and returns its best frequency estimate.
//
// Implementations must return from Process within the time budget of one
// hop. A kernel is usable only after a successful Init.
type Kernel interface {
	// Init prepares the kernel for the given sample rate. It must be
	// called before any other method and again after a rate change.
	Init(sampleRate float64) error

	// Ring exposes the kernel's sample memory. The returned slice is the
	// region ingestion writes into; its length is the ring capacity.
	Ring() []float32

	// Process estimates the fundamental of the most recent analysis
	// window ending at writeIndex (exclusive, modulo the ring length).
	// It returns the frequency in Hz, or 0 when no pitch was found.
	Process(writeIndex int) float64

	// Estimate runs the same estimator over a standalone sample block,
	// bypassing the ring. Used by the block-accumulation path.
	Estimate(block []float32) float64
}
