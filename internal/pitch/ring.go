// SPDX-License-Identifier: MIT
package pitch

import "fmt"

// Hop is the number of samples between kernel invocations on the streaming
// path.
const Hop = 32

const hopMask = Hop - 1

// Ring feeds incoming samples into the kernel's ring memory and fires the
// kernel once per hop. It is the sole writer of the write index; the kernel
// only ever reads behind it.
type Ring struct {
	kernel Kernel
	buf    []float32
	mask   int

	writeIndex int
	onEstimate func(freq float64)
}

// NewRing validates the kernel's reported memory region and wires the
// per-hop estimate callback. An error here means the kernel cannot be
// driven safely and the caller must fall back to block accumulation.
func NewRing(kernel Kernel, onEstimate func(freq float64)) (*Ring, error) {
	buf := kernel.Ring()
	if len(buf) == 0 {
		return nil, fmt.Errorf("kernel reports no ring memory")
	}
	if len(buf)&(len(buf)-1) != 0 {
		return nil, fmt.Errorf("kernel ring size %d is not a power of 2", len(buf))
	}
	if len(buf) < 2*Hop {
		return nil, fmt.Errorf("kernel ring size %d below minimum %d", len(buf), 2*Hop)
	}

	return &Ring{
		kernel:     kernel,
		buf:        buf,
		mask:       len(buf) - 1,
		onEstimate: onEstimate,
	}, nil
}

// Write copies samples into the ring one at a time, invoking the kernel at
// every hop boundary. Chunks of arbitrary length are fine; hop boundaries
// falling mid-chunk fire mid-copy so estimates never lag a full chunk.
func (r *Ring) Write(samples []float32) {
	for _, s := range samples {
		r.buf[r.writeIndex&r.mask] = s
		r.writeIndex++
		if r.writeIndex&hopMask == 0 {
			r.onEstimate(r.kernel.Process(r.writeIndex & r.mask))
		}
	}
}

// WriteIndex returns the total number of samples written.
func (r *Ring) WriteIndex() int {
	return r.writeIndex
}

// Reset rewinds the write position and zeroes the kernel memory so stale
// samples cannot leak into the first estimates after a reinitialization.
func (r *Ring) Reset() {
	r.writeIndex = 0
	for i := range r.buf {
		r.buf[i] = 0
	}
}
