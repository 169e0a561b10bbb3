// SPDX-License-Identifier: MIT

// Package detector assembles the full pitch-to-note pipeline: amplitude
// gating, adaptive block sizing, candidate generation, quantization,
// stability filtering, HMM smoothing and note event emission.
package detector

import (
	"math"
	"sync"

	"notedetect/internal/config"
	"notedetect/internal/dsp"
	applog "notedetect/internal/log"
	"notedetect/internal/note"
	"notedetect/internal/pitch"
)

const (
	// Candidate-generation fallback thresholds.
	kernelConfidenceFloor = 0.4
	lowFreqKernelFloor    = 0.3
	spectralConfidenceCap = 0.7

	// Semitone distance within which the smoother's note wins over the
	// deterministic candidate.
	resolverAgreementSpan = 2

	defaultCooldownBlocks = 4
)

// Detector consumes raw sample chunks and drives note on/off callbacks.
// All processing happens synchronously inside Push; the mutex exists only
// to make Reinit atomic with respect to block processing.
type Detector struct {
	mu sync.Mutex

	cfg        config.DetectorConfig
	sampleRate float64

	kernel   pitch.Kernel
	ring     *pitch.Ring // nil when the streaming path failed validation
	spectrum *dsp.Spectrum
	hps      *dsp.HPS
	analyzer *dsp.Analyzer

	quantizer *note.Quantizer
	hist      note.StabilityFilter
	stream    *note.StreamFilter
	smoother  *note.Smoother
	tracker   *note.Tracker

	accum    []float32
	accumLen int

	isNoteOn bool
	paused   bool
	cooldown int // blocks still to skip after a resume

	samplesSeen   int64
	obsScratch    [1]note.Observation
	lastFrequency float64
}

// New builds a detector from the configured thresholds and block sizes.
// The sink receives note events synchronously from Push.
func New(cfg *config.Config, sampleRate float64, sink note.Sink) (*Detector, error) {
	dc := cfg.Detector

	kernel, err := pitch.NewYINKernel(dc.BufferSize, config.RingSize, dc.PYINThreshold)
	if err != nil {
		return nil, err
	}
	if err := kernel.Init(sampleRate); err != nil {
		return nil, err
	}

	table := note.NewTable()

	d := &Detector{
		cfg:        dc,
		sampleRate: sampleRate,
		kernel:     kernel,
		spectrum:   dsp.NewSpectrum(dc.BufferSize, sampleRate),
		hps:        dsp.NewHPS(dc.LowFreqBufferSize, sampleRate, config.VeryLowFreqThreshold),
		analyzer:   dsp.NewAnalyzer(sampleRate, dc.MinFrequency, dc.MaxFrequency),
		quantizer:  note.NewQuantizer(table, dc.MinFrequency, dc.MaxFrequency, config.LowFrequencyThreshold),
		stream:     note.NewStreamFilter(2 * dc.BufferSize / config.HopSize),
		smoother:   note.NewSmoother(),
		tracker:    note.NewTracker(dc.MaxAllowedPitchChange, sink),
		accum:      make([]float32, 0, config.MaxBufferFrames),
	}

	ring, err := pitch.NewRing(kernel, d.onStreamEstimate)
	if err != nil {
		applog.Warnf("streaming pitch path unavailable, using block accumulation only: %v", err)
	} else {
		d.ring = ring
	}

	return d, nil
}

// Push feeds a chunk of samples of arbitrary length. Whole blocks are
// processed to completion before Push returns; any remainder is retained
// for the next call.
func (d *Detector) Push(samples []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.paused {
		return
	}

	d.accum = append(d.accum, samples...)
	d.accumLen = len(d.accum)
	if d.ring != nil {
		d.ring.Write(samples)
	}

	for {
		required := d.cfg.BufferSize
		if d.accumLen < required {
			break
		}

		if d.cooldown > 0 {
			d.cooldown--
			d.consume(required)
			continue
		}

		block := d.accum[:required]
		peak := peakAmplitude(block)

		if !d.gate(peak) {
			d.releaseNote()
			d.consume(required)
			continue
		}

		// Low-register material gets the longer block when the probe says
		// the energy sits below the very-low-frequency threshold.
		if d.cfg.AdaptiveBuffering && required < d.cfg.LowFreqBufferSize {
			if c := d.spectrum.ProbeCentroid(block); c > 0 && c < config.VeryLowFreqThreshold {
				if d.accumLen < d.cfg.LowFreqBufferSize {
					return // keep accumulating for this cycle
				}
				required = d.cfg.LowFreqBufferSize
				block = d.accum[:required]
				peak = peakAmplitude(block)
			}
		}

		d.processBlock(block, peak, required > d.cfg.BufferSize)
		d.consume(required)
	}
}

// gate updates the hysteresis state from the block peak and reports
// whether pitch estimation should run.
func (d *Detector) gate(peak float64) bool {
	if peak < d.cfg.SilenceThreshold {
		d.isNoteOn = false
		return false
	}
	if d.isNoteOn {
		if peak < d.cfg.NoteOffThreshold {
			d.isNoteOn = false
		}
	} else if peak > d.cfg.NoteOnThreshold {
		d.isNoteOn = true
	}
	return d.isNoteOn
}

// processBlock runs candidate generation and the full decision chain for
// one gated block.
func (d *Detector) processBlock(block []float32, peak float64, lowFreq bool) {
	freq, conf, profile := d.candidate(block, lowFreq)
	midi := note.NoPitch
	if freq > 0 {
		midi = d.quantizer.Quantize(freq)
	}
	if midi != note.NoPitch {
		d.lastFrequency = freq
	}

	weight := conf * profile.Clarity
	if lowFreq {
		weight *= amplitudeSufficiency(peak, d.cfg.NoteOnThreshold)
	}
	if midi != note.NoPitch && weight > 0 {
		d.obsScratch[0] = note.Observation{Note: midi, Weight: weight}
		d.smoother.Update(d.obsScratch[:])
	} else {
		d.smoother.Update(nil)
	}

	target := d.resolve(midi)

	// Stability is judged against prior blocks only; the frame under
	// evaluation must not corroborate itself.
	stable := d.hist.IsStable(target)
	if !stable && d.ring != nil {
		stable = d.stream.IsStable(target)
	}
	d.hist.Push(midi, conf, float64(d.samplesSeen)/d.sampleRate)

	if d.tracker.Advance(target, stable) {
		// A guarded jump means the smoother was lagging a real retrigger.
		d.smoother.Reset()
	}
}

// candidate implements the estimation cascade: boundary kernel first, top
// autocorrelation peak when the kernel result is weak, harmonic product
// spectrum for weak low-frequency blocks.
func (d *Detector) candidate(block []float32, lowFreq bool) (freq, conf float64, profile dsp.Profile) {
	profile = d.analyzer.Analyze(block)

	freq = d.kernel.Estimate(block)
	conf = d.analyzer.PitchConfidence(block, freq)

	if lowFreq && conf < lowFreqKernelFloor {
		if f, c := d.hps.Estimate(block); f > 0 {
			return f, c, profile
		}
	}

	if freq == 0 || conf < kernelConfidenceFloor {
		if len(profile.Peaks) == 0 {
			return 0, 0, profile
		}
		freq = profile.Peaks[0].Frequency
		conf = math.Min(spectralConfidenceCap, profile.Clarity)
	}
	return freq, conf, profile
}

// resolve reconciles the smoother's most probable note with the
// deterministic candidate: close disagreement defers to the smoother,
// large disagreement is treated as smoother lag.
func (d *Detector) resolve(midi int) int {
	if midi == note.NoPitch {
		return note.NoPitch
	}
	best := d.smoother.Best()
	if best != note.NoPitch && abs(best-midi) <= resolverAgreementSpan {
		return best
	}
	return midi
}

// onStreamEstimate receives the per-hop kernel result on the ring path.
// It only feeds the streaming stability filter; event decisions stay on
// the block path.
func (d *Detector) onStreamEstimate(freq float64) {
	midi := note.NoPitch
	if freq > 0 {
		midi = d.quantizer.Quantize(freq)
	}
	d.stream.Push(midi)
}

// releaseNote turns off any sounding note when the gate closes.
func (d *Detector) releaseNote() {
	d.tracker.Advance(note.NoPitch, false)
	d.hist.Push(note.NoPitch, 0, float64(d.samplesSeen)/d.sampleRate)
}

// consume drops n processed samples from the accumulation buffer.
func (d *Detector) consume(n int) {
	copy(d.accum, d.accum[n:])
	d.accum = d.accum[:d.accumLen-n]
	d.accumLen = len(d.accum)
	d.samplesSeen += int64(n)
}

// Pause suspends all processing. Incoming samples are dropped until
// Resume.
func (d *Detector) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = true
	d.tracker.Reset()
}

// Resume re-enables processing after a cooldown of a few blocks, long
// enough for transient jitter from a seek or loop to pass.
func (d *Detector) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.paused {
		return
	}
	d.paused = false
	d.cooldown = defaultCooldownBlocks
}

// Reset clears all runtime state: gate, filters, smoother, accumulation
// and any sounding note. Configuration and allocations are kept.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *Detector) reset() {
	d.tracker.Reset()
	d.hist.Reset()
	d.stream.Reset()
	d.smoother.Reset()
	if d.ring != nil {
		d.ring.Reset()
	}
	d.accum = d.accum[:0]
	d.accumLen = 0
	d.isNoteOn = false
	d.cooldown = 0
	d.lastFrequency = 0
}

// Reinit rebuilds the rate-dependent components for a new sample rate and
// resets all state. No block is ever processed against a half-built
// pipeline: Reinit holds the same lock as Push.
func (d *Detector) Reinit(sampleRate float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.kernel.Init(sampleRate); err != nil {
		return err
	}
	d.sampleRate = sampleRate
	d.spectrum = dsp.NewSpectrum(d.cfg.BufferSize, sampleRate)
	d.hps = dsp.NewHPS(d.cfg.LowFreqBufferSize, sampleRate, config.VeryLowFreqThreshold)
	d.analyzer = dsp.NewAnalyzer(sampleRate, d.cfg.MinFrequency, d.cfg.MaxFrequency)
	d.samplesSeen = 0
	d.reset()
	return nil
}

// CurrentNote returns the sounding note, or note.NoPitch.
func (d *Detector) CurrentNote() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracker.Active()
}

// LastFrequency returns the most recent accepted frequency estimate.
func (d *Detector) LastFrequency() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastFrequency
}

// StreamingActive reports whether the ring-buffer path passed validation.
func (d *Detector) StreamingActive() bool {
	return d.ring != nil
}

func peakAmplitude(block []float32) float64 {
	var peak float64
	for _, s := range block {
		v := math.Abs(float64(s))
		if v > peak {
			peak = v
		}
	}
	return peak
}

func amplitudeSufficiency(peak, noteOnThreshold float64) float64 {
	s := peak / (2 * noteOnThreshold)
	if s > 1 {
		return 1
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
