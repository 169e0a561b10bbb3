// SPDX-License-Identifier: MIT
/*
Package audio implements the real-time capture front end:
- Lock-free audio capture using PortAudio
- Mono float32 sample delivery into the detection pipeline
- WAV recording of the raw input with atomic state management
- WAV file playback for offline transcription

Thread Safety:
- Uses atomic operations for recording state
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"os"
	"runtime"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"notedetect/internal/config"
	"notedetect/internal/detector"
	applog "notedetect/internal/log"
)

// inputChannels is fixed at mono: the pipeline is monophonic end to end.
const inputChannels = 1

type Engine struct {
	// Core configuration and state.
	config *config.Config

	// Detection pipeline fed from the input callback.
	detector *detector.Detector

	// Audio input handling.
	inputBuffer  []float32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *goaudio.IntBuffer // Reusable buffer for format conversion
	sampleScale float64            // float32 -> int scaling for the bit depth
}

func NewEngine(cfg *config.Config, det *detector.Detector) (engine *Engine, err error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	engine = &Engine{
		config:      cfg,
		detector:    det,
		inputBuffer: make([]float32, cfg.Detector.BufferSize*inputChannels),
		inputDevice: inputDevice,
	}

	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

// Device returns the resolved input device.
func (e *Engine) Device() *portaudio.DeviceInfo {
	return e.inputDevice
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: inputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Detector.BufferSize,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.detector.Push(e.inputBuffer[:len(in)])

	// Write to WAV file if recording
	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		for i, sample := range in {
			e.sampleBuf.Data[i] = int(float64(sample) * e.sampleScale)
		}
		e.sampleBuf.Data = e.sampleBuf.Data[:len(in)]

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Error writing to WAV file: %v", err)
		}
	}
}

func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	if err := e.StopInputStream(); err != nil {
		return err
	}

	return nil
}
