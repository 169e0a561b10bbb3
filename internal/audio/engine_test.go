// SPDX-License-Identifier: MIT
package audio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"

	"notedetect/internal/config"
	"notedetect/internal/detector"
	"notedetect/pkg/utils"
)

func mockDefaultDevice(t *testing.T) *portaudio.DeviceInfo {
	t.Helper()
	dev := &portaudio.DeviceInfo{
		Name:                    "mock default",
		MaxInputChannels:        1,
		DefaultSampleRate:       44100,
		DefaultLowInputLatency:  5 * time.Millisecond,
		DefaultHighInputLatency: 20 * time.Millisecond,
	}

	orig := paDefaultInputDeviceFunc
	t.Cleanup(func() { paDefaultInputDeviceFunc = orig })
	paDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return dev, nil
	}
	return dev
}

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *utils.MockNoteSink) {
	t.Helper()
	sink := &utils.MockNoteSink{}
	det, err := detector.New(cfg, cfg.Audio.SampleRate, sink)
	if err != nil {
		t.Fatalf("detector.New: %v", err)
	}
	engine, err := NewEngine(cfg, det)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, sink
}

func TestNewEngineLatencySelection(t *testing.T) {
	dev := mockDefaultDevice(t)

	cfg := config.NewConfig()
	engine, _ := newTestEngine(t, cfg)
	if engine.inputLatency != dev.DefaultHighInputLatency {
		t.Errorf("latency = %v, want high %v", engine.inputLatency, dev.DefaultHighInputLatency)
	}

	cfg.Audio.LowLatency = true
	engine, _ = newTestEngine(t, cfg)
	if engine.inputLatency != dev.DefaultLowInputLatency {
		t.Errorf("latency = %v, want low %v", engine.inputLatency, dev.DefaultLowInputLatency)
	}
	if engine.Device() != dev {
		t.Error("Device() did not return the resolved input device")
	}
}

// The callback path end to end: synthetic input through the engine drives
// the detector's note events without a live stream.
func TestEngineCallbackDrivesDetection(t *testing.T) {
	mockDefaultDevice(t)

	cfg := config.NewConfig()
	engine, sink := newTestEngine(t, cfg)

	wave := utils.GenerateSineWave(cfg.Detector.BufferSize*30, cfg.Audio.SampleRate, 440.0, 0.3)
	for i := 0; i < len(wave); i += cfg.Detector.BufferSize {
		engine.processInputStream(wave[i : i+cfg.Detector.BufferSize])
	}

	if len(sink.Calls) == 0 || sink.Calls[0] != "on" || sink.Notes[0] != 69 {
		t.Fatalf("events = %v %v, want on(69)", sink.Calls, sink.Notes)
	}
}

func TestEngineRecordingRoundTrip(t *testing.T) {
	mockDefaultDevice(t)

	cfg := config.NewConfig()
	engine, _ := newTestEngine(t, cfg)

	path := filepath.Join(t.TempDir(), "input.wav")
	if err := engine.StartRecording(path); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := engine.StartRecording(path); err == nil {
		t.Error("second StartRecording succeeded, want already-recording error")
	}

	frames := cfg.Detector.BufferSize * 10
	wave := utils.GenerateSineWave(frames, cfg.Audio.SampleRate, 440.0, 0.3)
	for i := 0; i < frames; i += cfg.Detector.BufferSize {
		engine.processInputStream(wave[i : i+cfg.Detector.BufferSize])
	}

	if err := engine.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if err := engine.StopRecording(); err != nil {
		t.Errorf("idempotent StopRecording: %v", err)
	}

	src, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV: %v", err)
	}
	defer src.Close()

	if got := src.SampleRate(); got != cfg.Audio.SampleRate {
		t.Errorf("recorded sample rate = %f, want %f", got, cfg.Audio.SampleRate)
	}

	var total int
	var peak float32
	err = src.Stream(func(chunk []float32) {
		total += len(chunk)
		for _, s := range chunk {
			if s > peak {
				peak = s
			}
		}
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if total != frames {
		t.Errorf("recorded %d frames, want %d", total, frames)
	}
	if peak < 0.25 || peak > 0.35 {
		t.Errorf("recorded peak = %f, want near 0.3", peak)
	}
}
