// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the pitch detection engine.
const (
	// Default values for the audio input configuration
	DefaultDeviceID   = MinDeviceID // Default to system default device
	DefaultSampleRate = 44100       // CD-quality audio
	DefaultLowLatency = false       // Standard latency mode
	DefaultCommand    = ""          // No command by default
	DefaultVerbosity  = false       // Quiet operation

	// Default values for the detection pipeline
	DefaultBufferSize            = 512     // Short analysis block (fast response)
	DefaultLowFreqBufferSize     = 1024    // Long analysis block (low-frequency resolution)
	DefaultMinFrequency          = 27.5    // A0, lowest piano key
	DefaultMaxFrequency          = 4186.01 // C8, highest piano key
	DefaultNoteOnThreshold       = 0.05    // Peak amplitude to open the gate
	DefaultNoteOffThreshold      = 0.03    // Peak amplitude to close the gate
	DefaultPYINThreshold         = 0.1     // Kernel sensitivity threshold
	DefaultMaxAllowedPitchChange = 1.5     // Semitones per block before retrigger
	DefaultAdaptiveBuffering     = true    // Switch to the long block for low centroids
	DefaultSilenceThreshold      = 0.01    // Peak amplitude treated as silence

	// Frequency breakpoints used by the pipeline
	VeryLowFreqThreshold  = 100.0 // Below this centroid the long block is preferred
	LowFrequencyThreshold = 200.0 // Below this the quantizer tolerance tightens

	// Default transport endpoints
	DefaultWebSocketAddr    = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"

	// Streaming path sizing
	HopSize  = 32   // Samples between kernel invocations on the ring path
	RingSize = 4096 // Capacity of the shared kernel ring buffer

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum samples per analysis block (power of 2)
)

// Config represents the main application configuration structure, loaded from
// YAML and/or overridden by command line flags.
type Config struct {
	Debug    bool   `yaml:"debug"`             // Enable debug mode (verbose logging).
	LogLevel string `yaml:"log_level"`         // Logging level (e.g., "debug", "info", "warn", "error").
	Command  string `yaml:"command,omitempty"` // A one-off command to execute instead of running the engine (e.g., "list").
	TUIMode  bool   `yaml:"-"`                 // Terminal UI mode enabled (CLI only).
	Headless bool   `yaml:"headless"`          // Disable the terminal UI, log events instead.

	Audio     AudioConfig     `yaml:"audio"`     // Audio input settings.
	Detector  DetectorConfig  `yaml:"detector"`  // Pitch detection pipeline settings.
	Recording RecordingConfig `yaml:"recording"` // Audio recording settings.
	Transport TransportConfig `yaml:"transport"` // Note event transport settings.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"` // PortAudio device index for audio input (-1 for default).
	SampleRate  float64 `yaml:"sample_rate"`  // Sample rate in Hz (e.g., 44100, 48000).
	LowLatency  bool    `yaml:"low_latency"`  // Request low latency settings from PortAudio device.
	InputFile   string  `yaml:"-"`            // WAV file to transcribe instead of live input (CLI only).
}

// DetectorConfig holds the tunables of the pitch detection pipeline.
type DetectorConfig struct {
	BufferSize            int     `yaml:"buffer_size"`              // Short analysis block size in samples.
	LowFreqBufferSize     int     `yaml:"low_freq_buffer_size"`     // Long analysis block size in samples.
	MinFrequency          float64 `yaml:"min_frequency"`            // Lowest detectable frequency (Hz).
	MaxFrequency          float64 `yaml:"max_frequency"`            // Highest detectable frequency (Hz).
	NoteOnThreshold       float64 `yaml:"note_on_threshold"`        // Gate-open peak amplitude.
	NoteOffThreshold      float64 `yaml:"note_off_threshold"`       // Gate-close peak amplitude.
	PYINThreshold         float64 `yaml:"pyin_threshold"`           // Kernel sensitivity threshold.
	MaxAllowedPitchChange float64 `yaml:"max_allowed_pitch_change"` // Semitones per block before retrigger.
	AdaptiveBuffering     bool    `yaml:"adaptive_buffering"`       // Enable long-block fallback for low centroids.
	SilenceThreshold      float64 `yaml:"silence_threshold"`        // Peak amplitude treated as silence.
}

// RecordingConfig holds settings related to recording the live input while detecting.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Enable audio recording to file.
	OutputFile string `yaml:"output_file"` // Output file path for recordings.
	BitDepth   int    `yaml:"bit_depth"`   // Bit depth for recorded audio (16 or 24).
}

// TransportConfig holds settings related to publishing note events.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`  // Enable the WebSocket event broadcaster.
	WebSocketAddr    string `yaml:"websocket_addr"`     // Listen address for the WebSocket server (e.g., ":8080").
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Enable sending note events over UDP.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
}

// NewConfig creates a new Config instance with default values. This is the base
// configuration before applying a YAML file or command line arguments.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Command:  DefaultCommand,
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			LowLatency:  DefaultLowLatency,
		},
		Detector: DetectorConfig{
			BufferSize:            DefaultBufferSize,
			LowFreqBufferSize:     DefaultLowFreqBufferSize,
			MinFrequency:          DefaultMinFrequency,
			MaxFrequency:          DefaultMaxFrequency,
			NoteOnThreshold:       DefaultNoteOnThreshold,
			NoteOffThreshold:      DefaultNoteOffThreshold,
			PYINThreshold:         DefaultPYINThreshold,
			MaxAllowedPitchChange: DefaultMaxAllowedPitchChange,
			AdaptiveBuffering:     DefaultAdaptiveBuffering,
			SilenceThreshold:      DefaultSilenceThreshold,
		},
		Recording: RecordingConfig{
			Enabled:    false,
			OutputFile: "",
			BitDepth:   16,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTargetAddress,
		},
	}
}
