// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, it searches default locations ("config.yaml"). If no file is found, it
// uses built-in defaults. After loading, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside supported range [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}

	d := &c.Detector
	if d.BufferSize <= 0 || d.BufferSize > MaxBufferFrames {
		return fmt.Errorf("detector.buffer_size %d outside supported range (0, %d]", d.BufferSize, MaxBufferFrames)
	}
	if !isPowerOfTwo(d.BufferSize) || !isPowerOfTwo(d.LowFreqBufferSize) {
		return fmt.Errorf("detector buffer sizes must be powers of two (got %d and %d)",
			d.BufferSize, d.LowFreqBufferSize)
	}
	if d.LowFreqBufferSize < d.BufferSize {
		return fmt.Errorf("detector.low_freq_buffer_size %d must be >= detector.buffer_size %d",
			d.LowFreqBufferSize, d.BufferSize)
	}
	if d.MinFrequency <= 0 || d.MaxFrequency <= d.MinFrequency {
		return fmt.Errorf("detector frequency range [%.2f, %.2f] is invalid", d.MinFrequency, d.MaxFrequency)
	}
	if d.NoteOffThreshold >= d.NoteOnThreshold {
		return fmt.Errorf("detector.note_off_threshold %.3f must be below note_on_threshold %.3f",
			d.NoteOffThreshold, d.NoteOnThreshold)
	}
	if d.MaxAllowedPitchChange <= 0 {
		return fmt.Errorf("detector.max_allowed_pitch_change must be positive")
	}

	if c.Recording.Enabled {
		if c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
			return fmt.Errorf("recording.bit_depth %d is unsupported (use 16 or 24)", c.Recording.BitDepth)
		}
	}

	return nil
}

// isPowerOfTwo reports whether n is a positive power of 2. Powers of 2 have a
// single bit set, so n & (n-1) clears it.
func isPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// applyEnvOverrides applies NOTEDETECT_* environment variables over the loaded
// configuration. Environment wins over the file, flags win over both.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("NOTEDETECT_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("NOTEDETECT_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("NOTEDETECT_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Audio.SampleRate = fVal
		}
	}
	if val, ok := os.LookupEnv("NOTEDETECT_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("NOTEDETECT_WS_ADDR"); ok {
		cfg.Transport.WebSocketAddr = val
	}
	if val, ok := os.LookupEnv("NOTEDETECT_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("NOTEDETECT_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
}
