// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// transcribeChunk is the number of frames read from a WAV file per Stream
// iteration.
const transcribeChunk = 4096

// WAVSource reads a WAV file and exposes it as a mono float32 sample
// stream, the same shape the live capture path delivers. Multi-channel
// files are downmixed by averaging.
type WAVSource struct {
	file    *os.File
	decoder *wav.Decoder
}

// OpenWAV opens and validates a WAV file.
func OpenWAV(path string) (*WAVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	return &WAVSource{file: file, decoder: decoder}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *WAVSource) SampleRate() float64 {
	return float64(s.decoder.SampleRate)
}

// Duration returns the total file duration, when the header allows
// computing it.
func (s *WAVSource) Duration() (float64, error) {
	d, err := s.decoder.Duration()
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

// Stream decodes the file in chunks, downmixes to mono and hands each
// chunk to push. It returns once the file is exhausted.
func (s *WAVSource) Stream(push func([]float32)) error {
	channels := int(s.decoder.NumChans)
	if channels == 0 {
		return fmt.Errorf("WAV header reports zero channels")
	}

	bitDepth := int(s.decoder.BitDepth)
	scale := float32(int(1) << (bitDepth - 1))

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  int(s.decoder.SampleRate),
		},
		Data: make([]int, transcribeChunk*channels),
	}
	mono := make([]float32, transcribeChunk)

	for {
		n, err := s.decoder.PCMBuffer(buf)
		if err != nil && err != io.EOF {
			return err
		}
		if n == 0 {
			return nil
		}

		frames := n / channels
		for f := 0; f < frames; f++ {
			var sum float32
			for c := 0; c < channels; c++ {
				sum += float32(buf.Data[f*channels+c]) / scale
			}
			mono[f] = sum / float32(channels)
		}
		push(mono[:frames])

		if err == io.EOF || n < len(buf.Data) {
			return nil
		}
	}
}

// Close releases the underlying file.
func (s *WAVSource) Close() error {
	return s.file.Close()
}
