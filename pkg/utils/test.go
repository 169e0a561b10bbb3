package utils

import "math"

// MockNoteSink implements the note sink callbacks for testing. It records
// every call in order so tests can assert on exact event sequences.
type MockNoteSink struct {
	Calls []string
	Notes []int
}

// OnNoteOn records a note-on call.
func (m *MockNoteSink) OnNoteOn(midiNote int) {
	m.Calls = append(m.Calls, "on")
	m.Notes = append(m.Notes, midiNote)
}

// OnNoteOff records a note-off call.
func (m *MockNoteSink) OnNoteOff(midiNote int) {
	m.Calls = append(m.Calls, "off")
	m.Notes = append(m.Notes, midiNote)
}

// Reset clears the recorded calls.
func (m *MockNoteSink) Reset() {
	m.Calls = m.Calls[:0]
	m.Notes = m.Notes[:0]
}

func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
	return buffer
}

func GenerateComplexWave(size int, sampleRate, fundamental, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*fundamental*tm)*0.5 +
			math.Sin(2*math.Pi*2*fundamental*tm)*0.3 +
			math.Sin(2*math.Pi*3*fundamental*tm)*0.2 // fundamental + harmonics
		buffer[i] = float32(signal * amplitude)
	}
	return buffer
}

// GenerateSilence returns a zeroed sample buffer.
func GenerateSilence(size int) []float32 {
	return make([]float32, size)
}

func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
