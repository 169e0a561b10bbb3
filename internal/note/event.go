// SPDX-License-Identifier: MIT
package note

// EventType distinguishes the two callback events.
type EventType uint8

const (
	NoteOff EventType = iota
	NoteOn
)

// String returns "on" or "off".
func (t EventType) String() string {
	if t == NoteOn {
		return "on"
	}
	return "off"
}

// Event is a single note transition as published to transports. The emitter
// itself works through the Sink callbacks; Event exists for consumers that
// want a serializable record.
type Event struct {
	Type      EventType `json:"type"`
	Note      int       `json:"note"`
	Name      string    `json:"name"`
	Frequency float64   `json:"frequency"`
	Timestamp int64     `json:"timestamp"` // nanoseconds since epoch
}

// Sink receives note transitions synchronously from block processing.
// Implementations must not block: anything slow belongs behind a buffered
// channel.
type Sink interface {
	OnNoteOn(midiNote int)
	OnNoteOff(midiNote int)
}
