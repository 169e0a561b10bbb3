// SPDX-License-Identifier: MIT

// Package transport publishes note events to external consumers. Every
// transport receives the same events from a Fanout sitting behind the
// detection pipeline; slow consumers drop rather than block.
package transport

import (
	"sync"
	"time"

	applog "notedetect/internal/log"
	"notedetect/internal/note"
)

// Transport defines a generic interface for publishing note events.
// Implementations must be thread-safe and must not block in Send.
type Transport interface {
	Send(event note.Event) error
	Close() error
}

// Fanout receives note callbacks from the detector and republishes them as
// timestamped events to every registered transport. It is the bridge
// between the synchronous detection path and the asynchronous consumers.
type Fanout struct {
	mu         sync.Mutex
	transports []Transport
	table      *note.Table
}

// NewFanout creates a fanout over the given transports.
func NewFanout(transports ...Transport) *Fanout {
	return &Fanout{
		transports: transports,
		table:      note.NewTable(),
	}
}

// Add registers another transport.
func (f *Fanout) Add(t Transport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transports = append(f.transports, t)
}

// OnNoteOn implements the detector's sink contract.
func (f *Fanout) OnNoteOn(midiNote int) {
	f.emit(note.NoteOn, midiNote)
}

// OnNoteOff implements the detector's sink contract.
func (f *Fanout) OnNoteOff(midiNote int) {
	f.emit(note.NoteOff, midiNote)
}

func (f *Fanout) emit(t note.EventType, midiNote int) {
	event := note.Event{
		Type:      t,
		Note:      midiNote,
		Name:      note.Name(midiNote),
		Frequency: f.table.Frequency(midiNote),
		Timestamp: time.Now().UnixNano(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.transports {
		if err := tr.Send(event); err != nil {
			applog.Debugf("Fanout: transport send failed: %v", err)
		}
	}
}

// Close closes every registered transport, returning the first error.
func (f *Fanout) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var first error
	for _, tr := range f.transports {
		if err := tr.Close(); err != nil && first == nil {
			first = err
		}
	}
	f.transports = nil
	return first
}

// Ensure Fanout satisfies the sink contract at compile time.
var _ note.Sink = (*Fanout)(nil)
