// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"testing"

	"notedetect/internal/note"
)

// captureTransport records events for inspection instead of transmitting.
type captureTransport struct {
	events   []note.Event
	sendErr  error
	closed   int
	closeErr error
}

func (c *captureTransport) Send(event note.Event) error {
	c.events = append(c.events, event)
	return c.sendErr
}

func (c *captureTransport) Close() error {
	c.closed++
	return c.closeErr
}

func TestFanoutEmitsToAllTransports(t *testing.T) {
	a := &captureTransport{}
	b := &captureTransport{}
	f := NewFanout(a)
	f.Add(b)

	f.OnNoteOn(69)
	f.OnNoteOff(69)

	for name, tr := range map[string]*captureTransport{"first": a, "second": b} {
		if len(tr.events) != 2 {
			t.Fatalf("%s transport got %d events, want 2", name, len(tr.events))
		}
		on, off := tr.events[0], tr.events[1]
		if on.Type != note.NoteOn || on.Note != 69 || on.Name != "A4" {
			t.Errorf("%s on event = %+v", name, on)
		}
		if on.Frequency < 439.9 || on.Frequency > 440.1 {
			t.Errorf("%s on frequency = %f, want 440", name, on.Frequency)
		}
		if on.Timestamp == 0 {
			t.Errorf("%s on event missing timestamp", name)
		}
		if off.Type != note.NoteOff || off.Note != 69 {
			t.Errorf("%s off event = %+v", name, off)
		}
	}
}

func TestFanoutContinuesPastSendErrors(t *testing.T) {
	failing := &captureTransport{sendErr: fmt.Errorf("boom")}
	healthy := &captureTransport{}
	f := NewFanout(failing, healthy)

	f.OnNoteOn(60)

	if len(healthy.events) != 1 {
		t.Errorf("healthy transport got %d events after a peer failed, want 1", len(healthy.events))
	}
}

func TestFanoutClose(t *testing.T) {
	a := &captureTransport{closeErr: fmt.Errorf("close failed")}
	b := &captureTransport{}
	f := NewFanout(a, b)

	if err := f.Close(); err == nil {
		t.Error("Close did not surface the transport error")
	}
	if a.closed != 1 || b.closed != 1 {
		t.Errorf("closed counts = %d %d, want both closed despite the error", a.closed, b.closed)
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(note.Event{Type: note.NoteOn, Note: 60, Name: "C4"}); err != nil {
		t.Errorf("Send: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
