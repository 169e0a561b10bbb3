// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"notedetect/internal/note"
)

func testEvent(t note.EventType, midi int, name string) noteEventMsg {
	return noteEventMsg(note.Event{
		Type:      t,
		Note:      midi,
		Name:      name,
		Frequency: 440.0,
		Timestamp: time.Now().UnixNano(),
	})
}

func updated(t *testing.T, m tea.Model, msg tea.Msg) NoteMonitorModel {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(NoteMonitorModel)
	if !ok {
		t.Fatalf("Update returned %T, want NoteMonitorModel", next)
	}
	return model
}

func TestNoteMonitorLifecycle(t *testing.T) {
	m := NewNoteMonitorModel()

	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before ready = %q", got)
	}

	m = updated(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if !m.ready {
		t.Fatal("model not ready after WindowSizeMsg")
	}

	m = updated(t, m, testEvent(note.NoteOn, 69, "A4"))
	if !m.sounding || m.current.Note != 69 {
		t.Errorf("sounding = %v current = %+v, want A4 sounding", m.sounding, m.current)
	}
	if !strings.Contains(m.View(), "A4") {
		t.Error("View does not show the sounding note")
	}

	m = updated(t, m, testEvent(note.NoteOff, 69, "A4"))
	if m.sounding {
		t.Error("still sounding after note off")
	}
	if !strings.Contains(m.View(), "silence") {
		t.Error("View does not show silence after note off")
	}
	if m.total != 2 || len(m.history) != 2 {
		t.Errorf("total = %d history = %d, want 2 and 2", m.total, len(m.history))
	}
}

func TestNoteMonitorHistoryCap(t *testing.T) {
	m := NewNoteMonitorModel()
	m = updated(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	for i := 0; i < historyLimit+50; i++ {
		m = updated(t, m, testEvent(note.NoteOn, 60, "C4"))
	}

	if len(m.history) != historyLimit {
		t.Errorf("history length = %d, want capped at %d", len(m.history), historyLimit)
	}
	if m.total != historyLimit+50 {
		t.Errorf("total = %d, want %d", m.total, historyLimit+50)
	}
}

func TestNoteMonitorClearKey(t *testing.T) {
	m := NewNoteMonitorModel()
	m = updated(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated(t, m, testEvent(note.NoteOn, 60, "C4"))

	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if len(m.history) != 0 {
		t.Errorf("history length = %d after clear, want 0", len(m.history))
	}
}

func TestNoteMonitorQuitKey(t *testing.T) {
	m := NewNoteMonitorModel()
	m = updated(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c produced no command, want quit")
	}
	if msg := cmd(); msg == nil {
		t.Error("quit command produced no message")
	}
}
