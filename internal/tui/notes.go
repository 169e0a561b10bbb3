// SPDX-License-Identifier: MIT

// Package tui renders a live note monitor in the terminal: the sounding
// note front and center, with a scrolling log of recent events.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notedetect/internal/note"
)

// historyLimit caps the number of events kept in the scrolling log.
const historyLimit = 200

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true).
			Padding(0, 2)

	silentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 2)
)

type noteEventMsg note.Event

// NoteMonitorModel is the Bubble Tea model behind the live monitor.
type NoteMonitorModel struct {
	current  note.Event
	sounding bool
	history  []note.Event
	total    int

	viewport viewport.Model
	ready    bool
}

// NewNoteMonitorModel creates an empty monitor model.
func NewNoteMonitorModel() NoteMonitorModel {
	return NoteMonitorModel{}
}

// Init implements tea.Model.
func (m NoteMonitorModel) Init() tea.Cmd {
	return nil
}

// Update handles note events, resize and key input.
func (m NoteMonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-7)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			m.viewport.SetContent(m.renderHistory())
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 7
		}

	case noteEventMsg:
		event := note.Event(msg)
		m.total++
		m.sounding = event.Type == note.NoteOn
		if m.sounding {
			m.current = event
		}

		m.history = append(m.history, event)
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
		if m.ready {
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))):
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("c"))):
			m.history = nil
			if m.ready {
				m.viewport.SetContent(m.renderHistory())
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m NoteMonitorModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Note Monitor")

	var current string
	if m.sounding {
		current = noteStyle.Render(fmt.Sprintf("♪ %s  (midi %d, %.2f Hz)",
			m.current.Name, m.current.Note, m.current.Frequency))
	} else {
		current = silentStyle.Render("· silence ·")
	}

	status := infoStyle.Render(fmt.Sprintf("%d events", m.total))
	help := infoStyle.Render("c: Clear Log • q: Quit")

	return fmt.Sprintf("%s\n\n%s  %s\n\n%s\n\n%s",
		title, current, status, m.viewport.View(), help)
}

// renderHistory formats the scrolling event log.
func (m NoteMonitorModel) renderHistory() string {
	if len(m.history) == 0 {
		return "Waiting for notes..."
	}

	var sb strings.Builder
	for _, event := range m.history {
		ts := time.Unix(0, event.Timestamp).Format("15:04:05.000")
		line := fmt.Sprintf("%s  %-3s %-4s midi %3d  %8.2f Hz\n",
			ts, event.Type, event.Name, event.Note, event.Frequency)
		if event.Type == note.NoteOn {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Monitor runs the note monitor program and doubles as an event transport:
// Send feeds detection events into the UI loop.
type Monitor struct {
	program *tea.Program
}

// NewMonitor creates the monitor program.
func NewMonitor() *Monitor {
	return &Monitor{
		program: tea.NewProgram(
			NewNoteMonitorModel(),
			tea.WithAltScreen(),
		),
	}
}

// Run blocks until the user quits.
func (m *Monitor) Run() error {
	_, err := m.program.Run()
	return err
}

// Send delivers a note event to the UI loop in order.
func (m *Monitor) Send(event note.Event) error {
	m.program.Send(noteEventMsg(event))
	return nil
}

// Close stops the UI loop.
func (m *Monitor) Close() error {
	m.program.Quit()
	return nil
}
