// Package debug provides a scrollable overlay listing stream transitions.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/aarishlakhani/AI-recipe-gen/internal/theme"
)

const maxEntries = 200

// Entry is a single log line. Kind is a stream update reason ("started",
// "chunk", "closed", "errored", "superseded", "shutdown") or "app".
type Entry struct {
	Time    time.Time
	Session uint64
	Kind    string
	Message string
}

// Model holds debug log state.
type Model struct {
	Entries []Entry
	Offset  int // lines scrolled up from the bottom
}

func New() Model {
	return Model{}
}

// Add appends an entry and caps the buffer. New entries snap the view back
// to the bottom.
func (m *Model) Add(session uint64, kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Session: session,
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

func (m *Model) Addf(session uint64, kind, format string, args ...interface{}) {
	m.Add(session, kind, fmt.Sprintf(format, args...))
}

func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

// View renders the log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 20)
	visible := max(height-6, 3)

	title := theme.StyleHeader.Render(" STREAM LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("↑/↓:scroll  esc:close  %d entries", len(m.Entries)))

	panel := lipgloss.NewStyle().
		Width(innerW).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  Nothing streamed yet.")
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
	}

	end := max(len(m.Entries)-m.Offset, 0)
	start := max(end-visible, 0)

	lines := make([]string, 0, end-start)
	for _, e := range m.Entries[start:end] {
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kind := lipgloss.NewStyle().Foreground(theme.ReasonColor(e.Kind)).Width(10).Render(e.Kind)
		sess := theme.StyleDimmed.Render(fmt.Sprintf("#%-3d", e.Session))
		msg := strings.ReplaceAll(e.Message, "\n", "⏎")
		if limit := innerW - 32; limit > 3 && len(msg) > limit {
			msg = msg[:limit-3] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s", ts, sess, kind, msg))
	}

	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"), more, help))
}
