package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/aarishlakhani/AI-recipe-gen/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Streaming bool
	Session   uint64
	Fragments int
	LastEnd   string // reason the previous session ended, if any

	Server    string // generator name reported by the server
	ServerErr error
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var stateStr string
	if m.Streaming {
		stateStr = lipgloss.NewStyle().Foreground(theme.ColorStreaming).Render("● Streaming")
	} else {
		stateStr = lipgloss.NewStyle().Foreground(theme.ColorIdle).Render("○ Idle")
	}

	sessionStr := "no recipe yet"
	if m.Session > 0 {
		sessionStr = fmt.Sprintf("session #%d  %d fragments", m.Session, m.Fragments)
		if !m.Streaming && m.LastEnd != "" {
			sessionStr += "  " + lipgloss.NewStyle().Foreground(theme.ReasonColor(m.LastEnd)).Render(m.LastEnd)
		}
	}

	var serverStr string
	switch {
	case m.ServerErr != nil:
		serverStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("server unreachable")
	case m.Server != "":
		serverStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("server: " + m.Server)
	default:
		serverStr = theme.StyleDimmed.Render("server: ?")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := stateStr + sep + sessionStr + sep + serverStr

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
