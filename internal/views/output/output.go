// Package output renders the streamed recipe as markdown in a scrollable
// viewport. While following, new text scrolls into view on a spring.
package output

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
)

const fps = 60

// FrameMsg advances the scroll animation of the output panel with the given id.
type FrameMsg struct{ id int64 }

var lastID atomic.Int64

// Model is the output panel.
type Model struct {
	id        int64
	style     string
	viewport  viewport.Model
	renderer  *glamour.TermRenderer
	raw       string
	spring    harmonica.Spring
	pos, vel  float64
	animating bool
	follow    bool
}

// New creates an empty panel. style is a glamour standard style name such
// as "dark", "light" or "notty".
func New(style string) Model {
	return Model{
		id:       lastID.Add(1),
		style:    style,
		viewport: viewport.New(0, 0),
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		follow:   true,
	}
}

func (m Model) Empty() bool { return m.raw == "" }

// Text returns the raw markdown last set.
func (m Model) Text() string { return m.raw }

// Following reports whether the panel tracks the end of the text.
func (m Model) Following() bool { return m.follow }

// SetSize resizes the panel and rebuilds the renderer for the new wrap width.
func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(max(width-2, 10)),
	)
	if err == nil {
		m.renderer = r
	}
	m.render()
}

// SetText replaces the displayed markdown. It returns a command that starts
// the follow animation when the content grew past the visible area.
func (m *Model) SetText(text string) tea.Cmd {
	if text == m.raw {
		return nil
	}
	if text == "" || !strings.HasPrefix(text, m.raw) {
		m.follow = true
		m.pos, m.vel = 0, 0
		m.viewport.GotoTop()
	}
	m.raw = text
	m.render()
	if !m.follow {
		return nil
	}
	return m.animate()
}

func (m *Model) render() {
	content := m.raw
	if m.renderer != nil && content != "" {
		if out, err := m.renderer.Render(content); err == nil {
			content = out
		}
	}
	m.viewport.SetContent(content)
}

func (m *Model) target() float64 {
	return float64(max(m.viewport.TotalLineCount()-m.viewport.Height, 0))
}

func (m *Model) animate() tea.Cmd {
	if m.animating || math.Abs(m.target()-m.pos) < 0.5 {
		return nil
	}
	m.animating = true
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	id := m.id
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{id: id} })
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if msg.id != m.id || !m.animating {
			return m, nil
		}
		if !m.follow {
			m.animating = false
			return m, nil
		}
		target := m.target()
		m.pos, m.vel = m.spring.Update(m.pos, m.vel, target)
		if math.Abs(target-m.pos) < 0.5 && math.Abs(m.vel) < 0.5 {
			m.pos, m.vel = target, 0
			m.animating = false
		}
		m.viewport.SetYOffset(int(math.Round(m.pos)))
		if !m.animating {
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg, tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.pos = float64(m.viewport.YOffset)
		m.vel = 0
		// Scrolling away stops following; reaching the bottom resumes it.
		m.follow = m.viewport.AtBottom()
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	return m.viewport.View()
}
