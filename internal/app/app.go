package app

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/aarishlakhani/AI-recipe-gen/internal/client"
	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
	"github.com/aarishlakhani/AI-recipe-gen/internal/theme"
	"github.com/aarishlakhani/AI-recipe-gen/internal/views/debug"
	"github.com/aarishlakhani/AI-recipe-gen/internal/views/form"
	"github.com/aarishlakhani/AI-recipe-gen/internal/views/output"
	"github.com/aarishlakhani/AI-recipe-gen/internal/views/status"
)

const (
	statusInterval = 5 * time.Second
	requestTimeout = 5 * time.Second
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDebug
)

// streamEventMsg carries one read from a handle's event channel. ok is false
// once the channel is closed.
type streamEventMsg struct {
	handle stream.Handle
	ev     stream.Event
	ok     bool
}

type optionsMsg struct {
	opts recipe.Options
	err  error
}

type statusMsg struct {
	status *client.Status
	err    error
}

type pollStatusMsg struct{}

// updateLog collects manager updates between Update calls. It is shared by
// pointer so copies of the model see the same buffer.
type updateLog struct {
	pending []stream.Update
}

func (l *updateLog) drain() []stream.Update {
	out := l.pending
	l.pending = nil
	return out
}

// Model is the root Bubble Tea model. It owns the stream manager: every
// Submit, Shutdown and Dispatch happens inside Update.
type Model struct {
	mgr     *stream.Manager
	http    *client.HTTPClient
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	updates *updateLog

	keys    KeyMap
	width   int
	height  int
	overlay Overlay

	// Sub-views.
	form      form.Model
	output    output.Model
	statusBar status.Model
	debug     debug.Model
}

// Option configures the root model.
type Option func(*Model)

// WithMarkdownStyle sets the glamour style of the output panel.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) { m.output = output.New(style) }
}

// New creates the root model. mgr must be fresh: the model subscribes to it.
// http may be nil, in which case the built-in options are used and no server
// status is shown.
func New(mgr *stream.Manager, http *client.HTTPClient, logger zerolog.Logger, opts ...Option) Model {
	ctx, cancel := context.WithCancel(context.Background())
	log := &updateLog{}
	mgr.Subscribe(func(u stream.Update) {
		log.pending = append(log.pending, u)
	})

	m := Model{
		mgr:       mgr,
		http:      http,
		logger:    logger.With().Str("component", "app").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		updates:   log,
		keys:      DefaultKeyMap(),
		form:      form.New(recipe.DefaultOptions()),
		output:    output.New("dark"),
		statusBar: status.New(),
		debug:     debug.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init focuses the form and asks the server for its choice lists and status.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.form.Init()}
	if m.http != nil {
		cmds = append(cmds, fetchOptions(m.ctx, m.http), fetchStatus(m.ctx, m.http))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd

	case form.SubmitMsg:
		m.mgr.Submit(msg.Request)
		cmd := m.sync()
		return m, tea.Batch(cmd, waitForEvent(m.mgr.Current()))

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case output.FrameMsg:
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd

	case optionsMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("fetch options, using defaults")
			m.debug.Add(0, "app", "options unavailable: "+msg.err.Error())
		}
		m.form = m.form.WithOptions(msg.opts)
		m.layout()
		return m, m.form.Init()

	case statusMsg:
		m.statusBar.ServerErr = msg.err
		if msg.err != nil {
			m.logger.Debug().Err(msg.err).Msg("fetch status")
		} else {
			m.statusBar.Server = msg.status.Generator
		}
		return m, tea.Tick(statusInterval, func(time.Time) tea.Msg { return pollStatusMsg{} })

	case pollStatusMsg:
		if m.http == nil {
			return m, nil
		}
		return m, fetchStatus(m.ctx, m.http)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		// The connection went away without saying why.
		if msg.handle == m.mgr.Current() {
			m.mgr.Dispatch(stream.Failed(msg.handle.Session(), client.ErrStreamEnded))
		}
		return m, m.sync()
	}

	m.mgr.Dispatch(msg.ev)
	cmd := m.sync()
	if h := m.mgr.Current(); h != nil && h == msg.handle {
		cmd = tea.Batch(cmd, waitForEvent(h))
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.mgr.Shutdown()
		m.sync()
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.mgr.Shutdown()
		return m, m.sync()

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// sync copies manager state into the sub-views and logs the updates
// published since the last call.
func (m *Model) sync() tea.Cmd {
	for _, u := range m.updates.drain() {
		id := uint64(u.Session)
		switch u.Reason {
		case stream.ReasonStarted:
			m.debug.Add(id, u.Reason.String(), m.mgr.Request().Query().Encode())
		case stream.ReasonChunk:
			m.debug.Addf(id, u.Reason.String(), "%q", u.Fragment)
		case stream.ReasonErrored:
			msg := "connection failed"
			if u.Err != nil {
				msg = u.Err.Error()
			}
			m.debug.Add(id, u.Reason.String(), msg)
			m.statusBar.LastEnd = u.Reason.String()
		default:
			m.debug.Addf(id, u.Reason.String(), "%d bytes kept", len(u.Text))
			m.statusBar.LastEnd = u.Reason.String()
		}
	}

	m.statusBar.Streaming = m.mgr.Active()
	m.statusBar.Session = uint64(m.mgr.Session())
	m.statusBar.Fragments = m.mgr.Fragments()
	return m.output.SetText(m.mgr.Text())
}

// layout sizes the panels for the current window.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	formW, outW, bodyH := m.panelSizes()
	m.form.SetWidth(formW)
	m.output.SetSize(outW, bodyH)
}

func (m Model) panelSizes() (formW, outW, bodyH int) {
	formW = min(max(m.width/3, 36), 56)
	// Two bordered panels take four columns of chrome.
	outW = max(m.width-formW-4, 20)
	// Status bar (3 lines), help (1 line) and panel borders (2 lines).
	bodyH = max(m.height-6, 5)
	return formW, outW, bodyH
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	if m.overlay == OverlayDebug {
		body = m.debug.View(m.width, m.height-4)
	} else {
		body = m.renderBody()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		body,
		m.renderHelp(),
	)
}

func (m Model) renderBody() string {
	formW, outW, bodyH := m.panelSizes()

	formPanel := theme.StyleFocused.
		Width(formW).
		Height(bodyH).
		Render(m.form.View())

	if m.output.Empty() {
		hint := theme.StyleDimmed.
			Width(outW).
			Padding(1, 2).
			Render("Fill in the form and submit to stream a recipe.")
		return lipgloss.JoinHorizontal(lipgloss.Top, formPanel, hint)
	}

	outPanel := theme.StyleBorder.
		Width(outW).
		Height(bodyH).
		Render(m.output.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, formPanel, outPanel)
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	return theme.StyleDimmed.Render("  " + strings.Join(parts, "  "))
}

// waitForEvent reads the next event from h. The command is re-issued after
// every event while h stays the live handle.
func waitForEvent(h stream.Handle) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-h.Events()
		return streamEventMsg{handle: h, ev: ev, ok: ok}
	}
}

func fetchOptions(ctx context.Context, c *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		opts, err := c.Options(ctx)
		return optionsMsg{opts: opts, err: err}
	}
}

func fetchStatus(ctx context.Context, c *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		s, err := c.Status(ctx)
		return statusMsg{status: s, err: err}
	}
}
