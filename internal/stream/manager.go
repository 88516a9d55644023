package stream

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

// Reason explains why an Update was published.
type Reason int

const (
	ReasonStarted    Reason = iota // a new session was opened
	ReasonChunk                    // a fragment was appended
	ReasonClosed                   // the server ended the stream
	ReasonErrored                  // the transport failed
	ReasonSuperseded               // a newer Submit replaced the session
	ReasonShutdown                 // the consumer shut the manager down
)

func (r Reason) String() string {
	switch r {
	case ReasonStarted:
		return "started"
	case ReasonChunk:
		return "chunk"
	case ReasonClosed:
		return "closed"
	case ReasonErrored:
		return "errored"
	case ReasonSuperseded:
		return "superseded"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Update is published to observers after every state change.
type Update struct {
	Session  SessionID
	Reason   Reason
	Fragment string // the text appended by this update, if any
	Text     string // accumulated text of Session
	Active   bool
	Err      error // transport failure for ReasonErrored, may be nil
}

// Manager owns at most one live stream session. It is not safe for
// concurrent use; see the package documentation.
type Manager struct {
	transport Transport
	logger    zerolog.Logger

	last    SessionID
	session SessionID
	handle  Handle // nil when idle

	text      strings.Builder
	fragments int
	request   recipe.Request

	observers []func(Update)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for session transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l.With().Str("component", "stream").Logger()
	}
}

// NewManager creates an idle manager that opens sessions on t.
func NewManager(t Transport, opts ...Option) *Manager {
	m := &Manager{
		transport: t,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers fn to receive every Update. Observers run on the
// owning goroutine, synchronously, in registration order.
func (m *Manager) Subscribe(fn func(Update)) {
	m.observers = append(m.observers, fn)
}

// Submit supersedes the current session, if any, and opens a new one for
// req. It does not wait for the new connection.
func (m *Manager) Submit(req recipe.Request) {
	if m.handle != nil {
		old := m.session
		m.release()
		m.logger.Debug().Uint64("session", uint64(old)).Msg("session superseded")
		m.publish(Update{Session: old, Reason: ReasonSuperseded, Text: m.text.String()})
	}

	m.last++
	m.session = m.last
	m.request = req.Clone()
	m.text.Reset()
	m.fragments = 0
	m.handle = m.transport.Open(m.session, m.request)

	m.logger.Info().Uint64("session", uint64(m.session)).Msg("session started")
	m.publish(Update{Session: m.session, Reason: ReasonStarted, Active: true})
}

// Shutdown closes the live session, if any. Calling it while idle is a
// no-op. The accumulated text stays readable.
func (m *Manager) Shutdown() {
	if m.handle == nil {
		return
	}
	m.release()
	m.logger.Info().Uint64("session", uint64(m.session)).Msg("session shut down")
	m.publish(Update{Session: m.session, Reason: ReasonShutdown, Text: m.text.String()})
}

// Dispatch applies a transport event. Events for a session that is not the
// live one are dropped. It reports whether the event changed state.
func (m *Manager) Dispatch(ev Event) bool {
	if m.handle == nil || ev.Session != m.session {
		m.logger.Trace().
			Uint64("session", uint64(ev.Session)).
			Stringer("kind", ev.Kind).
			Msg("dropping stale event")
		return false
	}

	switch ev.Kind {
	case KindChunk:
		m.text.WriteString(ev.Text)
		m.fragments++
		m.publish(Update{
			Session:  m.session,
			Reason:   ReasonChunk,
			Fragment: ev.Text,
			Text:     m.text.String(),
			Active:   true,
		})
	case KindClose:
		m.release()
		m.logger.Info().
			Uint64("session", uint64(m.session)).
			Int("fragments", m.fragments).
			Msg("session closed")
		m.publish(Update{Session: m.session, Reason: ReasonClosed, Text: m.text.String()})
	case KindError:
		m.release()
		m.logger.Warn().
			Err(ev.Err).
			Uint64("session", uint64(m.session)).
			Int("fragments", m.fragments).
			Msg("session ended by transport error")
		m.publish(Update{Session: m.session, Reason: ReasonErrored, Text: m.text.String(), Err: ev.Err})
	default:
		return false
	}
	return true
}

// Text returns the accumulated text of the latest session.
func (m *Manager) Text() string {
	return m.text.String()
}

// Active reports whether a session is live.
func (m *Manager) Active() bool {
	return m.handle != nil
}

// Session returns the id of the latest session, live or not.
func (m *Manager) Session() SessionID {
	return m.session
}

// Current returns the live handle, or nil when idle.
func (m *Manager) Current() Handle {
	return m.handle
}

// Fragments returns how many chunks the latest session has received.
func (m *Manager) Fragments() int {
	return m.fragments
}

// Request returns the request of the latest session.
func (m *Manager) Request() recipe.Request {
	return m.request
}

// release closes the live handle unconditionally and marks the manager idle.
func (m *Manager) release() {
	h := m.handle
	m.handle = nil
	h.Close()
}

func (m *Manager) publish(u Update) {
	for _, fn := range m.observers {
		fn(u)
	}
}
