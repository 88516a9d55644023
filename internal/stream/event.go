// Package stream implements the recipe stream session manager: it keeps at
// most one server-push connection live, concatenates the fragments that
// connection delivers, and tears it down on close, error, resubmission or
// shutdown.
//
// A Manager is owned by a single goroutine. Every transition (Submit,
// Shutdown, Dispatch) must be called from that goroutine; transports deliver
// events over channels and the owner feeds them to Dispatch. The bubbletea
// Update loop is one such owner, Loop is another.
package stream

import (
	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

// SessionID identifies one submission. IDs increase monotonically per
// Manager; zero means no session.
type SessionID uint64

// Kind tags an Event.
type Kind int

const (
	KindChunk Kind = iota
	KindClose
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindClose:
		return "close"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered by a transport handle. Session is the id of the handle
// that produced it.
type Event struct {
	Session SessionID
	Kind    Kind
	Text    string // chunk text
	Err     error  // cause of a KindError, may be nil
}

// Chunk builds a text fragment event.
func Chunk(id SessionID, text string) Event {
	return Event{Session: id, Kind: KindChunk, Text: text}
}

// Closed builds a normal end-of-stream event.
func Closed(id SessionID) Event {
	return Event{Session: id, Kind: KindClose}
}

// Failed builds a transport failure event.
func Failed(id SessionID, err error) Event {
	return Event{Session: id, Kind: KindError, Err: err}
}

// Terminal reports whether the event ends its session.
func (e Event) Terminal() bool {
	return e.Kind == KindClose || e.Kind == KindError
}

// Handle is one open connection. Events is closed once the handle stops
// delivering, which happens after a terminal event or after Close.
type Handle interface {
	Session() SessionID
	Events() <-chan Event
	// Close releases the connection. It is idempotent and never blocks on
	// the network.
	Close()
}

// Transport opens connections. Open must return immediately; connecting
// happens asynchronously and failures surface as KindError events.
type Transport interface {
	Open(id SessionID, req recipe.Request) Handle
}
