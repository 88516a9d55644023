// Package streamtest provides an in-memory stream.Transport for tests.
package streamtest

import (
	"sync"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

// Transport records every handle it opens. Tests push events into a handle
// with Send and inspect which handles are still open.
type Transport struct {
	mu      sync.Mutex
	handles []*Handle
}

// NewTransport returns an empty fake transport.
func NewTransport() *Transport {
	return &Transport{}
}

// Open implements stream.Transport.
func (t *Transport) Open(id stream.SessionID, req recipe.Request) stream.Handle {
	h := &Handle{
		id:      id,
		Request: req,
		events:  make(chan stream.Event, 64),
	}
	t.mu.Lock()
	t.handles = append(t.handles, h)
	t.mu.Unlock()
	return h
}

// Handles returns every handle opened so far, oldest first.
func (t *Transport) Handles() []*Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Handle(nil), t.handles...)
}

// Last returns the most recently opened handle, or nil.
func (t *Transport) Last() *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.handles) == 0 {
		return nil
	}
	return t.handles[len(t.handles)-1]
}

// OpenCount returns how many handles have not been closed.
func (t *Transport) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, h := range t.handles {
		if !h.IsClosed() {
			n++
		}
	}
	return n
}

// Handle is a fake connection.
type Handle struct {
	id      stream.SessionID
	Request recipe.Request

	mu         sync.Mutex
	events     chan stream.Event
	closed     bool
	closeCalls int
}

func (h *Handle) Session() stream.SessionID    { return h.id }
func (h *Handle) Events() <-chan stream.Event { return h.events }

// Close marks the handle closed and ends its event channel. Events already
// queued stay readable, as on a real connection.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCalls++
	if h.closed {
		return
	}
	h.closed = true
	close(h.events)
}

// IsClosed reports whether Close was called.
func (h *Handle) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// CloseCalls returns how many times Close was called.
func (h *Handle) CloseCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCalls
}

// Send queues events as if the server had delivered them. Events sent after
// Close are discarded.
func (h *Handle) Send(evs ...stream.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ev := range evs {
		h.events <- ev
	}
}

// Chunks queues one chunk event per text.
func (h *Handle) Chunks(texts ...string) {
	evs := make([]stream.Event, len(texts))
	for i, t := range texts {
		evs[i] = stream.Chunk(h.id, t)
	}
	h.Send(evs...)
}

// Finish queues a close event.
func (h *Handle) Finish() {
	h.Send(stream.Closed(h.id))
}
