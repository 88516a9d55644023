package client

import (
	"context"
	"sync"

	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

const eventBuffer = 64

// handle is the stream.Handle shared by the SSE and websocket transports.
// The connection goroutine owns events and closes it on exit; Close only
// cancels the context, so it never blocks on the network.
type handle struct {
	id     stream.SessionID
	events chan stream.Event
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newHandle(id stream.SessionID) *handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &handle{
		id:     id,
		events: make(chan stream.Event, eventBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (h *handle) Session() stream.SessionID    { return h.id }
func (h *handle) Events() <-chan stream.Event { return h.events }

func (h *handle) Close() {
	h.once.Do(h.cancel)
}

// closed reports whether Close was called.
func (h *handle) closed() bool {
	return h.ctx.Err() != nil
}

// emit delivers ev unless the handle has been closed. Nothing is delivered
// after Close, even if the reader is slow.
func (h *handle) emit(ev stream.Event) bool {
	if h.closed() {
		return false
	}
	select {
	case h.events <- ev:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// fail emits a transport error unless the failure was caused by Close.
func (h *handle) fail(err error) {
	if h.closed() {
		return
	}
	h.emit(stream.Failed(h.id, err))
}
