package stream

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

// ErrHandleClosed is dispatched when a handle's event channel closes without
// a terminal event.
var ErrHandleClosed = errors.New("connection closed without close event")

// Loop owns a Manager on its own goroutine for consumers that have no event
// loop of their own. Submit and Shutdown are safe to call from any goroutine;
// they are applied in the order Run receives them, interleaved with
// transport events.
type Loop struct {
	mgr      *Manager
	submits  chan recipe.Request
	shutdown chan struct{}
	inbox    chan Event
	done     chan struct{}
}

// NewLoop wraps m. Observers must be registered on m before Run starts.
func NewLoop(m *Manager) *Loop {
	return &Loop{
		mgr:      m,
		submits:  make(chan recipe.Request),
		shutdown: make(chan struct{}),
		inbox:    make(chan Event, 64),
		done:     make(chan struct{}),
	}
}

// Run processes submissions and events until ctx is cancelled. The live
// session, if any, is shut down before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.mgr.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.submits:
			l.mgr.Submit(req)
			if h := l.mgr.Current(); h != nil {
				go l.forward(h)
			}
		case <-l.shutdown:
			l.mgr.Shutdown()
		case ev := <-l.inbox:
			l.mgr.Dispatch(ev)
		}
	}
}

// Submit hands req to the loop. It returns false if the loop has stopped.
func (l *Loop) Submit(req recipe.Request) bool {
	select {
	case l.submits <- req:
		return true
	case <-l.done:
		return false
	}
}

// Shutdown asks the loop to close the live session.
func (l *Loop) Shutdown() {
	select {
	case l.shutdown <- struct{}{}:
	case <-l.done:
	}
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// forward feeds h's events to the loop. A channel that ends without a
// terminal event ends the session; the Manager drops it when h is stale.
func (l *Loop) forward(h Handle) {
	for ev := range h.Events() {
		select {
		case l.inbox <- ev:
		case <-l.done:
			return
		}
	}
	select {
	case l.inbox <- Failed(h.Session(), ErrHandleClosed):
	case <-l.done:
	}
}
