package client

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// WSTransport opens recipe streams over a websocket. Each session gets its
// own connection; the request travels in the upgrade URL query.
type WSTransport struct {
	url    string
	dialer *websocket.Dialer
	logger zerolog.Logger
}

// NewWSTransport derives the websocket endpoint from an http(s) base URL.
func NewWSTransport(baseURL string, logger zerolog.Logger) (*WSTransport, error) {
	u, err := WebSocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &WSTransport{
		url:    u,
		dialer: websocket.DefaultDialer,
		logger: logger.With().Str("component", "ws").Logger(),
	}, nil
}

// WebSocketURL maps http://host/base to ws://host/base/recipeStream/ws.
func WebSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", errors.Wrap(err, "parse base url")
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += StreamPath + "/ws"
	return u.String(), nil
}

// Open implements stream.Transport.
func (t *WSTransport) Open(id stream.SessionID, req recipe.Request) stream.Handle {
	h := newHandle(id)
	go t.run(h, req)
	return h
}

func (t *WSTransport) run(h *handle, req recipe.Request) {
	defer close(h.events)

	logger := t.logger.With().Uint64("session", uint64(h.id)).Logger()

	conn, _, err := t.dialer.DialContext(h.ctx, t.url+"?"+req.Query().Encode(), nil)
	if err != nil {
		logger.Debug().Err(err).Msg("ws dial failed")
		h.fail(errors.Wrap(err, "dial"))
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	// Close unblocks the reader by tearing the connection down.
	go func() {
		select {
		case <-h.ctx.Done():
			writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			writeMu.Unlock()
			conn.Close()
		case <-done:
		}
	}()
	go pingLoop(conn, &writeMu, done)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = ErrStreamEnded
			}
			h.fail(errors.Wrap(err, "read stream"))
			return
		}
		ev, err := stream.DecodeMessage(h.id, data)
		if err != nil {
			logger.Warn().Err(err).Bytes("data", data).Msg("skipping malformed message")
			continue
		}
		if !h.emit(ev) || ev.Terminal() {
			return
		}
	}
}

// pingLoop sends periodic pings until done is closed or a write fails.
func pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
