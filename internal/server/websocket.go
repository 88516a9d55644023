package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

const (
	writeTimeout = 10 * time.Second
	sendBuffer   = 64
)

var errClientGone = errors.New("websocket client gone")

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	info, ok := s.begin(w, r, "ws")
	if !ok {
		return
	}
	defer s.registry.Remove(info.ID)

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("ws upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newWSClient(conn)

	// The read side only watches for the client going away. Pings from the
	// client are answered by the default handler.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.serve(ctx, info, recipe.FromQuery(r.URL.Query()), c)
}

// wsClient queues frames for a single write pump so the stream and the
// heartbeat never write to the connection concurrently.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	dead chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		dead: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *wsClient) writePump() {
	defer close(c.dead)
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *wsClient) Chunk(payload []byte) error {
	select {
	case c.send <- payload:
		return nil
	case <-c.dead:
		return errClientGone
	}
}

func (c *wsClient) Heartbeat() error {
	select {
	case <-c.dead:
		return errClientGone
	default:
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// Finish drains queued frames, then sends the close action (on success) and
// a close frame. A failed stream gets an error close code instead.
func (c *wsClient) Finish(err error) {
	c.once.Do(func() {
		if err == nil {
			if data, mErr := closeActionJSON(); mErr == nil {
				select {
				case c.send <- data:
				case <-c.dead:
				}
			}
		}
		close(c.send)
		<-c.dead

		code, text := websocket.CloseNormalClosure, ""
		if err != nil {
			code, text = websocket.CloseInternalServerErr, "generation failed"
			if errors.Is(err, context.Canceled) {
				code, text = websocket.CloseGoingAway, ""
			}
		}
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text),
			time.Now().Add(writeTimeout))
		c.conn.Close()
	})
}
