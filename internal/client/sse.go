package client

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/sse"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

// ErrStreamEnded is reported when the server hangs up without a close action.
var ErrStreamEnded = errors.New("stream ended without close")

// newRequestID is swapped in tests.
var newRequestID = func() (string, error) { return gonanoid.New() }

// SSETransport opens recipe streams as HTTP server-sent events.
type SSETransport struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewSSETransport targets the server at baseURL (e.g. "http://127.0.0.1:3001").
// The http.Client must not carry a timeout; streams are long lived.
func NewSSETransport(baseURL string, httpClient *http.Client, logger zerolog.Logger) *SSETransport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &SSETransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger.With().Str("component", "sse").Logger(),
	}
}

// Open implements stream.Transport.
func (t *SSETransport) Open(id stream.SessionID, req recipe.Request) stream.Handle {
	h := newHandle(id)
	go t.run(h, req)
	return h
}

func (t *SSETransport) run(h *handle, req recipe.Request) {
	defer close(h.events)

	requestID, idErr := newRequestID()
	if idErr != nil {
		requestID = fmt.Sprintf("session-%d", h.id)
	}
	logger := t.logger.With().
		Uint64("session", uint64(h.id)).
		Str("request_id", requestID).
		Logger()
	if idErr != nil {
		logger.Debug().Err(idErr).Msg("request id generation failed, using session id")
	}

	url := t.baseURL + StreamPath + "?" + req.Query().Encode()
	httpReq, err := http.NewRequestWithContext(h.ctx, http.MethodGet, url, nil)
	if err != nil {
		h.fail(errors.Wrap(err, "build stream request"))
		return
	}
	httpReq.Header.Set("Accept", sse.ContentType)
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set(RequestIDHeader, requestID)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		logger.Debug().Err(err).Msg("stream connect failed")
		h.fail(errors.Wrap(err, "connect"))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		h.fail(fmt.Errorf("GET %s: %d %s", StreamPath, resp.StatusCode, strings.TrimSpace(string(body))))
		return
	}
	logger.Debug().Msg("stream connected")

	r := sse.NewReader(resp.Body)
	for {
		frame, err := r.Next()
		if err != nil {
			if err == io.EOF {
				err = ErrStreamEnded
			}
			h.fail(errors.Wrap(err, "read stream"))
			return
		}

		switch frame.Name {
		case sse.DefaultEvent:
			if frame.Data == "" {
				continue
			}
			ev, err := stream.DecodeMessage(h.id, []byte(frame.Data))
			if err != nil {
				logger.Warn().Err(err).Str("data", frame.Data).Msg("skipping malformed message")
				continue
			}
			if !h.emit(ev) || ev.Terminal() {
				return
			}
		case "error":
			h.fail(fmt.Errorf("server error event: %s", frame.Data))
			return
		default:
			logger.Trace().Str("event", frame.Name).Msg("ignoring event")
		}
	}
}
