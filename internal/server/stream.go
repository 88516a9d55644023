package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/metrics"
	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/sse"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

const requestIDHeader = "X-Request-ID"

var errNoGenerator = errors.New("no generator configured")

// sink is the transport side of one stream.
type sink interface {
	Chunk(payload []byte) error
	Heartbeat() error
	// Finish ends the stream. A nil err sends the close action; otherwise
	// the stream is torn down so the client sees a transport error.
	Finish(err error)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sw, err := sse.NewWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	info, ok := s.begin(w, r, "sse")
	if !ok {
		return
	}
	defer s.registry.Remove(info.ID)

	w.WriteHeader(http.StatusOK)
	_ = sw.Comment("stream " + info.ID)

	s.serve(r.Context(), info, recipe.FromQuery(r.URL.Query()), &sseSink{w: sw})
}

// begin registers a new stream, replying 503 when the server is full.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, transport string) (*StreamInfo, bool) {
	info := &StreamInfo{
		ID:        uuid.NewString(),
		RequestID: r.Header.Get(requestIDHeader),
		Transport: transport,
		Remote:    r.RemoteAddr,
		StartedAt: time.Now(),
	}
	if !s.registry.Add(info) {
		s.logger.Warn().Str("remote", r.RemoteAddr).Msg("stream limit reached")
		http.Error(w, "too many streams", http.StatusServiceUnavailable)
		return nil, false
	}
	return info, true
}

// serve runs the generator for req and forwards every fragment to out, in
// order, with heartbeats in between. It returns once the stream has ended.
func (s *Server) serve(ctx context.Context, info *StreamInfo, req recipe.Request, out sink) {
	logger := s.logger.With().
		Str("stream_id", info.ID).
		Str("transport", info.Transport).
		Logger()
	if info.RequestID != "" {
		logger = logger.With().Str("request_id", info.RequestID).Logger()
	}

	gen := s.Generator()
	if gen == nil {
		logger.Error().Msg("no generator configured")
		out.Finish(errNoGenerator)
		return
	}

	logger.Info().Str("generator", gen.Name()).Msg("stream started")
	done := s.metrics.StreamStarted()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unbuffered: once Generate returns, every emitted fragment has been taken.
	chunks := make(chan string)
	errc := make(chan error, 1)
	go func() {
		errc <- gen.Generate(ctx, req, func(fragment string) error {
			select {
			case chunks <- fragment:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	status, finished, err := s.pump(ctx, info, chunks, errc, heartbeat.C, out)
	cancel()
	if !finished {
		<-errc
	}
	out.Finish(err)
	done(status)

	event := logger.Info()
	if err != nil && status == metrics.StatusFailed {
		event = logger.Warn().Err(err)
	}
	event.Str("status", status).Int("fragments", s.fragments(info.ID)).Msg("stream ended")
}

// pump reports the stream outcome and whether the generator has returned.
func (s *Server) pump(ctx context.Context, info *StreamInfo, chunks <-chan string, errc <-chan error, heartbeat <-chan time.Time, out sink) (string, bool, error) {
	for {
		select {
		case fragment := <-chunks:
			payload, err := json.Marshal(stream.ChunkMessage(fragment))
			if err != nil {
				return metrics.StatusFailed, false, errors.Wrap(err, "encode chunk")
			}
			if err := out.Chunk(payload); err != nil {
				return metrics.StatusCancelled, false, errors.Wrap(err, "write chunk")
			}
			s.registry.Fragment(info.ID)
			s.metrics.ChunksTotal.Inc()
		case err := <-errc:
			if err != nil {
				if ctx.Err() != nil {
					return metrics.StatusCancelled, true, ctx.Err()
				}
				return metrics.StatusFailed, true, err
			}
			return metrics.StatusClosed, true, nil
		case <-heartbeat:
			if err := out.Heartbeat(); err != nil {
				return metrics.StatusCancelled, false, errors.Wrap(err, "heartbeat")
			}
		case <-ctx.Done():
			return metrics.StatusCancelled, false, ctx.Err()
		}
	}
}

func (s *Server) fragments(id string) int {
	if st, ok := s.registry.Get(id); ok {
		return st.Fragments
	}
	return 0
}

type sseSink struct {
	w *sse.Writer
}

func (k *sseSink) Chunk(payload []byte) error {
	return k.w.Event(sse.DefaultEvent, string(payload))
}

func (k *sseSink) Heartbeat() error {
	return k.w.Comment("heartbeat")
}

func (k *sseSink) Finish(err error) {
	if err == nil {
		if payload, err := closeActionJSON(); err == nil {
			_ = k.w.Event(sse.DefaultEvent, string(payload))
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	_ = k.w.Event("error", "generation failed")
}

func closeActionJSON() ([]byte, error) {
	return json.Marshal(stream.CloseMessage())
}
