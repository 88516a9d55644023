package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/aarishlakhani/AI-recipe-gen/internal/config"
	"github.com/aarishlakhani/AI-recipe-gen/internal/generate"
	"github.com/aarishlakhani/AI-recipe-gen/internal/metrics"
	"github.com/aarishlakhani/AI-recipe-gen/internal/procstat"
	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

// StreamPath is the SSE endpoint; the websocket variant is StreamPath+"/ws".
const StreamPath = "/recipeStream"

type Server struct {
	cfg      config.ServerConfig
	registry *Registry
	metrics  *metrics.Metrics
	sampler  *procstat.Sampler
	logger   zerolog.Logger

	mu      sync.RWMutex
	gen     generate.Generator
	options recipe.Options

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	startedAt      time.Time
}

func NewServer(cfg *config.Config, gen generate.Generator, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if m == nil {
		m = metrics.NewMetrics()
	}
	s := &Server{
		cfg:            cfg.Server,
		registry:       NewRegistry(cfg.Server.MaxStreams),
		metrics:        m,
		logger:         logger.With().Str("component", "server").Logger(),
		gen:            gen,
		options:        cfg.Options.Merge(recipe.DefaultOptions()),
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		startedAt:      time.Now(),
	}

	if sampler, err := procstat.NewSampler(); err == nil {
		s.sampler = sampler
	} else {
		s.logger.Warn().Err(err).Msg("process stats unavailable")
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetGenerator swaps the generator used by streams started from now on.
func (s *Server) SetGenerator(gen generate.Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen = gen
}

func (s *Server) Generator() generate.Generator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// SetOptions replaces the form choice lists served at /api/options.
func (s *Server) SetOptions(opts recipe.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = opts.Merge(recipe.DefaultOptions())
}

func (s *Server) Registry() *Registry { return s.registry }

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc(StreamPath, s.handleSSE)
	mux.HandleFunc(StreamPath+"/ws", s.handleWS)
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/streams", s.handleStreams)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Handler returns the full route table wrapped in the response middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return securityHeaders(mux)
}

// Status is the /api/status payload.
type Status struct {
	Generator     string          `json:"generator"`
	ActiveStreams int             `json:"activeStreams"`
	StartedAt     time.Time       `json:"startedAt"`
	Uptime        string          `json:"uptime"`
	Process       *procstat.Stats `json:"process,omitempty"`
}

func (s *Server) Status() Status {
	st := Status{
		ActiveStreams: s.registry.Count(),
		StartedAt:     s.startedAt,
		Uptime:        time.Since(s.startedAt).Round(time.Second).String(),
	}
	if gen := s.Generator(); gen != nil {
		st.Generator = gen.Name()
	}
	if s.sampler != nil {
		if ps, err := s.sampler.Sample(); err == nil {
			st.Process = &ps
		}
	}
	return st
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	opts := s.options
	s.mu.RUnlock()
	writeJSON(w, opts)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Status())
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.registry.GetAll())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	hostname := parsed.Hostname()
	return hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
}

// ListenAndServe serves until ctx is cancelled. Cancelling ctx also cancels
// every in-flight request, so open streams end promptly.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
