package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarishlakhani/AI-recipe-gen/internal/client"
	"github.com/aarishlakhani/AI-recipe-gen/internal/config"
	"github.com/aarishlakhani/AI-recipe-gen/internal/generate"
	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

// blockingGen emits one fragment, then waits for cancellation.
type blockingGen struct {
	started chan struct{}
	stopped chan struct{}
}

func newBlockingGen() *blockingGen {
	return &blockingGen{started: make(chan struct{}, 8), stopped: make(chan struct{}, 8)}
}

func (g *blockingGen) Name() string { return "blocking" }

func (g *blockingGen) Generate(ctx context.Context, _ recipe.Request, emit generate.EmitFunc) error {
	g.started <- struct{}{}
	defer func() { g.stopped <- struct{}{} }()
	if err := emit("waiting "); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func newTestServer(t *testing.T, gen generate.Generator, mutate ...func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(cfg)
	}
	s := NewServer(cfg, gen, nil, zerolog.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// runSession submits req on a Manager and dispatches events until it goes idle.
func runSession(t *testing.T, tr stream.Transport, req recipe.Request) (*stream.Manager, []stream.Update) {
	t.Helper()
	m := stream.NewManager(tr)
	var updates []stream.Update
	m.Subscribe(func(u stream.Update) { updates = append(updates, u) })

	m.Submit(req)
	h := m.Current()
	require.NotNil(t, h)

	timeout := time.After(10 * time.Second)
	for m.Active() {
		select {
		case ev, ok := <-h.Events():
			require.True(t, ok, "events closed before a terminal event")
			m.Dispatch(ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream to end")
		}
	}
	return m, updates
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	securityHeaders(inner).ServeHTTP(rec, req)

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"X-XSS-Protection":        "1; mode=block",
		"Content-Security-Policy": "default-src 'self'",
	}

	for header, expected := range want {
		assert.Equal(t, expected, rec.Header().Get(header), header)
	}
}

func TestSSEStreamEndToEnd(t *testing.T) {
	s, ts := newTestServer(t, generate.NewMock(generate.MockConfig{Words: 3}))

	req := recipe.Request{
		recipe.FieldIngredients: "tofu, broccoli",
		recipe.FieldCuisine:     "Chinese",
		recipe.FieldMealType:    "Dinner",
	}
	m, updates := runSession(t, client.NewSSETransport(ts.URL, nil, zerolog.Nop()), req)

	assert.Equal(t, generate.MockRecipe(req), m.Text())
	assert.False(t, m.Active())
	assert.Equal(t, stream.ReasonClosed, updates[len(updates)-1].Reason)
	assert.Equal(t, len(generate.Split(generate.MockRecipe(req), 3)), m.Fragments())

	require.Eventually(t, func() bool { return s.Registry().Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketStreamEndToEnd(t *testing.T) {
	_, ts := newTestServer(t, generate.NewMock(generate.MockConfig{Words: 2}))

	tr, err := client.NewWSTransport(ts.URL, zerolog.Nop())
	require.NoError(t, err)

	req := recipe.Request{recipe.FieldIngredients: "egg"}
	m, updates := runSession(t, tr, req)

	assert.Equal(t, generate.MockRecipe(req), m.Text())
	assert.Equal(t, stream.ReasonClosed, updates[len(updates)-1].Reason)
}

func TestGeneratorFailureEndsWithoutCloseAction(t *testing.T) {
	gen := generate.NewMock(generate.MockConfig{Words: 1, FailAfter: 2})

	for _, kind := range []string{client.TransportSSE, client.TransportWebSocket} {
		t.Run(kind, func(t *testing.T) {
			_, ts := newTestServer(t, gen)
			tr, err := client.New(kind, ts.URL, zerolog.Nop())
			require.NoError(t, err)

			m, updates := runSession(t, tr, nil)
			frags := generate.Split(generate.MockRecipe(nil), 1)
			assert.Equal(t, frags[0]+frags[1], m.Text(), "partial text stays visible")
			last := updates[len(updates)-1]
			assert.Equal(t, stream.ReasonErrored, last.Reason)
			assert.Error(t, last.Err)
		})
	}
}

func TestClientCloseCancelsGeneration(t *testing.T) {
	gen := newBlockingGen()
	s, ts := newTestServer(t, gen)

	m := stream.NewManager(client.NewSSETransport(ts.URL, nil, zerolog.Nop()))
	m.Submit(nil)
	h := m.Current()

	ev := <-h.Events()
	require.True(t, m.Dispatch(ev))
	assert.Equal(t, "waiting ", m.Text())

	m.Shutdown()

	select {
	case <-gen.stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("generator was not cancelled")
	}
	require.Eventually(t, func() bool { return s.Registry().Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSupersedeCancelsPreviousServerStream(t *testing.T) {
	gen := newBlockingGen()
	s, ts := newTestServer(t, gen)

	m := stream.NewManager(client.NewSSETransport(ts.URL, nil, zerolog.Nop()))
	m.Submit(recipe.Request{recipe.FieldCuisine: "Thai"})
	<-gen.started
	m.Submit(recipe.Request{recipe.FieldCuisine: "Mexican"})
	<-gen.started

	select {
	case <-gen.stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded stream was not cancelled")
	}
	require.Eventually(t, func() bool { return s.Registry().Count() == 1 }, 2*time.Second, 10*time.Millisecond)
	m.Shutdown()
}

func TestStreamLimit(t *testing.T) {
	gen := newBlockingGen()
	_, ts := newTestServer(t, gen, func(c *config.Config) { c.Server.MaxStreams = 1 })

	first := client.NewSSETransport(ts.URL, nil, zerolog.Nop()).Open(1, nil)
	defer first.Close()
	<-gen.started

	resp, err := http.Get(ts.URL + StreamPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHeartbeats(t *testing.T) {
	gen := newBlockingGen()
	_, ts := newTestServer(t, gen, func(c *config.Config) { c.Server.HeartbeatInterval = 20 * time.Millisecond })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+StreamPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 512)
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(string(buf), ": heartbeat") && time.Now().Before(deadline) {
		n, err := resp.Body.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			break
		}
	}
	assert.Contains(t, string(buf), ": heartbeat")
	assert.Contains(t, string(buf), `{"action":"chunk","chunk":"waiting "}`)
}

func TestRESTEndpoints(t *testing.T) {
	s, ts := newTestServer(t, generate.NewMock(generate.MockConfig{}), func(c *config.Config) {
		c.Options = recipe.Options{MealTypes: []string{"Brunch"}}
	})

	hc := client.NewHTTPClient(ts.URL)
	opts, err := hc.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Brunch"}, opts.MealTypes)
	assert.NotEmpty(t, opts.CookingTimes)

	st, err := hc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mock", st.Generator)
	assert.Equal(t, 0, st.ActiveStreams)
	require.NotNil(t, st.Process)
	assert.Positive(t, st.Process.RSSBytes)

	s.SetGenerator(newBlockingGen())
	st, err = hc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "blocking", st.Generator)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "recipe_streams_active")

	resp, err = http.Get(ts.URL + "/api/streams")
	require.NoError(t, err)
	var streams []StreamInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&streams))
	resp.Body.Close()
	assert.Empty(t, streams)
}

func TestSSERejectsPost(t *testing.T) {
	_, ts := newTestServer(t, generate.NewMock(generate.MockConfig{}))
	resp, err := http.Post(ts.URL+StreamPath, "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin", nil, "", "example.com", true},
		{"same host", nil, "http://example.com", "example.com", true},
		{"localhost", nil, "http://localhost:5173", "example.com", true},
		{"loopback v6", nil, "http://[::1]:8080", "example.com", true},
		{"foreign", nil, "http://evil.com", "example.com", false},
		{"allow list hit", []string{"https://app.test"}, "https://app.test", "example.com", true},
		{"allow list host", []string{"https://app.test"}, "http://app.test", "example.com", true},
		{"allow list miss", []string{"https://app.test"}, "http://localhost", "example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Server.AllowedOrigins = tt.allowed
			s := NewServer(cfg, nil, nil, zerolog.Nop())

			r := httptest.NewRequest(http.MethodGet, "/recipeStream/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, s.checkOrigin(r))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(2)
	now := time.Now()
	require.True(t, r.Add(&StreamInfo{ID: "b", StartedAt: now.Add(time.Second)}))
	require.True(t, r.Add(&StreamInfo{ID: "a", StartedAt: now}))
	assert.False(t, r.Add(&StreamInfo{ID: "c"}))

	r.Fragment("a")
	r.Fragment("a")
	r.Fragment("missing")
	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, got.Fragments)

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	r.Remove("a")
	assert.Equal(t, 1, r.Count())
	_, ok = r.Get("a")
	assert.False(t, ok)
}
