package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

// HTTPClient makes REST calls to the recipe server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:3001").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Options fetches /api/options. Lists the server leaves empty fall back to
// the built-in defaults.
func (c *HTTPClient) Options(ctx context.Context) (recipe.Options, error) {
	var o recipe.Options
	if err := c.get(ctx, "/api/options", &o); err != nil {
		return recipe.DefaultOptions(), err
	}
	return o.Merge(recipe.DefaultOptions()), nil
}

// Status fetches /api/status.
func (c *HTTPClient) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.get(ctx, "/api/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s", path)
}

// New returns the stream transport named by kind ("sse" or "ws").
func New(kind, baseURL string, logger zerolog.Logger) (stream.Transport, error) {
	switch kind {
	case "", TransportSSE:
		return NewSSETransport(baseURL, nil, logger), nil
	case TransportWebSocket:
		return NewWSTransport(baseURL, logger)
	default:
		return nil, errors.Errorf("unknown transport %q", kind)
	}
}
