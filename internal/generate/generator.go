// Package generate produces recipe text as a sequence of fragments. The
// server forwards each fragment to the client as it is emitted.
package generate

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/config"
	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

// ErrMissingAPIKey is returned by New when a hosted provider has no key.
var ErrMissingAPIKey = errors.New("missing API key")

// EmitFunc receives one fragment. A non-nil error aborts generation and is
// returned from Generate unchanged.
type EmitFunc func(fragment string) error

// Generator writes one recipe for req through emit. It returns when the
// recipe is complete, ctx is cancelled, or emit fails.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req recipe.Request, emit EmitFunc) error
}

// New builds the generator selected by cfg.Provider.
func New(cfg config.GeneratorConfig) (Generator, error) {
	switch cfg.Provider {
	case "", config.ProviderMock:
		return NewMock(MockConfig{Delay: cfg.ChunkDelay, Words: cfg.ChunkWords}), nil
	case config.ProviderOpenAI:
		key := cfg.APIKey()
		if key == "" {
			return nil, errors.Wrap(ErrMissingAPIKey, "openai")
		}
		return NewOpenAI(key, cfg.Model, cfg.BaseURL, cfg.MaxTokens), nil
	case config.ProviderAnthropic:
		key := cfg.APIKey()
		if key == "" {
			return nil, errors.Wrap(ErrMissingAPIKey, "anthropic")
		}
		return NewAnthropic(key, cfg.Model, cfg.BaseURL, cfg.MaxTokens), nil
	default:
		return nil, errors.Wrapf(config.ErrUnknownProvider, "%q", cfg.Provider)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
