package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream/streamtest"
)

// syncBuffer guards the output, which the loop goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startStream(t *testing.T, ctx context.Context) (*streamtest.Handle, *syncBuffer, <-chan error) {
	t.Helper()
	tr := streamtest.NewTransport()
	out := &syncBuffer{}
	errc := make(chan error, 1)
	req := recipe.Request{recipe.FieldIngredients: "tofu"}
	go func() { errc <- streamRecipe(ctx, tr, req, out, zerolog.Nop()) }()

	require.Eventually(t, func() bool { return tr.Last() != nil }, time.Second, 5*time.Millisecond)
	return tr.Last(), out, errc
}

func wait(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("streamRecipe did not return")
		return nil
	}
}

func TestStreamRecipePrintsFragments(t *testing.T) {
	h, out, errc := startStream(t, context.Background())
	assert.Equal(t, "tofu", h.Request.Get(recipe.FieldIngredients))

	h.Chunks("# Tofu ", "Stir Fry")
	h.Finish()

	require.NoError(t, wait(t, errc))
	assert.Equal(t, "# Tofu Stir Fry\n", out.String())
	assert.True(t, h.IsClosed())
}

func TestStreamRecipeReportsTransportError(t *testing.T) {
	h, out, errc := startStream(t, context.Background())

	h.Chunks("# Tofu ")
	h.Send(stream.Failed(h.Session(), errors.New("connection reset")))

	err := wait(t, errc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "# Tofu \n", out.String())
}

func TestStreamRecipeInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, _, errc := startStream(t, ctx)

	h.Chunks("# Tofu ")
	cancel()

	assert.ErrorIs(t, wait(t, errc), errInterrupted)
	assert.True(t, h.IsClosed(), "interrupt should close the connection")
}
