package stream_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream/streamtest"
)

type recorder struct {
	mu      sync.Mutex
	updates []stream.Update
}

func (r *recorder) observe(u stream.Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *recorder) last() stream.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return stream.Update{}
	}
	return r.updates[len(r.updates)-1]
}

func waitForTransport(t *testing.T, tr *streamtest.Transport, n int) *streamtest.Handle {
	t.Helper()
	require.Eventually(t, func() bool { return len(tr.Handles()) >= n }, time.Second, 5*time.Millisecond)
	return tr.Handles()[n-1]
}

func TestLoopAppliesEventsFromLiveHandle(t *testing.T) {
	tr := streamtest.NewTransport()
	m := stream.NewManager(tr)
	rec := &recorder{}
	m.Subscribe(rec.observe)
	loop := stream.NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	require.True(t, loop.Submit(recipe.Request{recipe.FieldMealType: "Dinner"}))
	h := waitForTransport(t, tr, 1)
	h.Chunks("Step 1. ", "Mix flour. ", "Bake.")
	h.Finish()

	require.Eventually(t, func() bool {
		return rec.last().Reason == stream.ReasonClosed
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Step 1. Mix flour. Bake.", rec.last().Text)
}

func TestLoopSupersedeDropsOldFragments(t *testing.T) {
	tr := streamtest.NewTransport()
	m := stream.NewManager(tr)
	rec := &recorder{}
	m.Subscribe(rec.observe)
	loop := stream.NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	loop.Submit(recipe.Request{})
	a := waitForTransport(t, tr, 1)
	loop.Submit(recipe.Request{})
	b := waitForTransport(t, tr, 2)

	a.Chunks("from A")
	b.Chunks("from B")
	b.Finish()

	require.Eventually(t, func() bool {
		return rec.last().Reason == stream.ReasonClosed
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "from B", rec.last().Text)
	assert.True(t, a.IsClosed())
}

func TestLoopShutsDownOnCancel(t *testing.T) {
	tr := streamtest.NewTransport()
	m := stream.NewManager(tr)
	loop := stream.NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	loop.Submit(recipe.Request{})
	h := waitForTransport(t, tr, 1)

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	<-loop.Done()
	assert.True(t, h.IsClosed())
	assert.False(t, loop.Submit(recipe.Request{}), "submit after stop is refused")
	loop.Shutdown()
}

func TestLoopExplicitShutdown(t *testing.T) {
	tr := streamtest.NewTransport()
	m := stream.NewManager(tr)
	rec := &recorder{}
	m.Subscribe(rec.observe)
	loop := stream.NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	loop.Shutdown()
	loop.Submit(recipe.Request{})
	h := waitForTransport(t, tr, 1)
	loop.Shutdown()
	loop.Shutdown()

	require.Eventually(t, func() bool {
		return rec.last().Reason == stream.ReasonShutdown
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.IsClosed())
	assert.Equal(t, 1, h.CloseCalls())
}

func TestLoopEndsSessionWhenChannelClosesEarly(t *testing.T) {
	tr := streamtest.NewTransport()
	m := stream.NewManager(tr)
	rec := &recorder{}
	m.Subscribe(rec.observe)
	loop := stream.NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	loop.Submit(recipe.Request{})
	h := waitForTransport(t, tr, 1)
	h.Chunks("Step 1. ")
	h.Close()

	require.Eventually(t, func() bool {
		return rec.last().Reason == stream.ReasonErrored
	}, time.Second, 5*time.Millisecond)
	last := rec.last()
	assert.ErrorIs(t, last.Err, stream.ErrHandleClosed)
	assert.Equal(t, "Step 1. ", last.Text)
}

func TestLoopIgnoresChannelCloseAfterClose(t *testing.T) {
	tr := streamtest.NewTransport()
	m := stream.NewManager(tr)
	rec := &recorder{}
	m.Subscribe(rec.observe)
	loop := stream.NewLoop(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	loop.Submit(recipe.Request{})
	h := waitForTransport(t, tr, 1)
	h.Chunks("Bake.")
	h.Finish()

	require.Eventually(t, func() bool {
		return rec.last().Reason == stream.ReasonClosed
	}, time.Second, 5*time.Millisecond)

	// The closed channel is forwarded after the close event and must be
	// dropped as stale.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stream.ReasonClosed, rec.last().Reason)
}
