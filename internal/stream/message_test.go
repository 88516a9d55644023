package stream_test

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream/streamtest"
)

func TestDecodeMessage(t *testing.T) {
	ev, err := stream.DecodeMessage(7, []byte(`{"action":"chunk","chunk":"Mix flour. "}`))
	require.NoError(t, err)
	assert.Equal(t, stream.Chunk(7, "Mix flour. "), ev)

	ev, err = stream.DecodeMessage(7, []byte(`{"action":"close"}`))
	require.NoError(t, err)
	assert.Equal(t, stream.Closed(7), ev)
	assert.True(t, ev.Terminal())
}

func TestDecodeMessageRejectsMalformedPayloads(t *testing.T) {
	for _, payload := range []string{
		``,
		`   `,
		`not json`,
		`{"action":`,
		`{"action":"explode"}`,
		`{"chunk":"no action"}`,
		`{"action":"chunk"}`,
		`{"action":"chunk","chunk":null}`,
		`[1,2,3]`,
	} {
		t.Run(payload, func(t *testing.T) {
			_, err := stream.DecodeMessage(1, []byte(payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, stream.ErrMalformed))
		})
	}
}

func TestDecodeMessageAcceptsEmptyChunk(t *testing.T) {
	ev, err := stream.DecodeMessage(2, []byte(`{"action":"chunk","chunk":""}`))
	require.NoError(t, err)
	assert.Equal(t, stream.Chunk(2, ""), ev)
}

func TestMessageEncoding(t *testing.T) {
	b, err := json.Marshal(stream.ChunkMessage("Bake."))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"chunk","chunk":"Bake."}`, string(b))

	b, err = json.Marshal(stream.CloseMessage())
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"close"}`, string(b))

	b, err = json.Marshal(stream.ChunkMessage(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"chunk","chunk":""}`, string(b))
}

// A malformed payload never reaches Dispatch, so state is untouched.
func TestMalformedPayloadLeavesStateUnchanged(t *testing.T) {
	tr := streamtest.NewTransport()
	m := stream.NewManager(tr)
	m.Submit(recipe.Request{})
	h := tr.Last()
	h.Chunks("Step 1. ")
	drain(m, h)

	for _, payload := range [][]byte{[]byte(`{bad`), []byte(`{"action":"chunk","chunk":"ok"}`)} {
		ev, err := stream.DecodeMessage(m.Session(), payload)
		if err != nil {
			continue
		}
		m.Dispatch(ev)
	}

	assert.Equal(t, "Step 1. ok", m.Text())
	assert.True(t, m.Active())
}
