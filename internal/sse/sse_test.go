package sse

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, body string) []Event {
	t.Helper()
	r := NewReader(strings.NewReader(body))
	var out []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestReaderParsesFrames(t *testing.T) {
	body := "event: message\n" +
		"data: {\"action\":\"chunk\",\"chunk\":\"Step 1. \"}\n\n" +
		": heartbeat\n\n" +
		"data: first\ndata: second\n\n" +
		"id: 42\nevent: error\ndata:\n\n"

	got := readAll(t, body)
	require.Len(t, got, 3)
	assert.Equal(t, Event{Name: "message", Data: `{"action":"chunk","chunk":"Step 1. "}`}, got[0])
	assert.Equal(t, Event{Name: "message", Data: "first\nsecond"}, got[1])
	assert.Equal(t, Event{ID: "42", Name: "error", Data: ""}, got[2])
}

func TestReaderHandlesCRLFAndCR(t *testing.T) {
	got := readAll(t, "data: a\r\n\r\ndata: b\r\rdata: c\n\n")
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Data)
	assert.Equal(t, "b", got[1].Data)
	assert.Equal(t, "c", got[2].Data)
}

func TestReaderDropsTruncatedFrame(t *testing.T) {
	got := readAll(t, "data: complete\n\ndata: cut off")
	require.Len(t, got, 1)
	assert.Equal(t, "complete", got[0].Data)
}

func TestReaderSkipsEventWithoutData(t *testing.T) {
	got := readAll(t, "event: ping\n\ndata: x\n\n")
	require.Len(t, got, 1)
	assert.Equal(t, Event{Name: DefaultEvent, Data: "x"}, got[0])
}

func TestWriterRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.Event("", `{"action":"chunk","chunk":"Mix"}`))
	require.NoError(t, w.Comment("keep-alive"))
	require.NoError(t, w.Event("notice", "line one\nline two"))

	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.True(t, rec.Flushed)

	got := readAll(t, rec.Body.String())
	require.Len(t, got, 2)
	assert.Equal(t, Event{Name: "message", Data: `{"action":"chunk","chunk":"Mix"}`}, got[0])
	assert.Equal(t, Event{Name: "notice", Data: "line one\nline two"}, got[1])
}
