package stream

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Actions carried in the "action" field of a message payload.
const (
	ActionChunk = "chunk"
	ActionClose = "close"
)

// ErrMalformed is returned for message payloads that are not a known action,
// or a chunk action without a chunk.
var ErrMalformed = errors.New("malformed stream message")

// Message is the JSON payload of a "message" event.
type Message struct {
	Action string `json:"action"`
	Chunk  *string `json:"chunk,omitempty"`
}

// ChunkMessage builds the payload for a text fragment.
func ChunkMessage(text string) Message {
	return Message{Action: ActionChunk, Chunk: &text}
}

// CloseMessage builds the end-of-stream payload.
func CloseMessage() Message {
	return Message{Action: ActionClose}
}

// DecodeMessage turns a message payload into an Event for session id.
// Anything that does not parse into a chunk or close action yields an error
// wrapping ErrMalformed; callers skip such payloads.
func DecodeMessage(id SessionID, data []byte) (Event, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Event{}, errors.Wrap(ErrMalformed, "empty payload")
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, errors.Wrapf(ErrMalformed, "decode: %v", err)
	}
	switch msg.Action {
	case ActionChunk:
		if msg.Chunk == nil {
			return Event{}, errors.Wrap(ErrMalformed, "chunk action without chunk")
		}
		return Chunk(id, *msg.Chunk), nil
	case ActionClose:
		return Closed(id), nil
	default:
		return Event{}, errors.Wrapf(ErrMalformed, "unknown action %q", msg.Action)
	}
}
