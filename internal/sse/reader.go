// Package sse reads and writes the text/event-stream wire format.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// DefaultEvent is the event name used when a frame carries no event field.
const DefaultEvent = "message"

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// Event is one dispatched frame.
type Event struct {
	ID   string
	Name string
	Data string
}

// Reader splits an event stream into frames.
type Reader struct {
	scanner *bufio.Scanner
	lastID  string
}

// maxLine bounds a single line; recipe fragments are far smaller.
const maxLine = 1 << 20

// NewReader reads frames from r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxLine)
	s.Split(scanLines)
	return &Reader{scanner: s}
}

// Next returns the next frame that carries data. It returns io.EOF when the
// stream ends; a frame cut off by EOF is discarded.
func (r *Reader) Next() (Event, error) {
	var (
		name    string
		data    strings.Builder
		hasData bool
	)
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if !hasData {
				name = ""
				continue
			}
			if name == "" {
				name = DefaultEvent
			}
			return Event{ID: r.lastID, Name: name, Data: data.String()}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// scanLines splits on \n, \r\n or a lone \r, as the event stream format allows.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// Need one more byte to tell \r from \r\n.
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
