// Package client provides the stream transports (SSE and WebSocket) and the
// REST client for the recipe server. Types mirror the server wire protocol
// without importing server packages.
package client

import "time"

// StreamPath is the fixed streaming endpoint. The websocket variant lives
// under StreamPath + "/ws".
const StreamPath = "/recipeStream"

// RequestIDHeader carries the client-generated id of a stream request.
const RequestIDHeader = "X-Request-ID"

// Transport names accepted by New.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "ws"
)

// Status mirrors the server's /api/status payload.
type Status struct {
	Generator     string        `json:"generator"`
	ActiveStreams int           `json:"activeStreams"`
	StartedAt     time.Time     `json:"startedAt"`
	Uptime        string        `json:"uptime"`
	Process       *ProcessStats `json:"process,omitempty"`
}

// ProcessStats mirrors the server's process section of /api/status.
type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
	NumThreads int32   `json:"numThreads"`
	Goroutines int     `json:"goroutines"`
}
