package server

import (
	"sort"
	"sync"
	"time"
)

// StreamInfo describes one stream being served.
type StreamInfo struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId,omitempty"`
	Transport string    `json:"transport"`
	Remote    string    `json:"remote"`
	StartedAt time.Time `json:"startedAt"`
	Fragments int       `json:"fragments"`
}

// Registry tracks active streams. A limit of zero means unlimited.
type Registry struct {
	mu      sync.RWMutex
	streams map[string]*StreamInfo
	limit   int
}

func NewRegistry(limit int) *Registry {
	return &Registry{
		streams: make(map[string]*StreamInfo),
		limit:   limit,
	}
}

// Add registers info and reports false when the registry is full.
func (r *Registry) Add(info *StreamInfo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.streams) >= r.limit {
		return false
	}
	copy := *info
	r.streams[info.ID] = &copy
	return true
}

// Fragment counts one sent fragment for stream id.
func (r *Registry) Fragment(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.streams[id]; ok {
		st.Fragments++
	}
}

func (r *Registry) Get(id string) (*StreamInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.streams[id]
	if !ok {
		return nil, false
	}
	copy := *st
	return &copy, true
}

// GetAll returns copies of every active stream, oldest first.
func (r *Registry) GetAll() []*StreamInfo {
	r.mu.RLock()
	result := make([]*StreamInfo, 0, len(r.streams))
	for _, st := range r.streams {
		copy := *st
		result = append(result, &copy)
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, id)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}
