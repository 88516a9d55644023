// Package procstat samples resource usage of the running server process.
package procstat

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time sample of the current process.
type Stats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
	NumThreads int32   `json:"numThreads"`
	Goroutines int     `json:"goroutines"`
}

// Sampler reads Stats for one process.
type Sampler struct {
	proc *process.Process
}

// NewSampler attaches to the current process.
func NewSampler() (*Sampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "open process")
	}
	return &Sampler{proc: p}, nil
}

// Sample collects a fresh Stats. Fields the platform cannot report are
// left zero.
func (s *Sampler) Sample() (Stats, error) {
	st := Stats{
		PID:        s.proc.Pid,
		Goroutines: runtime.NumGoroutine(),
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return st, errors.Wrap(err, "memory info")
	}
	st.RSSBytes = mem.RSS
	if cpu, err := s.proc.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	if n, err := s.proc.NumThreads(); err == nil {
		st.NumThreads = n
	}
	return st, nil
}
