package testutil

import (
	"sync"
	"time"

	"github.com/npratt/tminus/internal/countdown"
)

// ManualScheduler is a countdown.Scheduler that only fires when told to.
// It lets tests drive ticks without waiting on a wall clock.
type ManualScheduler struct {
	mu       sync.Mutex
	handles  []*ManualHandle
	acquired int
}

// NewManualScheduler creates an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Every registers fn and returns its handle. The interval is recorded but
// otherwise ignored.
func (s *ManualScheduler) Every(interval time.Duration, fn func()) countdown.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := &ManualHandle{sched: s, fn: fn, Interval: interval}
	s.handles = append(s.handles, h)
	s.acquired++
	return h
}

// Advance fires every live handle n times, one period at a time. Handles
// stopped during a period are not fired again.
func (s *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		for _, h := range s.live() {
			if h.Stopped() {
				continue
			}
			h.fn()
		}
	}
}

// Live returns the number of handles that have not been stopped.
func (s *ManualScheduler) Live() int {
	return len(s.live())
}

// Acquired returns how many handles were ever handed out.
func (s *ManualScheduler) Acquired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired
}

func (s *ManualScheduler) live() []*ManualHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ManualHandle
	for _, h := range s.handles {
		if !h.stopped {
			out = append(out, h)
		}
	}
	return out
}

// ManualHandle is the handle returned by ManualScheduler.
type ManualHandle struct {
	sched    *ManualScheduler
	fn       func()
	stopped  bool
	stops    int
	Interval time.Duration
}

// Stop marks the handle stopped.
func (h *ManualHandle) Stop() {
	h.sched.mu.Lock()
	defer h.sched.mu.Unlock()
	h.stopped = true
	h.stops++
}

// Stopped reports whether Stop was called.
func (h *ManualHandle) Stopped() bool {
	h.sched.mu.Lock()
	defer h.sched.mu.Unlock()
	return h.stopped
}

// Stops returns how many times Stop was called.
func (h *ManualHandle) Stops() int {
	h.sched.mu.Lock()
	defer h.sched.mu.Unlock()
	return h.stops
}
