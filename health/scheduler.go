package health

import (
	"sync"
	"time"
)

// SchedulerMonitor measures how long a freshly spawned goroutine waits before
// it starts running. Long delays mean the process is starved of CPU or
// paused by the garbage collector.
type SchedulerMonitor struct {
	mu        sync.Mutex
	scheduled bool
	queuedAt  time.Time
	lastDelay time.Duration
}

// MeasureDelay returns the larger of the last completed measurement and the
// time the pending one has been waiting so far. A new measurement is started
// whenever none is pending.
func (s *SchedulerMonitor) MeasureDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current time.Duration
	if s.scheduled {
		current = time.Since(s.queuedAt)
	}

	delay := max(current, s.lastDelay)

	if !s.scheduled {
		s.scheduled = true
		s.queuedAt = time.Now()

		go s.execute()
	}

	return delay
}

func (s *SchedulerMonitor) execute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastDelay = time.Since(s.queuedAt)
	s.scheduled = false
}
