package health

import (
	"sync"
	"time"
)

// ProbeRequestMonitor remembers when the local silo was last probed by a
// remote one. A silo that stops receiving probes may be partitioned away.
type ProbeRequestMonitor struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewProbeRequestMonitor(now func() time.Time) *ProbeRequestMonitor {
	return &ProbeRequestMonitor{now: now}
}

func (m *ProbeRequestMonitor) OnReceivedProbeRequest() {
	m.mu.Lock()
	m.last = m.now()
	m.mu.Unlock()
}

// ElapsedSinceLastProbeRequest returns false if no probe was received yet.
func (m *ProbeRequestMonitor) ElapsedSinceLastProbeRequest(now time.Time) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.last.IsZero() {
		return 0, false
	}

	return now.Sub(m.last), true
}
