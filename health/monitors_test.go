package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbeRequestMonitor(t *testing.T) {
	m := NewProbeRequestMonitor(func() time.Time { return now })

	_, ok := m.ElapsedSinceLastProbeRequest(now)
	assert.False(t, ok)

	m.OnReceivedProbeRequest()

	elapsed, ok := m.ElapsedSinceLastProbeRequest(now.Add(5 * time.Second))
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, elapsed)
}

func TestSchedulerMonitor(t *testing.T) {
	var m SchedulerMonitor

	assert.Equal(t, time.Duration(0), m.MeasureDelay())

	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()

		return !m.scheduled
	}, time.Second, time.Millisecond)

	assert.Less(t, m.MeasureDelay(), time.Second)
}
