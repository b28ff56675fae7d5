package periodic

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const defaultGrace = 3 * time.Second

type Option func(*Timer)

// WithGrace sets how long a tick may be overdue before the timer reports
// itself as unhealthy.
func WithGrace(d time.Duration) Option {
	return func(t *Timer) {
		t.grace = d
	}
}

// WithTaskTimeout sets how long the task may run after a tick before the
// timer reports itself as unhealthy. It defaults to the period.
func WithTaskTimeout(d time.Duration) Option {
	return func(t *Timer) {
		t.taskTimeout = d
	}
}

// Timer drives a periodic task. The task calls Next in a loop, and Next blocks
// until the next tick is due or the context is canceled. Between a tick and
// the following call to Next the task is busy. The timer tracks both phases
// so that a stalled loop can be detected.
type Timer struct {
	name        string
	period      time.Duration
	grace       time.Duration
	taskTimeout time.Duration

	mu        sync.Mutex
	due       time.Time
	busySince time.Time
	lastTick  time.Time
}

func New(name string, period time.Duration, opts ...Option) *Timer {
	t := &Timer{
		name:        name,
		period:      period,
		grace:       defaultGrace,
		taskTimeout: period,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Next waits for one period. It returns false if the context was canceled
// before the tick.
func (t *Timer) Next(ctx context.Context) bool {
	return t.NextAfter(ctx, t.period)
}

// NextAfter waits for the given delay instead of the regular period.
func (t *Timer) NextAfter(ctx context.Context, delay time.Duration) bool {
	t.mu.Lock()
	t.due = time.Now().Add(delay)
	t.busySince = time.Time{}
	t.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case now := <-timer.C:
		t.mu.Lock()
		t.lastTick = now
		t.busySince = now
		t.due = time.Time{}
		t.mu.Unlock()

		return true
	}
}

// CheckHealth reports whether the timer ticked on time and the task did not
// outrun its timeout. A timer that has never been started is considered
// healthy.
func (t *Timer) CheckHealth(now time.Time) (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.busySince.IsZero() {
		if busy := now.Sub(t.busySince); busy > t.taskTimeout+t.grace {
			return false, fmt.Sprintf("%s task has been running since %s, which is %s ago",
				t.name, t.busySince.Format(time.RFC3339Nano), busy)
		}

		return true, ""
	}

	if t.due.IsZero() {
		return true, ""
	}

	if overdue := now.Sub(t.due); overdue > t.grace {
		return false, fmt.Sprintf("%s timer should have fired at %s, which is %s ago",
			t.name, t.due.Format(time.RFC3339Nano), overdue)
	}

	return true, ""
}

// LastTick returns the time of the most recent tick.
func (t *Timer) LastTick() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.lastTick
}

func (t *Timer) Name() string {
	return t.name
}
