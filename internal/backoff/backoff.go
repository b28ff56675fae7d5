package backoff

import (
	"math/rand"
	"time"
)

// Exponential produces randomized delays that grow exponentially with the
// attempt number. The delay for attempt n is picked uniformly from
// [Min, min(Max, Min+Step*2^n)).
type Exponential struct {
	Min  time.Duration
	Max  time.Duration
	Step time.Duration
}

func (b Exponential) Next(attempt int) time.Duration {
	upper := b.Max

	if attempt < 30 {
		if d := b.Min + b.Step*time.Duration(1<<attempt); d > 0 && d < upper {
			upper = d
		}
	}

	if upper <= b.Min {
		return b.Min
	}

	return b.Min + time.Duration(rand.Int63n(int64(upper-b.Min)))
}

// Jitter returns a random duration in [0, d).
func Jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(d)))
}
