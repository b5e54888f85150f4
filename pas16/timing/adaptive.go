package timing

import (
	"log/slog"
	"time"
)

// spinThreshold is the remaining wait below which the limiter spins
// instead of sleeping.
const spinThreshold = 2 * time.Millisecond

// AdaptiveLimiter sleeps most of each period and spins the rest, and pulls
// the schedule back when it drifts.
type AdaptiveLimiter struct {
	period  time.Duration
	next    time.Time
	periods int64
}

func NewAdaptiveLimiter(period time.Duration) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		period: period,
		next:   time.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextPeriod() {
	now := time.Now()
	wait := a.next.Sub(now)

	switch {
	case wait >= spinThreshold:
		time.Sleep(wait - time.Millisecond)
		fallthrough
	case wait > 0:
		for time.Now().Before(a.next) {
		}
	case wait < -5*time.Millisecond:
		// too far behind to catch up
		a.next = now
	}

	a.next = a.next.Add(a.period)
	a.periods++

	if a.periods%50 == 0 {
		drift := time.Since(a.next)
		if drift.Abs() > 10*time.Millisecond {
			a.next = a.next.Add(drift / 10)
			slog.Debug("period timing drift correction", "drift_ms", drift.Milliseconds())
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.next = time.Now()
	a.periods = 0
}

// Periods returns how many periods have been paced since the last Reset.
func (a *AdaptiveLimiter) Periods() int64 {
	return a.periods
}
