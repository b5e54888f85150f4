package timing

import "time"

// Limiter paces emulation to wall-clock time, one output period at a time.
type Limiter interface {
	// WaitForNextPeriod blocks until the next period is due. It returns
	// immediately when running behind.
	WaitForNextPeriod()

	// Reset restarts the schedule from now, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that never waits, for offline renders.
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextPeriod() {}
func (n *noOpLimiter) Reset()             {}

// PeriodDuration returns the wall-clock length of samples output samples
// at sampleRate.
func PeriodDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(samples) * int64(time.Second) / int64(sampleRate))
}
