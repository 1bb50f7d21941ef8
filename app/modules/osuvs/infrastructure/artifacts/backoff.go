package artifacts

import (
	"context"
	"math"
	"time"
)

// Backoff describes the retry schedule for artifact downloads.
// Retry i (1-based) waits min(MaxDelay, Base^i * Factor).
type Backoff struct {
	Base        float64
	Factor      time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultBackoff waits 1s, 2s, 4s, 8s and then 10s, for 10 retries.
var DefaultBackoff = Backoff{
	Base:        2,
	Factor:      500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
	MaxAttempts: 10,
}

// Delay returns the wait before retry i.
func (b Backoff) Delay(i int) time.Duration {
	d := math.Pow(b.Base, float64(i)) * float64(b.Factor)
	if math.IsInf(d, 0) || math.IsNaN(d) || d > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	return time.Duration(d)
}

// Delays returns the full schedule, one entry per retry.
func (b Backoff) Delays() []time.Duration {
	delays := make([]time.Duration, 0, b.MaxAttempts)
	for i := 1; i <= b.MaxAttempts; i++ {
		delays = append(delays, b.Delay(i))
	}
	return delays
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
