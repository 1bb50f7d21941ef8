package osuvsservice

import (
	"context"
	"log/slog"
	"time"
)

// Run ticks until ctx is cancelled. The next tick is scheduled one interval
// after the previous one finished, so ticks never overlap. A tick in flight
// when ctx is cancelled runs to completion before Run returns.
func (s *OsuVSService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Competition tracker started", slog.Duration("interval", s.cfg.Interval))

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Competition tracker stopped")
			return nil
		case <-timer.C:
		}

		// Errors are logged by the telemetry wrapper; the loop keeps going.
		_, _ = s.Tick(context.WithoutCancel(ctx), s.clock())

		timer.Reset(s.cfg.Interval)
	}
}
