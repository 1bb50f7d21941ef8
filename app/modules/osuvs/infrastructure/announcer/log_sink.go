package announcer

import (
	"context"
	"log/slog"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

// LogSink writes announcements to the log instead of delivering them.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Post logs the announcement.
func (s *LogSink) Post(ctx context.Context, a osuvsdomain.Announcement) error {
	s.logger.InfoContext(ctx, "Announcement (dry run)",
		slog.String("kind", string(a.Kind)),
		slog.Uint64("map_id", uint64(a.MapID)),
		slog.String("text", a.Text),
	)
	return nil
}
