package osuvsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/difficulty"
	osuvsdb "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories"
	"github.com/google/uuid"
)

// TickReport summarises one pass of the pipeline.
type TickReport struct {
	TickID       string
	At           time.Time
	State        osuvsdomain.State
	Competition  *osuvsdomain.Competition
	Online       int
	Polled       int
	PollFailures int
	Candidates   int
	Merge        MergeResult
	MergeSkipped bool
	Announced    []osuvsdomain.AnnouncementKind
}

// Tick runs the pipeline once: lifecycle start, poll, select, merge, lifecycle end.
// Only a failure to read the active competition is returned as an error.
func (s *OsuVSService) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	tickID := uuid.NewString()
	return withTelemetry(s, ctx, "Tick", tickID, func(ctx context.Context) (TickReport, error) {
		return s.tick(ctx, now.UTC(), tickID)
	})
}

func (s *OsuVSService) tick(ctx context.Context, now time.Time, tickID string) (report TickReport, err error) {
	report = TickReport{TickID: tickID, At: now}
	logger := s.logger.With(slog.String("tick_id", tickID))

	started := time.Now()
	defer func() {
		s.metrics.RecordTick(ctx, report.State.String(), time.Since(started))
	}()

	row, err := s.repo.GetActiveCompetition(ctx, nil, now)
	if err != nil {
		if errors.Is(err, osuvsdb.ErrNoActiveCompetition) {
			logger.DebugContext(ctx, "No competition running")
			return report, nil
		}
		return report, fmt.Errorf("failed to get active competition: %w", err)
	}

	comp := row.ToDomain()
	lc := osuvsdomain.EvaluateLifecycle(&comp, now, s.cfg.Interval)
	report.State = lc.State
	if lc.State == osuvsdomain.NoCompetition {
		return report, nil
	}
	report.Competition = &comp
	logger = logger.With(slog.Uint64("map_id", uint64(comp.MapID)))

	if lc.JustStarted {
		var attrs *difficulty.Attributes
		if a, err := s.attributes.Attributes(ctx, comp.MapID, 0); err != nil {
			logger.WarnContext(ctx, "Announcing start without map attributes", slog.Any("error", err))
		} else {
			attrs = &a
		}
		if s.announce(ctx, startAnnouncement(comp, attrs)) {
			report.Announced = append(report.Announced, osuvsdomain.AnnouncementStarted)
		}
	}

	handles := s.presence.Snapshot()
	report.Online = len(handles)
	ids := s.resolver.Resolve(ctx, handles)

	poll := s.poller.Poll(ctx, ids)
	report.Polled = len(poll.Submissions)
	report.PollFailures = len(poll.Failed)
	s.metrics.RecordPolled(ctx, len(ids), len(poll.Failed))

	candidates := osuvsdomain.SelectCandidates(poll.Submissions, comp, s.cfg.ExcludedMods)
	report.Candidates = len(candidates)

	merge, err := s.mergeHighscores(ctx, comp, candidates)
	if err != nil {
		logger.WarnContext(ctx, "Skipping highscore merge", slog.Any("error", err))
		report.MergeSkipped = true
	} else {
		report.Merge = merge
		s.metrics.RecordMerge(ctx, "inserted", len(merge.Inserted))
		s.metrics.RecordMerge(ctx, "improved", len(merge.Improved))
		s.metrics.RecordMerge(ctx, "unchanged", len(merge.Unchanged))
		s.metrics.RecordMerge(ctx, "failed", len(merge.Failed))
	}

	if lc.AboutToEnd {
		board, err := s.buildLeaderboard(ctx, comp)
		if err != nil {
			logger.WarnContext(ctx, "Announcing end without leaderboard", slog.Any("error", err))
		}
		if s.announce(ctx, endAnnouncement(comp, board)) {
			report.Announced = append(report.Announced, osuvsdomain.AnnouncementEnding)
		}
	}

	logger.InfoContext(ctx, "Tick completed",
		slog.Int("online", report.Online),
		slog.Int("polled", report.Polled),
		slog.Int("candidates", report.Candidates),
		slog.Int("written", report.Merge.Written()),
		slog.Bool("merge_skipped", report.MergeSkipped),
	)
	return report, nil
}
