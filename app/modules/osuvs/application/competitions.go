package osuvsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	osuvsdb "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// StartCompetitionRequest schedules a competition. A nil Start queues it after
// the last scheduled competition, or now if that one already ended. A zero
// Duration uses the configured default.
type StartCompetitionRequest struct {
	MapID    osuvsdomain.MapID
	Start    *time.Time
	Duration time.Duration
}

// StartCompetition schedules a new competition window.
func (s *OsuVSService) StartCompetition(ctx context.Context, req StartCompetitionRequest) (osuvsdomain.Competition, error) {
	return withTelemetry(s, ctx, "StartCompetition", req.MapID.String(), func(ctx context.Context) (osuvsdomain.Competition, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (osuvsdomain.Competition, error) {
			return s.startCompetitionLogic(ctx, db, req)
		})
	})
}

func (s *OsuVSService) startCompetitionLogic(ctx context.Context, db bun.IDB, req StartCompetitionRequest) (osuvsdomain.Competition, error) {
	duration := req.Duration
	if duration == 0 {
		duration = s.cfg.CompetitionDuration
	}
	if duration < 0 {
		return osuvsdomain.Competition{}, ErrInvalidDuration
	}

	now := s.clock().UTC()
	var start time.Time
	if req.Start != nil {
		start = req.Start.UTC()
	} else {
		latest, err := s.repo.GetLatestCompetitionEnd(ctx, db)
		switch {
		case errors.Is(err, osuvsdb.ErrNotFound):
			start = now
		case err != nil:
			return osuvsdomain.Competition{}, fmt.Errorf("failed to get latest competition: %w", err)
		default:
			start = latest
			if start.Before(now) {
				start = now
			}
		}
	}
	start = start.Truncate(time.Second)

	comp := osuvsdomain.Competition{
		MapID:     req.MapID,
		StartDate: start,
		EndDate:   start.Add(duration),
	}
	created, err := s.repo.InsertCompetition(ctx, db, comp.MapID, comp.StartDate, comp.EndDate)
	if err != nil {
		return osuvsdomain.Competition{}, fmt.Errorf("failed to insert competition: %w", err)
	}
	if !created {
		return osuvsdomain.Competition{}, ErrCompetitionExists
	}

	s.logger.InfoContext(ctx, "Competition scheduled",
		slog.Uint64("map_id", uint64(comp.MapID)),
		slog.Time("start_date", comp.StartDate),
		slog.Time("end_date", comp.EndDate),
	)
	return comp, nil
}

// ListCompetitions returns up to limit competitions, most recent start first.
func (s *OsuVSService) ListCompetitions(ctx context.Context, limit int) ([]osuvsdomain.Competition, error) {
	return withTelemetry(s, ctx, "ListCompetitions", fmt.Sprint(limit), func(ctx context.Context) ([]osuvsdomain.Competition, error) {
		rows, err := s.repo.ListCompetitions(ctx, nil, limit)
		if err != nil {
			return nil, err
		}
		comps := make([]osuvsdomain.Competition, 0, len(rows))
		for i := range rows {
			comps = append(comps, rows[i].ToDomain())
		}
		return comps, nil
	})
}
