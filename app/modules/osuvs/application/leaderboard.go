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
)

// LeaderboardEntry is one ranked highscore.
type LeaderboardEntry struct {
	Rank       int
	Handle     string
	Submission osuvsdomain.Submission
	// Performance and MaxPerformance are nil when the map's attributes are unavailable.
	Performance    *float64
	MaxPerformance *float64
}

// Accuracy returns the entry's accuracy as a percentage.
func (e LeaderboardEntry) Accuracy() float64 {
	return accuracyPercent(e.Submission)
}

// Leaderboard is the ranked standing of a competition.
type Leaderboard struct {
	Competition osuvsdomain.Competition
	Entries     []LeaderboardEntry
	Total       int
}

// Leaderboard returns the standings of the competition running at now.
func (s *OsuVSService) Leaderboard(ctx context.Context, now time.Time) (*Leaderboard, error) {
	return withTelemetry(s, ctx, "Leaderboard", now.UTC().Format(time.RFC3339), func(ctx context.Context) (*Leaderboard, error) {
		row, err := s.repo.GetActiveCompetition(ctx, nil, now)
		if err != nil {
			if errors.Is(err, osuvsdb.ErrNoActiveCompetition) {
				return nil, ErrNoActiveCompetition
			}
			return nil, fmt.Errorf("failed to get active competition: %w", err)
		}
		return s.buildLeaderboard(ctx, row.ToDomain())
	})
}

// buildLeaderboard ranks the stored highscores of comp. Attributes are computed
// once per mods value.
func (s *OsuVSService) buildLeaderboard(ctx context.Context, comp osuvsdomain.Competition) (*Leaderboard, error) {
	scores, err := s.repo.GetHighscores(ctx, nil, comp.MapID)
	if err != nil {
		return nil, fmt.Errorf("failed to load highscores: %w", err)
	}

	ranked := osuvsdomain.RankHighscores(scores)
	board := &Leaderboard{Competition: comp, Total: len(ranked)}
	if len(ranked) > s.cfg.LeaderboardSize {
		ranked = ranked[:s.cfg.LeaderboardSize]
	}

	attrs := make(map[osuvsdomain.Mods]difficulty.Attributes)
	attrsAvailable := true

	for i, sub := range ranked {
		entry := LeaderboardEntry{Rank: i + 1, Submission: sub}
		if name, ok := s.resolver.Username(sub.ParticipantID); ok {
			entry.Handle = name
		}

		if attrsAvailable {
			a, ok := attrs[sub.Mods]
			if !ok {
				a, err = s.attributes.Attributes(ctx, comp.MapID, sub.Mods)
				if err != nil {
					s.logger.WarnContext(ctx, "Leaderboard without performance values",
						slog.Uint64("map_id", uint64(comp.MapID)),
						slog.Any("error", err),
					)
					attrsAvailable = false
				} else {
					attrs[sub.Mods] = a
					ok = true
				}
			}
			if ok {
				pp := difficulty.Performance(a, sub)
				if sub.Performance != nil {
					pp = *sub.Performance
				}
				maxPP := a.MaxPP
				entry.Performance = &pp
				entry.MaxPerformance = &maxPP
			}
		}
		board.Entries = append(board.Entries, entry)
	}
	return board, nil
}
