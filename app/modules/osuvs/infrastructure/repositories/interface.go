package osuvsdb

import (
	"context"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/uptrace/bun"
)

// Repository defines the contract for competition persistence.
type Repository interface {
	// GetActiveCompetition returns the competition whose window contains now.
	// Overlapping windows resolve to the earliest start.
	GetActiveCompetition(ctx context.Context, db bun.IDB, now time.Time) (*Competition, error)

	// GetHighscores returns the stored highscores for a map keyed by participant.
	GetHighscores(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID) (map[osuvsdomain.ParticipantID]osuvsdomain.Submission, error)

	// UpsertHighscore stores sub unless a higher or equal raw score is already stored.
	// It reports whether a row was written.
	UpsertHighscore(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, userID osuvsdomain.ParticipantID, sub osuvsdomain.Submission) (bool, error)

	// InsertCompetition schedules a competition. Inserting the same window twice reports false.
	InsertCompetition(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, start, end time.Time) (bool, error)

	// GetLatestCompetitionEnd returns the end of the last scheduled competition.
	GetLatestCompetitionEnd(ctx context.Context, db bun.IDB) (time.Time, error)

	// ListCompetitions returns the most recently started competitions first.
	ListCompetitions(ctx context.Context, db bun.IDB, limit int) ([]Competition, error)
}
