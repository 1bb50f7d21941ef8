package osuvsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new competition repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// GetActiveCompetition returns the competition whose window contains now.
func (r *Impl) GetActiveCompetition(ctx context.Context, db bun.IDB, now time.Time) (*Competition, error) {
	db = r.resolveDB(db)
	now = now.UTC()
	comp := new(Competition)
	err := db.NewSelect().
		Model(comp).
		Where("start_date <= ?", now).
		Where("end_date > ?", now).
		Order("start_date ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveCompetition
		}
		return nil, fmt.Errorf("failed to get active competition: %w", err)
	}
	return comp, nil
}

// GetHighscores returns the stored highscores for a map keyed by participant.
func (r *Impl) GetHighscores(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID) (map[osuvsdomain.ParticipantID]osuvsdomain.Submission, error) {
	db = r.resolveDB(db)
	var rows []Highscore
	err := db.NewSelect().
		Model(&rows).
		Where("beatmap_id = ?", mapID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get highscores for map %d: %w", mapID, err)
	}

	scores := make(map[osuvsdomain.ParticipantID]osuvsdomain.Submission, len(rows))
	for _, row := range rows {
		sub := row.Score
		sub.ParticipantID = row.UserID
		scores[row.UserID] = sub
	}
	return scores, nil
}

// UpsertHighscore inserts or raises a participant's highscore. The conflict branch
// only fires when the incoming raw score is strictly higher.
func (r *Impl) UpsertHighscore(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, userID osuvsdomain.ParticipantID, sub osuvsdomain.Submission) (bool, error) {
	db = r.resolveDB(db)
	sub.ParticipantID = userID
	sub.MapID = mapID
	row := &Highscore{
		BeatmapID: mapID,
		UserID:    userID,
		RawScore:  int64(sub.RawScore),
		Score:     sub,
		UpdatedAt: time.Now().UTC(),
	}
	result, err := db.NewInsert().
		Model(row).
		On("CONFLICT (beatmap_id, user_id) DO UPDATE").
		Set("raw_score = EXCLUDED.raw_score").
		Set("score = EXCLUDED.score").
		Set("updated_at = EXCLUDED.updated_at").
		Where("osuvs_scores.raw_score < EXCLUDED.raw_score").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to upsert highscore for user %d: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// InsertCompetition schedules a competition window.
func (r *Impl) InsertCompetition(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, start, end time.Time) (bool, error) {
	db = r.resolveDB(db)
	comp := &Competition{
		BeatmapID: mapID,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	result, err := db.NewInsert().
		Model(comp).
		On("CONFLICT (beatmap_id, start_date, end_date) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert competition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetLatestCompetitionEnd returns the end of the last scheduled competition.
func (r *Impl) GetLatestCompetitionEnd(ctx context.Context, db bun.IDB) (time.Time, error) {
	db = r.resolveDB(db)
	comp := new(Competition)
	err := db.NewSelect().
		Model(comp).
		Order("end_date DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get latest competition end: %w", err)
	}
	return comp.EndDate.UTC(), nil
}

// ListCompetitions returns up to limit competitions, newest start first.
func (r *Impl) ListCompetitions(ctx context.Context, db bun.IDB, limit int) ([]Competition, error) {
	db = r.resolveDB(db)
	var comps []Competition
	q := db.NewSelect().
		Model(&comps).
		Order("start_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return comps, nil
}
