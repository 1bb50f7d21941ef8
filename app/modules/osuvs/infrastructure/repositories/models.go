package osuvsdb

import (
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/uptrace/bun"
)

// Competition is a scheduled competition window on one map.
type Competition struct {
	bun.BaseModel `bun:"table:osuvs_maps,alias:osuvs_maps"`
	BeatmapID     osuvsdomain.MapID `bun:"beatmap_id,pk,notnull"`
	StartDate     time.Time         `bun:"start_date,pk,notnull"`
	EndDate       time.Time         `bun:"end_date,pk,notnull"`
	CreatedAt     time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ToDomain converts the row into the domain type.
func (c *Competition) ToDomain() osuvsdomain.Competition {
	return osuvsdomain.Competition{
		MapID:     c.BeatmapID,
		StartDate: c.StartDate.UTC(),
		EndDate:   c.EndDate.UTC(),
	}
}

// Highscore is a participant's best submission on a competition map.
// RawScore mirrors Score.RawScore so the conditional upsert can compare it in SQL.
type Highscore struct {
	bun.BaseModel `bun:"table:osuvs_scores,alias:osuvs_scores"`
	BeatmapID     osuvsdomain.MapID         `bun:"beatmap_id,pk,notnull"`
	UserID        osuvsdomain.ParticipantID `bun:"user_id,pk,notnull"`
	RawScore      int64                     `bun:"raw_score,notnull"`
	Score         osuvsdomain.Submission    `bun:"score,type:jsonb,notnull"`
	UpdatedAt     time.Time                 `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
