package osuapi

import (
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

type userResponse struct {
	ID       uint32 `json:"id"`
	Username string `json:"username"`
}

type scoreStatistics struct {
	Count300  uint32 `json:"count_300"`
	Count100  uint32 `json:"count_100"`
	Count50   uint32 `json:"count_50"`
	CountMiss uint32 `json:"count_miss"`
	CountGeki uint32 `json:"count_geki"`
	CountKatu uint32 `json:"count_katu"`
}

type scoreResponse struct {
	ID         uint64          `json:"id"`
	UserID     uint32          `json:"user_id"`
	Mods       []string        `json:"mods"`
	Score      uint64          `json:"score"`
	MaxCombo   uint32          `json:"max_combo"`
	Accuracy   float64         `json:"accuracy"`
	Rank       string          `json:"rank"`
	Passed     bool            `json:"passed"`
	CreatedAt  time.Time       `json:"created_at"`
	PP         *float64        `json:"pp"`
	Statistics scoreStatistics `json:"statistics"`
	Beatmap    struct {
		ID uint32 `json:"id"`
	} `json:"beatmap"`
}

func (s scoreResponse) toDomain(mods osuvsdomain.Mods) osuvsdomain.Submission {
	grade := osuvsdomain.Grade(s.Rank)
	if !s.Passed {
		grade = osuvsdomain.GradeF
	}
	return osuvsdomain.Submission{
		ScoreID:       s.ID,
		ParticipantID: osuvsdomain.ParticipantID(s.UserID),
		MapID:         osuvsdomain.MapID(s.Beatmap.ID),
		Mods:          mods,
		RawScore:      s.Score,
		MaxCombo:      s.MaxCombo,
		Accuracy:      s.Accuracy,
		Grade:         grade,
		CreatedAt:     s.CreatedAt.UTC(),
		Performance:   s.PP,
		Statistics: osuvsdomain.HitStatistics{
			Count300:  s.Statistics.Count300,
			Count100:  s.Statistics.Count100,
			Count50:   s.Statistics.Count50,
			CountMiss: s.Statistics.CountMiss,
			CountGeki: s.Statistics.CountGeki,
			CountKatu: s.Statistics.CountKatu,
		},
	}
}
