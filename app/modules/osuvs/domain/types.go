package osuvsdomain

import (
	"fmt"
	"time"
)

// ParticipantID is the scoring service's numeric user id.
type ParticipantID uint32

// Participant is a resolved scoring service user.
type Participant struct {
	ID       ParticipantID
	Username string
}

// MapID identifies a beatmap difficulty.
type MapID uint32

func (m MapID) String() string {
	return fmt.Sprintf("%d", uint32(m))
}

// GameMode names a ruleset the way the scoring service does.
type GameMode string

const (
	ModeOsu    GameMode = "osu"
	ModeTaiko  GameMode = "taiko"
	ModeFruits GameMode = "fruits"
	ModeMania  GameMode = "mania"
)

// Valid reports whether m is a known ruleset.
func (m GameMode) Valid() bool {
	switch m {
	case ModeOsu, ModeTaiko, ModeFruits, ModeMania:
		return true
	}
	return false
}

// Grade is the letter rank of a submission. GradeF marks a failed play.
type Grade string

const (
	GradeXH Grade = "XH"
	GradeX  Grade = "X"
	GradeSH Grade = "SH"
	GradeS  Grade = "S"
	GradeA  Grade = "A"
	GradeB  Grade = "B"
	GradeC  Grade = "C"
	GradeD  Grade = "D"
	GradeF  Grade = "F"
)

// HitStatistics holds the judgement counts of a play.
type HitStatistics struct {
	Count300  uint32 `json:"count_300"`
	Count100  uint32 `json:"count_100"`
	Count50   uint32 `json:"count_50"`
	CountMiss uint32 `json:"count_miss"`
	CountGeki uint32 `json:"count_geki"`
	CountKatu uint32 `json:"count_katu"`
}

// Objects is the number of judged hit objects.
func (h HitStatistics) Objects() uint32 {
	return h.Count300 + h.Count100 + h.Count50 + h.CountMiss
}

// Accuracy returns the standard-mode accuracy in [0,1]. Zero objects yields 0.
func (h HitStatistics) Accuracy() float64 {
	total := h.Objects()
	if total == 0 {
		return 0
	}
	hits := 300*float64(h.Count300) + 100*float64(h.Count100) + 50*float64(h.Count50)
	return hits / (300 * float64(total))
}

// Submission is one play reported by the scoring service.
type Submission struct {
	ScoreID       uint64        `json:"score_id,omitempty"`
	ParticipantID ParticipantID `json:"user_id"`
	MapID         MapID         `json:"beatmap_id"`
	Mods          Mods          `json:"mods"`
	RawScore      uint64        `json:"score"`
	MaxCombo      uint32        `json:"max_combo"`
	Accuracy      float64       `json:"accuracy"`
	Statistics    HitStatistics `json:"statistics"`
	Grade         Grade         `json:"grade"`
	CreatedAt     time.Time     `json:"created_at"`

	// Performance is filled in by the tracker from the map's difficulty attributes.
	Performance *float64 `json:"pp,omitempty"`
}

// Competition is a time-boxed event on a single map. The window is [StartDate, EndDate).
type Competition struct {
	MapID     MapID     `json:"map_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Contains reports whether now falls inside the competition window.
func (c Competition) Contains(now time.Time) bool {
	return !now.Before(c.StartDate) && now.Before(c.EndDate)
}

// Duration is the length of the competition window.
func (c Competition) Duration() time.Duration {
	return c.EndDate.Sub(c.StartDate)
}
