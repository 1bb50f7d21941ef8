package osuvsservice

import (
	"context"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/difficulty"
)

// Service drives the competition tracker.
type Service interface {
	// Tick runs one pass of the pipeline at now.
	Tick(ctx context.Context, now time.Time) (TickReport, error)
	// Run ticks on the configured interval until ctx is cancelled.
	Run(ctx context.Context) error

	StartCompetition(ctx context.Context, req StartCompetitionRequest) (osuvsdomain.Competition, error)
	ListCompetitions(ctx context.Context, limit int) ([]osuvsdomain.Competition, error)
	Leaderboard(ctx context.Context, now time.Time) (*Leaderboard, error)
}

// ScoringClient is the remote scoring service.
type ScoringClient interface {
	LookupUser(ctx context.Context, handle string) (osuvsdomain.Participant, error)
	RecentScores(ctx context.Context, id osuvsdomain.ParticipantID, mode osuvsdomain.GameMode, limit int) ([]osuvsdomain.Submission, error)
}

// AnnouncementSink delivers announcements to the chat front-end.
type AnnouncementSink interface {
	Post(ctx context.Context, a osuvsdomain.Announcement) error
}

// AttributeSource provides memoised difficulty attributes for the active map.
type AttributeSource interface {
	Attributes(ctx context.Context, mapID osuvsdomain.MapID, mods osuvsdomain.Mods) (difficulty.Attributes, error)
	Performance(ctx context.Context, mapID osuvsdomain.MapID, sub osuvsdomain.Submission) (float64, error)
}

// Presence exposes the handles currently online.
type Presence interface {
	Snapshot() []string
}
