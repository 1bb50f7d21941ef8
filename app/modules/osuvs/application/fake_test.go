package osuvsservice

import (
	"context"
	"sync"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/difficulty"
	osuvsdb "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// callTrace records calls across fakes so tests can assert ordering.
type callTrace struct {
	mu    sync.Mutex
	calls []string
}

func (t *callTrace) record(step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, step)
}

func (t *callTrace) Trace() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.calls))
	copy(out, t.calls)
	return out
}

func (t *callTrace) Count(step string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c == step {
			n++
		}
	}
	return n
}

// ------------------------
// Fake Repository
// ------------------------

type FakeRepo struct {
	*callTrace

	GetActiveCompetitionFunc    func(ctx context.Context, db bun.IDB, now time.Time) (*osuvsdb.Competition, error)
	GetHighscoresFunc           func(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID) (map[osuvsdomain.ParticipantID]osuvsdomain.Submission, error)
	UpsertHighscoreFunc         func(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, userID osuvsdomain.ParticipantID, sub osuvsdomain.Submission) (bool, error)
	InsertCompetitionFunc       func(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, start, end time.Time) (bool, error)
	GetLatestCompetitionEndFunc func(ctx context.Context, db bun.IDB) (time.Time, error)
	ListCompetitionsFunc        func(ctx context.Context, db bun.IDB, limit int) ([]osuvsdb.Competition, error)
}

func NewFakeRepo(t *callTrace) *FakeRepo {
	return &FakeRepo{callTrace: t}
}

func (f *FakeRepo) GetActiveCompetition(ctx context.Context, db bun.IDB, now time.Time) (*osuvsdb.Competition, error) {
	f.record("GetActiveCompetition")
	if f.GetActiveCompetitionFunc != nil {
		return f.GetActiveCompetitionFunc(ctx, db, now)
	}
	return nil, osuvsdb.ErrNoActiveCompetition
}

func (f *FakeRepo) GetHighscores(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID) (map[osuvsdomain.ParticipantID]osuvsdomain.Submission, error) {
	f.record("GetHighscores")
	if f.GetHighscoresFunc != nil {
		return f.GetHighscoresFunc(ctx, db, mapID)
	}
	return map[osuvsdomain.ParticipantID]osuvsdomain.Submission{}, nil
}

func (f *FakeRepo) UpsertHighscore(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, userID osuvsdomain.ParticipantID, sub osuvsdomain.Submission) (bool, error) {
	f.record("UpsertHighscore")
	if f.UpsertHighscoreFunc != nil {
		return f.UpsertHighscoreFunc(ctx, db, mapID, userID, sub)
	}
	return true, nil
}

func (f *FakeRepo) InsertCompetition(ctx context.Context, db bun.IDB, mapID osuvsdomain.MapID, start, end time.Time) (bool, error) {
	f.record("InsertCompetition")
	if f.InsertCompetitionFunc != nil {
		return f.InsertCompetitionFunc(ctx, db, mapID, start, end)
	}
	return true, nil
}

func (f *FakeRepo) GetLatestCompetitionEnd(ctx context.Context, db bun.IDB) (time.Time, error) {
	f.record("GetLatestCompetitionEnd")
	if f.GetLatestCompetitionEndFunc != nil {
		return f.GetLatestCompetitionEndFunc(ctx, db)
	}
	return time.Time{}, osuvsdb.ErrNotFound
}

func (f *FakeRepo) ListCompetitions(ctx context.Context, db bun.IDB, limit int) ([]osuvsdb.Competition, error) {
	f.record("ListCompetitions")
	if f.ListCompetitionsFunc != nil {
		return f.ListCompetitionsFunc(ctx, db, limit)
	}
	return nil, nil
}

var _ osuvsdb.Repository = (*FakeRepo)(nil)

// ------------------------
// Fake Scoring Client
// ------------------------

type FakeScoring struct {
	*callTrace

	LookupUserFunc   func(ctx context.Context, handle string) (osuvsdomain.Participant, error)
	RecentScoresFunc func(ctx context.Context, id osuvsdomain.ParticipantID, mode osuvsdomain.GameMode, limit int) ([]osuvsdomain.Submission, error)
}

func NewFakeScoring(t *callTrace) *FakeScoring {
	return &FakeScoring{callTrace: t}
}

func (f *FakeScoring) LookupUser(ctx context.Context, handle string) (osuvsdomain.Participant, error) {
	f.record("LookupUser")
	if f.LookupUserFunc != nil {
		return f.LookupUserFunc(ctx, handle)
	}
	return osuvsdomain.Participant{}, nil
}

func (f *FakeScoring) RecentScores(ctx context.Context, id osuvsdomain.ParticipantID, mode osuvsdomain.GameMode, limit int) ([]osuvsdomain.Submission, error) {
	f.record("RecentScores")
	if f.RecentScoresFunc != nil {
		return f.RecentScoresFunc(ctx, id, mode, limit)
	}
	return nil, nil
}

var _ ScoringClient = (*FakeScoring)(nil)

// ------------------------
// Fake Attribute Source
// ------------------------

type FakeAttributes struct {
	*callTrace

	AttributesFunc  func(ctx context.Context, mapID osuvsdomain.MapID, mods osuvsdomain.Mods) (difficulty.Attributes, error)
	PerformanceFunc func(ctx context.Context, mapID osuvsdomain.MapID, sub osuvsdomain.Submission) (float64, error)
}

func NewFakeAttributes(t *callTrace) *FakeAttributes {
	return &FakeAttributes{callTrace: t}
}

func (f *FakeAttributes) Attributes(ctx context.Context, mapID osuvsdomain.MapID, mods osuvsdomain.Mods) (difficulty.Attributes, error) {
	f.record("Attributes")
	if f.AttributesFunc != nil {
		return f.AttributesFunc(ctx, mapID, mods)
	}
	return difficulty.Attributes{MapID: mapID, Mods: mods, Stars: 5, MaxPP: 300, MaxCombo: 500}, nil
}

func (f *FakeAttributes) Performance(ctx context.Context, mapID osuvsdomain.MapID, sub osuvsdomain.Submission) (float64, error) {
	f.record("Performance")
	if f.PerformanceFunc != nil {
		return f.PerformanceFunc(ctx, mapID, sub)
	}
	return 150, nil
}

var _ AttributeSource = (*FakeAttributes)(nil)

// ------------------------
// Fake Presence & Sink
// ------------------------

type FakePresence struct {
	*callTrace

	Handles []string
}

func (f *FakePresence) Snapshot() []string {
	f.record("Snapshot")
	out := make([]string, len(f.Handles))
	copy(out, f.Handles)
	return out
}

type FakeSink struct {
	*callTrace

	PostFunc func(ctx context.Context, a osuvsdomain.Announcement) error

	mu     sync.Mutex
	posted []osuvsdomain.Announcement
}

func NewFakeSink(t *callTrace) *FakeSink {
	return &FakeSink{callTrace: t}
}

func (f *FakeSink) Post(ctx context.Context, a osuvsdomain.Announcement) error {
	f.record("Post:" + string(a.Kind))
	f.mu.Lock()
	f.posted = append(f.posted, a)
	f.mu.Unlock()
	if f.PostFunc != nil {
		return f.PostFunc(ctx, a)
	}
	return nil
}

func (f *FakeSink) Posted() []osuvsdomain.Announcement {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]osuvsdomain.Announcement, len(f.posted))
	copy(out, f.posted)
	return out
}

var _ AnnouncementSink = (*FakeSink)(nil)

// ------------------------
// Harness
// ------------------------

type harness struct {
	trace      *callTrace
	repo       *FakeRepo
	scoring    *FakeScoring
	attributes *FakeAttributes
	presence   *FakePresence
	sink       *FakeSink
}

func newHarness() *harness {
	t := &callTrace{}
	return &harness{
		trace:      t,
		repo:       NewFakeRepo(t),
		scoring:    NewFakeScoring(t),
		attributes: NewFakeAttributes(t),
		presence:   &FakePresence{callTrace: t},
		sink:       NewFakeSink(t),
	}
}

func (h *harness) service(cfg Config) *OsuVSService {
	if cfg.ExcludedMods == 0 {
		cfg.ExcludedMods = osuvsdomain.DefaultExcludedMods
	}
	return NewOsuVSService(h.repo, h.scoring, h.attributes, h.presence, h.sink, cfg, discardLogger(), nil, nil, nil)
}
