package osuvs_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/5joshi/OsuBelgiumBot/app/eventbus"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs"
	osuvsservice "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/application"
	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/artifacts"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/osuapi"
	osuvsdb "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories"
	presencedomain "github.com/5joshi/OsuBelgiumBot/app/modules/presence/domain"
	"github.com/5joshi/OsuBelgiumBot/app/observability"
	"github.com/5joshi/OsuBelgiumBot/integration_tests/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackedMap osuvsdomain.MapID = 2116202

// beatmapFile is a short playable map: a run of circles, a slider and a spinner.
func beatmapFile() string {
	var b strings.Builder
	b.WriteString("osu file format v14\n\n[General]\nMode: 0\n\n[Metadata]\nTitle:Integration\nArtist:Tester\nVersion:Hard\n")
	fmt.Fprintf(&b, "BeatmapID:%d\n\n", trackedMap)
	b.WriteString("[Difficulty]\nHPDrainRate:5\nCircleSize:4\nOverallDifficulty:8\nApproachRate:9\nSliderMultiplier:1.4\nSliderTickRate:1\n\n")
	b.WriteString("[TimingPoints]\n0,300,4,2,0,50,1,0\n\n[HitObjects]\n")
	t := 1000
	for i := 0; i < 200; i++ {
		x := 256
		if i%2 == 1 {
			x += 120
		}
		fmt.Fprintf(&b, "%d,192,%d,1,0,0:0:0:0:\n", x, t)
		t += 150
	}
	fmt.Fprintf(&b, "100,100,%d,2,0,B|200:100,2,100\n", t)
	t += 1000
	fmt.Fprintf(&b, "256,192,%d,12,0,%d,0:0:0:0:\n", t, t+2000)
	return b.String()
}

// fakeOsu serves the scoring API and the beatmap downloads.
func fakeOsu(t *testing.T, users map[string]uint32, scores map[uint32]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":86400}`)
	})
	mux.HandleFunc("/api/v2/users/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v2/users/"), "/")
		switch {
		case len(parts) == 2 && parts[1] == "osu":
			id, ok := users[parts[0]]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"id": %d, "username": %q}`, id, parts[0])
		case len(parts) == 3 && parts[1] == "scores":
			var id uint32
			_, _ = fmt.Sscanf(parts[0], "%d", &id)
			body, ok := scores[id]
			if !ok {
				body = "[]"
			}
			_, _ = io.WriteString(w, body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc(fmt.Sprintf("/osu/%d", trackedMap), func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, beatmapFile())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func recentScore(id, user uint32, score uint64, mods []string, at time.Time) map[string]any {
	return map[string]any{
		"id": id, "user_id": user, "mods": mods, "score": score, "max_combo": 400,
		"accuracy": 0.965, "rank": "S", "passed": true, "created_at": at.Format(time.RFC3339),
		"statistics": map[string]any{"count_300": 190, "count_100": 10, "count_50": 0, "count_miss": 0},
		"beatmap":    map[string]any{"id": trackedMap},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestTracker_EndToEnd(t *testing.T) {
	env := testutils.SetupTestEnv(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	require.NoError(t, env.CleanupDatabase(ctx))

	now := time.Now().UTC()
	start := now.Add(-time.Minute).Truncate(time.Second)
	played := now.Add(-30 * time.Second)

	srv := fakeOsu(t,
		map[string]uint32{"alice": 7, "bob": 8},
		map[uint32]string{
			7: mustJSON(t, []any{
				recentScore(1, 7, 700_000, []string{"HD"}, played),
				recentScore(2, 7, 900_000, []string{"HD", "V2"}, played),
			}),
			8: mustJSON(t, []any{
				recentScore(3, 8, 400_000, []string{}, played),
				recentScore(4, 8, 300_000, []string{}, start.Add(-time.Hour)),
			}),
		},
	)

	bus, err := eventbus.NewEventBus(ctx, eventbus.Config{URL: env.NATSURL}, env.Logger)
	require.NoError(t, err)
	defer bus.Close()

	announcements, err := bus.Subscribe(ctx, osuvsdomain.AnnouncementTopicV1)
	require.NoError(t, err)

	registry := presencedomain.NewRegistry(nil)
	registry.MarkOnline("Alice")
	registry.MarkOnline("bob")

	obs := observability.New(env.Logger)
	module, err := osuvs.NewOsuVSModule(ctx, obs, osuvs.Config{
		Service: osuvsservice.Config{
			Interval:     5 * time.Minute,
			ExcludedMods: osuvsdomain.DefaultExcludedMods,
		},
		OsuAPI: osuapi.Config{
			BaseURL:      srv.URL,
			ClientID:     "id",
			ClientSecret: "secret",
			Burst:        10,
		},
		Artifacts: artifacts.Config{
			Dir:     t.TempDir(),
			BaseURL: srv.URL,
		},
		DSN: env.DSN,
	}, env.DB, registry, bus)
	require.NoError(t, err)

	_, err = module.Service.StartCompetition(ctx, osuvsservice.StartCompetitionRequest{
		MapID:    trackedMap,
		Start:    &start,
		Duration: 24 * time.Hour,
	})
	require.NoError(t, err)

	_, err = module.Service.StartCompetition(ctx, osuvsservice.StartCompetitionRequest{
		MapID:    trackedMap,
		Start:    &start,
		Duration: 24 * time.Hour,
	})
	assert.ErrorIs(t, err, osuvsservice.ErrCompetitionExists)

	report, err := module.Service.Tick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, osuvsdomain.Active, report.State)
	assert.Equal(t, 2, report.Polled)
	assert.False(t, report.MergeSkipped)
	assert.Len(t, report.Merge.Inserted, 2)

	scores, err := osuvsdb.NewRepository(env.DB).GetHighscores(ctx, nil, trackedMap)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, uint64(700_000), scores[7].RawScore, "score v2 plays are excluded")
	assert.Equal(t, uint64(400_000), scores[8].RawScore, "plays before the start are ignored")
	require.NotNil(t, scores[7].Performance)
	assert.Greater(t, *scores[7].Performance, 0.0)

	select {
	case msg := <-announcements:
		msg.Ack()
		var got osuvsdomain.Announcement
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, osuvsdomain.AnnouncementStarted, got.Kind)
		assert.Equal(t, trackedMap, got.MapID)
	case <-ctx.Done():
		t.Fatal("no start announcement received")
	}

	// A second pass with nothing new writes nothing.
	report, err = module.Service.Tick(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Merge.Written())
	assert.Len(t, report.Merge.Unchanged, 2)

	board, err := module.Service.Leaderboard(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "alice", board.Entries[0].Handle)
	assert.Equal(t, 1, board.Entries[0].Rank)

	require.NoError(t, module.Close())
}
