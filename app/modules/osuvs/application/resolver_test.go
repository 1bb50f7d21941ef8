package osuvsservice

import (
	"context"
	"errors"
	"testing"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/stretchr/testify/assert"
)

func TestIDResolver(t *testing.T) {
	trace := &callTrace{}
	scoring := NewFakeScoring(trace)
	fail := true
	scoring.LookupUserFunc = func(ctx context.Context, handle string) (osuvsdomain.Participant, error) {
		switch handle {
		case "alice", "alice_alt":
			return osuvsdomain.Participant{ID: 1, Username: "Alice"}, nil
		case "flaky":
			if fail {
				return osuvsdomain.Participant{}, errors.New("timeout")
			}
			return osuvsdomain.Participant{ID: 3}, nil
		}
		return osuvsdomain.Participant{}, errors.New("not found")
	}

	r := NewIDResolver(scoring, discardLogger())

	ids := r.Resolve(context.Background(), []string{"alice", "flaky", "alice_alt"})
	assert.Equal(t, []osuvsdomain.ParticipantID{1}, ids, "duplicate ids collapse and failures are skipped")

	fail = false
	ids = r.Resolve(context.Background(), []string{"alice", "flaky"})
	assert.Equal(t, []osuvsdomain.ParticipantID{1, 3}, ids)

	assert.Equal(t, 4, trace.Count("LookupUser"), "alice is looked up once, flaky twice, alice_alt once")

	name, ok := r.Username(1)
	assert.True(t, ok)
	assert.Equal(t, "Alice", name, "display name comes from the scoring service")
	name, ok = r.Username(3)
	assert.True(t, ok)
	assert.Equal(t, "flaky", name, "handle is the fallback when no name is reported")
	_, ok = r.Username(99)
	assert.False(t, ok)
}
