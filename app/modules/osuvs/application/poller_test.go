package osuvsservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoller_DropsFailuresAndTimeouts(t *testing.T) {
	scoring := NewFakeScoring(&callTrace{})
	scoring.RecentScoresFunc = func(ctx context.Context, id osuvsdomain.ParticipantID, mode osuvsdomain.GameMode, limit int) ([]osuvsdomain.Submission, error) {
		assert.Equal(t, osuvsdomain.ModeOsu, mode)
		assert.Equal(t, 50, limit)
		switch id {
		case 2:
			return nil, errors.New("503 service unavailable")
		case 3:
			<-ctx.Done()
			return nil, ctx.Err()
		default:
			return []osuvsdomain.Submission{{ParticipantID: id, RawScore: 1}}, nil
		}
	}

	p := NewPoller(scoring, osuvsdomain.ModeOsu, 50, 20*time.Millisecond, discardLogger())
	result := p.Poll(context.Background(), []osuvsdomain.ParticipantID{1, 2, 3, 4})

	assert.Len(t, result.Submissions, 2)
	assert.Contains(t, result.Submissions, osuvsdomain.ParticipantID(1))
	assert.Contains(t, result.Submissions, osuvsdomain.ParticipantID(4))
	assert.ElementsMatch(t, []osuvsdomain.ParticipantID{2, 3}, result.Failed)
}

func TestPoller_RequestsRunConcurrently(t *testing.T) {
	const n = 8
	var arrived sync.WaitGroup
	arrived.Add(n)

	scoring := NewFakeScoring(&callTrace{})
	scoring.RecentScoresFunc = func(ctx context.Context, id osuvsdomain.ParticipantID, mode osuvsdomain.GameMode, limit int) ([]osuvsdomain.Submission, error) {
		arrived.Done()
		done := make(chan struct{})
		go func() {
			arrived.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ids := make([]osuvsdomain.ParticipantID, n)
	for i := range ids {
		ids[i] = osuvsdomain.ParticipantID(i + 1)
	}

	p := NewPoller(scoring, osuvsdomain.ModeOsu, 50, 2*time.Second, discardLogger())
	result := p.Poll(context.Background(), ids)

	require.Empty(t, result.Failed, "every request should observe all others in flight")
	assert.Len(t, result.Submissions, n)
}

func TestPoller_Empty(t *testing.T) {
	trace := &callTrace{}
	p := NewPoller(NewFakeScoring(trace), osuvsdomain.ModeOsu, 50, time.Second, discardLogger())
	result := p.Poll(context.Background(), nil)
	assert.Empty(t, result.Submissions)
	assert.Empty(t, trace.Trace())
}
