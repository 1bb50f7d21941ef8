package osuvsservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"golang.org/x/sync/errgroup"
)

// Poller fetches recent submissions for many participants concurrently.
type Poller struct {
	client  ScoringClient
	mode    osuvsdomain.GameMode
	limit   int
	timeout time.Duration
	logger  *slog.Logger
}

// NewPoller creates a Poller. Each request is bounded by timeout.
func NewPoller(client ScoringClient, mode osuvsdomain.GameMode, limit int, timeout time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		client:  client,
		mode:    mode,
		limit:   limit,
		timeout: timeout,
		logger:  logger,
	}
}

// PollResult holds the submissions of every participant whose request succeeded.
type PollResult struct {
	Submissions map[osuvsdomain.ParticipantID][]osuvsdomain.Submission
	Failed      []osuvsdomain.ParticipantID
}

// Poll requests recent submissions for all ids in parallel. A failed or timed
// out request drops that participant for this call.
func (p *Poller) Poll(ctx context.Context, ids []osuvsdomain.ParticipantID) PollResult {
	result := PollResult{
		Submissions: make(map[osuvsdomain.ParticipantID][]osuvsdomain.Submission, len(ids)),
	}
	if len(ids) == 0 {
		return result
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(len(ids))

	for _, id := range ids {
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()

			subs, err := p.client.RecentScores(reqCtx, id, p.mode, p.limit)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.WarnContext(ctx, "Failed to fetch recent scores",
					slog.Uint64("user_id", uint64(id)),
					slog.Any("error", err),
				)
				result.Failed = append(result.Failed, id)
				return nil
			}
			result.Submissions[id] = subs
			return nil
		})
	}
	_ = g.Wait()
	return result
}
