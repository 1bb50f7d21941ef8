package osuvsservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

// MergeResult lists what happened to each candidate participant.
type MergeResult struct {
	Inserted  []osuvsdomain.ParticipantID
	Improved  []osuvsdomain.ParticipantID
	Unchanged []osuvsdomain.ParticipantID
	Failed    []osuvsdomain.ParticipantID
}

// Written is the number of highscores stored by the merge.
func (r MergeResult) Written() int {
	return len(r.Inserted) + len(r.Improved)
}

// mergeHighscores stores each participant's best candidate when it beats the stored
// highscore. Performance is attached before anything is written, so an unavailable
// map artifact aborts the whole merge.
func (s *OsuVSService) mergeHighscores(
	ctx context.Context,
	comp osuvsdomain.Competition,
	candidates map[osuvsdomain.ParticipantID]map[osuvsdomain.Mods]osuvsdomain.Submission,
) (MergeResult, error) {
	var result MergeResult
	if len(candidates) == 0 {
		return result, nil
	}

	stored, err := s.repo.GetHighscores(ctx, nil, comp.MapID)
	if err != nil {
		return result, fmt.Errorf("failed to load highscores: %w", err)
	}

	ids := make([]osuvsdomain.ParticipantID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	type write struct {
		id     osuvsdomain.ParticipantID
		sub    osuvsdomain.Submission
		stored bool
	}
	var writes []write

	for _, id := range ids {
		best, ok := osuvsdomain.BestOverall(candidates[id])
		if !ok {
			continue
		}
		var current *osuvsdomain.Submission
		if prev, found := stored[id]; found {
			current = &prev
		}
		if !osuvsdomain.Improves(best, current) {
			result.Unchanged = append(result.Unchanged, id)
			continue
		}

		pp, err := s.attributes.Performance(ctx, comp.MapID, best)
		if err != nil {
			return MergeResult{}, fmt.Errorf("failed to compute performance: %w", err)
		}
		best.ParticipantID = id
		best.Performance = &pp
		writes = append(writes, write{id: id, sub: best, stored: current != nil})
	}

	for _, w := range writes {
		written, err := s.repo.UpsertHighscore(ctx, nil, comp.MapID, w.id, w.sub)
		switch {
		case err != nil:
			s.logger.ErrorContext(ctx, "Failed to store highscore",
				slog.Uint64("user_id", uint64(w.id)),
				slog.Any("error", err),
			)
			result.Failed = append(result.Failed, w.id)
		case !written:
			result.Unchanged = append(result.Unchanged, w.id)
		case w.stored:
			result.Improved = append(result.Improved, w.id)
		default:
			result.Inserted = append(result.Inserted, w.id)
		}
	}
	return result, nil
}
