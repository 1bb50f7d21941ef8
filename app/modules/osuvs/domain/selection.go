package osuvsdomain

import "sort"

// DefaultExcludedMods holds the modifiers whose scoring formula cannot be ranked
// against classic raw score.
const DefaultExcludedMods = ModScoreV2

// Eligible reports whether a submission counts for the competition.
func Eligible(sub Submission, comp Competition, excluded Mods) bool {
	if sub.MapID != comp.MapID {
		return false
	}
	if sub.Grade == GradeF {
		return false
	}
	if sub.CreatedAt.Before(comp.StartDate) {
		return false
	}
	return !sub.Mods.Contains(excluded)
}

// SelectBest returns the highest raw score per mods combination among the eligible
// submissions. Submissions are visited by created_at ascending, raw score descending,
// and a later submission only replaces the current group winner with a strictly higher score.
func SelectBest(subs []Submission, comp Competition, excluded Mods) map[Mods]Submission {
	eligible := make([]Submission, 0, len(subs))
	for _, sub := range subs {
		if Eligible(sub, comp, excluded) {
			eligible = append(eligible, sub)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
		}
		return eligible[i].RawScore > eligible[j].RawScore
	})

	best := make(map[Mods]Submission)
	for _, sub := range eligible {
		current, ok := best[sub.Mods]
		if !ok || sub.RawScore > current.RawScore {
			best[sub.Mods] = sub
		}
	}
	return best
}

// SelectCandidates applies SelectBest to every participant. Participants without an
// eligible submission are left out.
func SelectCandidates(byParticipant map[ParticipantID][]Submission, comp Competition, excluded Mods) map[ParticipantID]map[Mods]Submission {
	candidates := make(map[ParticipantID]map[Mods]Submission, len(byParticipant))
	for id, subs := range byParticipant {
		best := SelectBest(subs, comp, excluded)
		if len(best) == 0 {
			continue
		}
		candidates[id] = best
	}
	return candidates
}

// BestOverall picks the single best submission out of the per-mods winners:
// highest raw score, then earliest created_at, then lowest mods value.
func BestOverall(groups map[Mods]Submission) (Submission, bool) {
	var (
		best  Submission
		found bool
	)
	for _, sub := range groups {
		if !found || better(sub, best) {
			best = sub
			found = true
		}
	}
	return best, found
}

func better(a, b Submission) bool {
	if a.RawScore != b.RawScore {
		return a.RawScore > b.RawScore
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Mods < b.Mods
}

// Improves reports whether candidate should replace stored as the participant's highscore.
// A nil stored entry is always improved upon.
func Improves(candidate Submission, stored *Submission) bool {
	if stored == nil {
		return true
	}
	return candidate.RawScore > stored.RawScore
}

// RankHighscores orders highscores for display: raw score descending, earlier
// created_at first on ties, then participant id.
func RankHighscores(scores map[ParticipantID]Submission) []Submission {
	ranked := make([]Submission, 0, len(scores))
	for id, sub := range scores {
		sub.ParticipantID = id
		ranked = append(ranked, sub)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.RawScore != b.RawScore {
			return a.RawScore > b.RawScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ParticipantID < b.ParticipantID
	})
	return ranked
}
