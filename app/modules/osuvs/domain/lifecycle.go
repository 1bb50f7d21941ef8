package osuvsdomain

import "time"

// State is the lifecycle state of the competition tracker on a given tick.
type State int

const (
	NoCompetition State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	default:
		return "no_competition"
	}
}

// Lifecycle is the result of evaluating a tick against the active competition.
type Lifecycle struct {
	State       State
	Competition *Competition
	// JustStarted is set on the tick that lands within one interval after the start.
	JustStarted bool
	// AboutToEnd is set on the tick that lands within one interval before the end.
	AboutToEnd bool
}

// EvaluateLifecycle derives the lifecycle signals purely from the clock. Nothing is
// persisted, so a tick missed by downtime skips its announcement.
func EvaluateLifecycle(comp *Competition, now time.Time, interval time.Duration) Lifecycle {
	if comp == nil || !comp.Contains(now) {
		return Lifecycle{State: NoCompetition}
	}
	return Lifecycle{
		State:       Active,
		Competition: comp,
		JustStarted: now.Sub(comp.StartDate) < interval,
		AboutToEnd:  comp.EndDate.Sub(now) < interval,
	}
}
