package osuvsservice

import "errors"

var (
	// ErrNoActiveCompetition is returned when no competition is running.
	ErrNoActiveCompetition = errors.New("no competition is running")
	// ErrCompetitionExists is returned when the same window is scheduled twice.
	ErrCompetitionExists = errors.New("competition already scheduled")
	// ErrInvalidDuration is returned for non-positive competition lengths.
	ErrInvalidDuration = errors.New("competition duration must be positive")
	// ErrInvalidStartTime is returned when a start time cannot be parsed.
	ErrInvalidStartTime = errors.New("invalid start time")
)
