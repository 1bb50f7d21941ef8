package osuvsdb

import "errors"

var (
	// ErrNoActiveCompetition is returned when no competition window contains the given instant.
	ErrNoActiveCompetition = errors.New("no active competition")
	// ErrNotFound is returned when a lookup matches no rows.
	ErrNotFound = errors.New("not found")
)
