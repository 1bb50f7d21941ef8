package osuvsservice

import (
	"context"
	"log/slog"
	"sync"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
)

// IDResolver memoises handle to participant id lookups across ticks.
type IDResolver struct {
	client ScoringClient
	logger *slog.Logger

	mu        sync.RWMutex
	ids       map[string]osuvsdomain.ParticipantID
	usernames map[osuvsdomain.ParticipantID]string
}

// NewIDResolver creates an empty resolver.
func NewIDResolver(client ScoringClient, logger *slog.Logger) *IDResolver {
	return &IDResolver{
		client:    client,
		logger:    logger,
		ids:       make(map[string]osuvsdomain.ParticipantID),
		usernames: make(map[osuvsdomain.ParticipantID]string),
	}
}

// Resolve maps handles to participant ids. Handles whose lookup fails are
// skipped and retried on the next call.
func (r *IDResolver) Resolve(ctx context.Context, handles []string) []osuvsdomain.ParticipantID {
	ids := make([]osuvsdomain.ParticipantID, 0, len(handles))
	seen := make(map[osuvsdomain.ParticipantID]struct{}, len(handles))

	for _, handle := range handles {
		id, ok := r.lookup(ctx, handle)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (r *IDResolver) lookup(ctx context.Context, handle string) (osuvsdomain.ParticipantID, bool) {
	r.mu.RLock()
	id, ok := r.ids[handle]
	r.mu.RUnlock()
	if ok {
		return id, true
	}

	user, err := r.client.LookupUser(ctx, handle)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to resolve handle",
			slog.String("handle", handle),
			slog.Any("error", err),
		)
		return 0, false
	}

	name := user.Username
	if name == "" {
		name = handle
	}
	r.mu.Lock()
	r.ids[handle] = user.ID
	r.usernames[user.ID] = name
	r.mu.Unlock()
	return user.ID, true
}

// Username returns the display name the scoring service reported for id.
// Presence handles are normalised, so they are only used when the service
// reports no name.
func (r *IDResolver) Username(id osuvsdomain.ParticipantID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.usernames[id]
	return name, ok
}
