package presencehandlers

import (
	"context"

	presencedomain "github.com/5joshi/OsuBelgiumBot/app/modules/presence/domain"
)

// Handlers handles presence feed events.
type Handlers interface {
	HandlePresenceJoined(ctx context.Context, payload *presencedomain.PresencePayloadV1) error
	HandlePresenceLeft(ctx context.Context, payload *presencedomain.PresencePayloadV1) error
	HandlePresenceTracked(ctx context.Context, payload *presencedomain.PresencePayloadV1) error
	HandlePresenceUntracked(ctx context.Context, payload *presencedomain.PresencePayloadV1) error
}

// Tracker is the part of the registry the handlers write to.
type Tracker interface {
	MarkOnline(handle string) bool
	MarkOffline(handle string) bool
	Track(handle string) bool
	Untrack(handle string) bool
}
