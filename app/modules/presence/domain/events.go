package presencedomain

// Presence feed topics.
const (
	PresenceJoinedV1 = "presence.joined.v1"
	PresenceLeftV1   = "presence.left.v1"
)

// Target management topics. Their payload is a PresencePayloadV1.
const (
	PresenceTrackedV1   = "presence.tracked.v1"
	PresenceUntrackedV1 = "presence.untracked.v1"
)

// PresencePayloadV1 is the body of a join or quit event.
type PresencePayloadV1 struct {
	Handle string `json:"handle"`
}
