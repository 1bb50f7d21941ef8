package osuvsdomain

// AnnouncementTopicV1 carries announcements to the chat front-end.
const AnnouncementTopicV1 = "osuvs.announcement.v1"

// AnnouncementKind names the lifecycle event being announced.
type AnnouncementKind string

const (
	AnnouncementStarted AnnouncementKind = "competition_started"
	AnnouncementEnding  AnnouncementKind = "competition_ending"
)

// EmbedField is one name/value row of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a structured rich message body.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
}

// Announcement is a message posted to the announcement sink.
type Announcement struct {
	Kind  AnnouncementKind `json:"kind"`
	MapID MapID            `json:"map_id"`
	Text  string           `json:"text"`
	Embed *Embed           `json:"embed,omitempty"`
}
