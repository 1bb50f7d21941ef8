package announcer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher posts announcements as messages on the event bus.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

// NewPublisher creates a Publisher writing to osuvsdomain.AnnouncementTopicV1.
func NewPublisher(publisher message.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{
		publisher: publisher,
		topic:     osuvsdomain.AnnouncementTopicV1,
		logger:    logger,
	}
}

// Post publishes the announcement.
func (p *Publisher) Post(ctx context.Context, a osuvsdomain.Announcement) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal announcement: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(a.Kind))
	msg.Metadata.Set("map_id", a.MapID.String())
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish announcement: %w", err)
	}

	p.logger.InfoContext(ctx, "Announcement published",
		slog.String("kind", string(a.Kind)),
		slog.Uint64("map_id", uint64(a.MapID)),
		slog.String("message_id", msg.UUID),
	)
	return nil
}
