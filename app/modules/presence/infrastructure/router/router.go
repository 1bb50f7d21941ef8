package presencerouter

import (
	"context"
	"encoding/json"
	"log/slog"

	presencedomain "github.com/5joshi/OsuBelgiumBot/app/modules/presence/domain"
	presencehandlers "github.com/5joshi/OsuBelgiumBot/app/modules/presence/infrastructure/handlers"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// PresenceRouter handles Watermill handler registration for presence events.
type PresenceRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	tracer     trace.Tracer
}

// NewPresenceRouter creates a new PresenceRouter.
func NewPresenceRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	tracer trace.Tracer,
) *PresenceRouter {
	return &PresenceRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *PresenceRouter) Configure(_ context.Context, handlers presencehandlers.Handlers) error {
	r.logger.Info("Registering presence module handlers",
		slog.String("joined_subject", presencedomain.PresenceJoinedV1),
		slog.String("left_subject", presencedomain.PresenceLeftV1),
		slog.String("tracked_subject", presencedomain.PresenceTrackedV1),
		slog.String("untracked_subject", presencedomain.PresenceUntrackedV1),
	)

	registerHandler(r, presencedomain.PresenceJoinedV1, handlers.HandlePresenceJoined)
	registerHandler(r, presencedomain.PresenceLeftV1, handlers.HandlePresenceLeft)
	registerHandler(r, presencedomain.PresenceTrackedV1, handlers.HandlePresenceTracked)
	registerHandler(r, presencedomain.PresenceUntrackedV1, handlers.HandlePresenceUntracked)

	r.logger.Info("Presence module handlers registered successfully")
	return nil
}

// registerHandler decodes the JSON payload into T before calling handler.
// Payloads that cannot be decoded are logged and acked.
func registerHandler[T any](
	r *PresenceRouter,
	topic string,
	handler func(context.Context, *T) error,
) {
	handlerName := "presence." + topic

	r.router.AddNoPublisherHandler(
		handlerName,
		topic,
		r.subscriber,
		func(msg *message.Message) error {
			payload := new(T)
			if err := json.Unmarshal(msg.Payload, payload); err != nil {
				r.logger.WarnContext(msg.Context(), "Dropping malformed presence event",
					slog.String("handler", handlerName),
					slog.String("message_id", msg.UUID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			return handler(msg.Context(), payload)
		},
	)
}

// Close shuts down the router.
func (r *PresenceRouter) Close() error {
	return r.router.Close()
}
