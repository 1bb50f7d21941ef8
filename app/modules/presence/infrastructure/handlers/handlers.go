package presencehandlers

import (
	"context"
	"log/slog"

	presencedomain "github.com/5joshi/OsuBelgiumBot/app/modules/presence/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PresenceHandlers implements the Handlers interface.
type PresenceHandlers struct {
	tracker Tracker
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewPresenceHandlers creates a new PresenceHandlers instance.
func NewPresenceHandlers(tracker Tracker, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &PresenceHandlers{
		tracker: tracker,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandlePresenceJoined marks the handle online.
func (h *PresenceHandlers) HandlePresenceJoined(ctx context.Context, payload *presencedomain.PresencePayloadV1) error {
	ctx, span := h.tracer.Start(ctx, "PresenceHandlers.HandlePresenceJoined",
		trace.WithAttributes(attribute.String("handle", payload.Handle)))
	defer span.End()

	if h.tracker.MarkOnline(payload.Handle) {
		h.logger.DebugContext(ctx, "Participant joined", slog.String("handle", payload.Handle))
	}
	return nil
}

// HandlePresenceLeft marks the handle offline.
func (h *PresenceHandlers) HandlePresenceLeft(ctx context.Context, payload *presencedomain.PresencePayloadV1) error {
	ctx, span := h.tracer.Start(ctx, "PresenceHandlers.HandlePresenceLeft",
		trace.WithAttributes(attribute.String("handle", payload.Handle)))
	defer span.End()

	if h.tracker.MarkOffline(payload.Handle) {
		h.logger.DebugContext(ctx, "Participant left", slog.String("handle", payload.Handle))
	}
	return nil
}

// HandlePresenceTracked adds the handle to the tracked targets.
func (h *PresenceHandlers) HandlePresenceTracked(ctx context.Context, payload *presencedomain.PresencePayloadV1) error {
	ctx, span := h.tracer.Start(ctx, "PresenceHandlers.HandlePresenceTracked",
		trace.WithAttributes(attribute.String("handle", payload.Handle)))
	defer span.End()

	if h.tracker.Track(payload.Handle) {
		h.logger.InfoContext(ctx, "Participant tracked", slog.String("handle", payload.Handle))
	}
	return nil
}

// HandlePresenceUntracked removes the handle from the tracked targets.
func (h *PresenceHandlers) HandlePresenceUntracked(ctx context.Context, payload *presencedomain.PresencePayloadV1) error {
	ctx, span := h.tracer.Start(ctx, "PresenceHandlers.HandlePresenceUntracked",
		trace.WithAttributes(attribute.String("handle", payload.Handle)))
	defer span.End()

	if h.tracker.Untrack(payload.Handle) {
		h.logger.InfoContext(ctx, "Participant untracked", slog.String("handle", payload.Handle))
	}
	return nil
}
