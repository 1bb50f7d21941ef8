package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/5joshi/OsuBelgiumBot/app/observability"
	presencedomain "github.com/5joshi/OsuBelgiumBot/app/modules/presence/domain"
	presencehandlers "github.com/5joshi/OsuBelgiumBot/app/modules/presence/infrastructure/handlers"
	presencerouter "github.com/5joshi/OsuBelgiumBot/app/modules/presence/infrastructure/router"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Module represents the presence module.
type Module struct {
	Registry      *presencedomain.Registry
	Router        *presencerouter.PresenceRouter
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewPresenceModule creates the registry and subscribes it to the presence feed.
func NewPresenceModule(
	ctx context.Context,
	obs observability.Observability,
	subscriber message.Subscriber,
	router *message.Router,
	targets []string,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "presence.NewPresenceModule initializing")

	registry := presencedomain.NewRegistry(targets)
	handlers := presencehandlers.NewPresenceHandlers(registry, logger, obs.Tracer)
	presenceRouter := presencerouter.NewPresenceRouter(logger, router, subscriber, obs.Tracer)

	if err := presenceRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure presence router: %w", err)
	}

	return &Module{
		Registry:      registry,
		Router:        presenceRouter,
		observability: obs,
	}, nil
}

// Run blocks until ctx is cancelled. Messages are consumed by the shared router.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting presence module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Presence module goroutine stopped")
}

// Close shuts down the presence module.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping presence module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.Router != nil {
		if err := m.Router.Close(); err != nil {
			logger.Error("Error closing PresenceRouter from module", "error", err)
			return fmt.Errorf("error closing PresenceRouter: %w", err)
		}
	}

	logger.Info("Presence module stopped")
	return nil
}
