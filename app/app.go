package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/5joshi/OsuBelgiumBot/app/eventbus"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs"
	osuvsservice "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/application"
	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/artifacts"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/osuapi"
	"github.com/5joshi/OsuBelgiumBot/app/modules/presence"
	presencedomain "github.com/5joshi/OsuBelgiumBot/app/modules/presence/domain"
	"github.com/5joshi/OsuBelgiumBot/app/observability"
	"github.com/5joshi/OsuBelgiumBot/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"golang.org/x/sync/errgroup"
)

// App owns the process-wide connections and the modules built on them.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	Presence      *presence.Module
	OsuVS         *osuvs.Module

	metricsServer *observability.Server
	dryRun        bool
}

// Option customises NewApp.
type Option func(*App)

// WithDryRun keeps the presence feed and the tick loop but only logs
// announcements.
func WithDryRun() Option {
	return func(a *App) { a.dryRun = true }
}

// OpenDB opens a bun handle on Postgres.
func OpenDB(dsn string) *bun.DB {
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(pgdb, pgdialect.New())
}

// ModuleConfig maps the process configuration onto the tracker module.
func ModuleConfig(cfg *config.Config) (osuvs.Config, error) {
	excluded, err := cfg.ExcludedMods()
	if err != nil {
		return osuvs.Config{}, err
	}

	modCfg := osuvs.Config{
		Service: osuvsservice.Config{
			Interval:            cfg.Tracker.Interval,
			ScoreLimit:          cfg.Tracker.ScoreLimit,
			Mode:                osuvsdomain.GameMode(cfg.Tracker.Mode),
			ExcludedMods:        excluded,
			PollTimeout:         cfg.Tracker.PollTimeout,
			CompetitionDuration: cfg.Tracker.CompetitionDuration,
			LeaderboardSize:     cfg.Tracker.LeaderboardSize,
		},
		OsuAPI: osuapi.Config{
			BaseURL:           cfg.OsuAPI.BaseURL,
			ClientID:          cfg.OsuAPI.ClientID,
			ClientSecret:      cfg.OsuAPI.ClientSecret,
			RequestsPerSecond: cfg.OsuAPI.RequestsPerSecond,
			Burst:             cfg.OsuAPI.Burst,
			Timeout:           cfg.OsuAPI.Timeout,
		},
		Artifacts: artifacts.Config{
			Dir:            cfg.Artifacts.Dir,
			BaseURL:        cfg.Artifacts.BaseURL,
			RequestTimeout: cfg.Artifacts.RequestTimeout,
			Backoff: artifacts.Backoff{
				Base:        cfg.Artifacts.Backoff.Base,
				Factor:      cfg.Artifacts.Backoff.Factor,
				MaxDelay:    cfg.Artifacts.Backoff.MaxDelay,
				MaxAttempts: cfg.Artifacts.Backoff.MaxAttempts,
			},
		},
		QueueAnnouncements: cfg.Announcements.Mode == config.AnnounceQueue,
		DSN:                cfg.Postgres.DSN,
	}
	if cfg.Mirror.Enabled {
		modCfg.Mirror = &artifacts.BucketMirrorConfig{
			Endpoint:        cfg.Mirror.Endpoint,
			Region:          cfg.Mirror.Region,
			AccessKeyID:     cfg.Mirror.AccessKeyID,
			SecretAccessKey: cfg.Mirror.SecretAccessKey,
			Bucket:          cfg.Mirror.Bucket,
			Prefix:          cfg.Mirror.Prefix,
		}
	}
	return modCfg, nil
}

// NewApp connects to Postgres and NATS and builds every module.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	obs := observability.New(logger)
	app := &App{Config: cfg, Observability: obs}
	for _, opt := range opts {
		opt(app)
	}

	app.DB = OpenDB(cfg.Postgres.DSN)
	if err := app.DB.PingContext(ctx); err != nil {
		_ = app.DB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, eventbus.Config{URL: cfg.NATS.URL}, logger)
	if err != nil {
		_ = app.DB.Close()
		return nil, err
	}
	app.EventBus = bus

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer, middleware.CorrelationID)
	app.Router = router

	if app.Presence, err = presence.NewPresenceModule(ctx, obs, bus, router, cfg.Presence.Targets); err != nil {
		_ = app.Close()
		return nil, err
	}

	modCfg, err := ModuleConfig(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	var publisher message.Publisher = bus
	if app.dryRun {
		publisher = nil
		modCfg.QueueAnnouncements = false
	}
	if app.OsuVS, err = osuvs.NewOsuVSModule(ctx, obs, modCfg, app.DB, app.Presence.Registry, publisher); err != nil {
		_ = app.Close()
		return nil, err
	}

	if cfg.Observability.MetricsAddress != "" {
		handler := observability.NewRouter(obs.Registry, map[string]observability.HealthFunc{
			"database": app.DB.PingContext,
			"nats":     bus.Healthy,
		})
		app.metricsServer = observability.NewServer(cfg.Observability.MetricsAddress, handler, logger)
	}
	return app, nil
}

// NewCommandApp builds the tracker without the event bus, for one-shot CLI
// commands. Announcements are only logged and every configured target is
// treated as online.
func NewCommandApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	obs := observability.New(logger)
	app := &App{Config: cfg, Observability: obs}

	app.DB = OpenDB(cfg.Postgres.DSN)
	if err := app.DB.PingContext(ctx); err != nil {
		_ = app.DB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	modCfg, err := ModuleConfig(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	modCfg.QueueAnnouncements = false

	registry := presencedomain.NewRegistry(cfg.Presence.Targets)
	for _, handle := range cfg.Presence.Targets {
		registry.MarkOnline(handle)
	}
	if app.OsuVS, err = osuvs.NewOsuVSModule(ctx, obs, modCfg, app.DB, registry, nil); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// Run starts the message router, the modules and the metrics server, and
// blocks until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger
	g, ctx := errgroup.WithContext(ctx)

	if a.Router != nil {
		g.Go(func() error { return a.Router.Run(ctx) })
		select {
		case <-a.Router.Running():
		case <-ctx.Done():
			return g.Wait()
		}
	}

	var wg sync.WaitGroup
	if a.Presence != nil {
		wg.Add(1)
		go a.Presence.Run(ctx, &wg)
	}
	if a.OsuVS != nil {
		wg.Add(1)
		go a.OsuVS.Run(ctx, &wg)
	}
	if a.metricsServer != nil {
		g.Go(func() error { return a.metricsServer.Run(ctx) })
	}

	logger.InfoContext(ctx, "OsuVS tracker running")
	g.Go(func() error {
		wg.Wait()
		return nil
	})
	return g.Wait()
}

// Close releases every resource the App holds.
func (a *App) Close() error {
	var errs []error
	if a.OsuVS != nil {
		errs = append(errs, a.OsuVS.Close())
	}
	if a.Presence != nil {
		errs = append(errs, a.Presence.Close())
	} else if a.Router != nil {
		errs = append(errs, a.Router.Close())
	}
	if a.EventBus != nil {
		errs = append(errs, a.EventBus.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
