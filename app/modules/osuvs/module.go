package osuvs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/5joshi/OsuBelgiumBot/app/observability"
	osuvsservice "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/application"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/announcer"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/artifacts"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/difficulty"
	"github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/osuapi"
	osuvsdb "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Config wires the module's adapters.
type Config struct {
	Service   osuvsservice.Config
	OsuAPI    osuapi.Config
	Artifacts artifacts.Config
	// Mirror is optional.
	Mirror *artifacts.BucketMirrorConfig
	// QueueAnnouncements routes announcements through River before publishing.
	QueueAnnouncements bool
	// DSN is used by the River queue.
	DSN string
}

// Module represents the competition tracker module.
type Module struct {
	Service       osuvsservice.Service
	queue         *announcer.QueueService
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewOsuVSModule creates and initializes the tracker. With a nil publisher
// announcements are only logged.
func NewOsuVSModule(
	ctx context.Context,
	obs observability.Observability,
	cfg Config,
	db *bun.DB,
	presence osuvsservice.Presence,
	publisher message.Publisher,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "osuvs.NewOsuVSModule initializing")

	// 1. Repository
	repo := osuvsdb.NewRepository(db)

	// 2. Scoring service client
	scoring := osuapi.NewClient(ctx, cfg.OsuAPI, logger)

	// 3. Artifact cache and difficulty attributes
	var opts []artifacts.Option
	if cfg.Mirror != nil {
		mirror, err := artifacts.NewBucketMirror(ctx, *cfg.Mirror)
		if err != nil {
			return nil, fmt.Errorf("failed to create artifact mirror: %w", err)
		}
		opts = append(opts, artifacts.WithMirror(mirror))
	}
	cache := artifacts.NewCache(cfg.Artifacts, logger, opts...)
	attributes := difficulty.NewAttributeCache(cache, logger)

	// 4. Announcement sink
	var sink announcer.Sink = announcer.NewLogSink(logger)
	if publisher != nil {
		sink = announcer.NewPublisher(publisher, logger)
	}
	var queue *announcer.QueueService
	if cfg.QueueAnnouncements {
		var err error
		queue, err = announcer.NewQueueService(ctx, cfg.DSN, sink, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create announcement queue: %w", err)
		}
		sink = announcer.NewQueue(queue.Client(), logger)
	}

	// 5. Service
	service := osuvsservice.NewOsuVSService(
		repo, scoring, attributes, presence, sink,
		cfg.Service, logger, obs.Metrics, obs.Tracer, db,
	)

	return &Module{
		Service:       service,
		queue:         queue,
		observability: obs,
	}, nil
}

// Run starts the announcement queue, if any, and the tick loop.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting osuvs module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.queue != nil {
		if err := m.queue.Start(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to start announcement queue", "error", err)
			return
		}
	}

	if err := m.Service.Run(ctx); err != nil {
		logger.ErrorContext(ctx, "Competition tracker exited", "error", err)
	}
	logger.InfoContext(ctx, "OsuVS module goroutine stopped")
}

// Close shuts down the osuvs module.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping osuvs module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.queue.Stop(ctx); err != nil {
			logger.Error("Error stopping announcement queue", "error", err)
			return fmt.Errorf("error stopping announcement queue: %w", err)
		}
	}

	logger.Info("OsuVS module stopped")
	return nil
}
