package osuvsservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/5joshi/OsuBelgiumBot/app/observability"
	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	osuvsdb "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "OsuVSService"

// Config tunes the tracker.
type Config struct {
	Interval            time.Duration
	ScoreLimit          int
	Mode                osuvsdomain.GameMode
	ExcludedMods        osuvsdomain.Mods
	PollTimeout         time.Duration
	CompetitionDuration time.Duration
	LeaderboardSize     int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.ScoreLimit <= 0 {
		c.ScoreLimit = 50
	}
	if c.Mode == "" {
		c.Mode = osuvsdomain.ModeOsu
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Second
	}
	if c.CompetitionDuration <= 0 {
		c.CompetitionDuration = 7 * 24 * time.Hour
	}
	if c.LeaderboardSize <= 0 {
		c.LeaderboardSize = 10
	}
	return c
}

// OsuVSService implements the Service interface.
type OsuVSService struct {
	repo       osuvsdb.Repository
	attributes AttributeSource
	presence   Presence
	sink       AnnouncementSink
	resolver   *IDResolver
	poller     *Poller
	cfg        Config
	logger     *slog.Logger
	metrics    observability.Metrics
	tracer     trace.Tracer
	db         *bun.DB
	clock      func() time.Time
}

// NewOsuVSService creates a new OsuVSService. db may be nil, in which case the
// repository's own connection is used without a transaction.
func NewOsuVSService(
	repo osuvsdb.Repository,
	scoring ScoringClient,
	attributes AttributeSource,
	presence Presence,
	sink AnnouncementSink,
	cfg Config,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
) *OsuVSService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	cfg = cfg.withDefaults()
	return &OsuVSService{
		repo:       repo,
		attributes: attributes,
		presence:   presence,
		sink:       sink,
		resolver:   NewIDResolver(scoring, logger),
		poller:     NewPoller(scoring, cfg.Mode, cfg.ScoreLimit, cfg.PollTimeout, logger),
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		db:         db,
		clock:      time.Now,
	}
}

var _ Service = (*OsuVSService)(nil)

// operationFunc is the generic signature for service operation functions.
type operationFunc[T any] func(ctx context.Context) (T, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[T any](
	s *OsuVSService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[T],
) (result T, err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.DebugContext(ctx, "Operation triggered",
		slog.String("operation", operationName),
		slog.String("identifier", identifier),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.String("identifier", identifier),
				slog.Any("error", err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			var zero T
			result = zero
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("error", wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		span.SetStatus(codes.Error, wrappedErr.Error())
		return result, wrappedErr
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[T any](
	s *OsuVSService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (T, error),
) (T, error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result T
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}
