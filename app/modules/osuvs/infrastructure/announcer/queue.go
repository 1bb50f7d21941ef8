package announcer

import (
	"context"
	"fmt"
	"log/slog"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

// QueueName is the River queue announcements are delivered from.
const QueueName = "announcements"

// Sink delivers an announcement.
type Sink interface {
	Post(ctx context.Context, a osuvsdomain.Announcement) error
}

// AnnouncementJob carries one announcement through River.
type AnnouncementJob struct {
	Announcement osuvsdomain.Announcement `json:"announcement"`
}

// Kind returns the job type identifier for River.
func (AnnouncementJob) Kind() string { return "osuvs_announcement" }

// JobInserter is the part of the River client the queue uses.
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Queue posts announcements by enqueuing a River job. A failed delivery is not
// retried, the job is discarded after one attempt.
type Queue struct {
	inserter JobInserter
	logger   *slog.Logger
}

// NewQueue creates a Queue on top of inserter.
func NewQueue(inserter JobInserter, logger *slog.Logger) *Queue {
	return &Queue{inserter: inserter, logger: logger}
}

// Post enqueues the announcement.
func (q *Queue) Post(ctx context.Context, a osuvsdomain.Announcement) error {
	res, err := q.inserter.Insert(ctx, AnnouncementJob{Announcement: a}, &river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue announcement: %w", err)
	}
	q.logger.InfoContext(ctx, "Announcement enqueued",
		slog.String("kind", string(a.Kind)),
		slog.Int64("job_id", res.Job.ID),
	)
	return nil
}

// AnnouncementWorker delivers queued announcements to a Sink.
type AnnouncementWorker struct {
	river.WorkerDefaults[AnnouncementJob]
	sink   Sink
	logger *slog.Logger
}

// NewAnnouncementWorker creates the worker.
func NewAnnouncementWorker(sink Sink, logger *slog.Logger) *AnnouncementWorker {
	return &AnnouncementWorker{sink: sink, logger: logger}
}

// Work delivers the announcement.
func (w *AnnouncementWorker) Work(ctx context.Context, job *river.Job[AnnouncementJob]) error {
	if err := w.sink.Post(ctx, job.Args.Announcement); err != nil {
		w.logger.ErrorContext(ctx, "Failed to deliver announcement",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// QueueService owns the River client and its connection pool.
type QueueService struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewQueueService connects to Postgres and builds a River client whose worker
// hands announcements to sink.
func NewQueueService(ctx context.Context, dsn string, sink Sink, logger *slog.Logger) (*QueueService, error) {
	logger = logger.With(slog.String("component", "river_queue"))

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewAnnouncementWorker(sink, logger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: 4},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	logger.Info("Announcement queue initialized")
	return &QueueService{client: client, pool: pool, logger: logger}, nil
}

// Client returns the River client, which also satisfies JobInserter.
func (s *QueueService) Client() *river.Client[pgx.Tx] {
	return s.client
}

// Start starts working the queue.
func (s *QueueService) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Announcement queue started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *QueueService) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Announcement queue stopped")
	return nil
}
