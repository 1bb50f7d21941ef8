package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records tracker activity.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	RecordTick(ctx context.Context, state string, duration time.Duration)
	RecordPolled(ctx context.Context, participants, failures int)
	RecordMerge(ctx context.Context, outcome string, count int)
	RecordAnnouncement(ctx context.Context, kind string, success bool)
}

// PrometheusMetrics implements Metrics on a Prometheus registry.
type PrometheusMetrics struct {
	attempts      *prometheus.CounterVec
	successes     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	ticks         *prometheus.CounterVec
	tickDuration  prometheus.Histogram
	polled        prometheus.Counter
	pollFailures  prometheus.Counter
	merges        *prometheus.CounterVec
	announcements *prometheus.CounterVec
}

// NewPrometheusMetrics registers the tracker metrics on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "operation_attempts_total", Help: "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "operation_success_total", Help: "Service operations that succeeded.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "operation_failures_total", Help: "Service operations that failed.",
		}, []string{"operation", "service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "osuvs", Name: "operation_duration_seconds", Help: "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "ticks_total", Help: "Tracker ticks by lifecycle state.",
		}, []string{"state"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "osuvs", Name: "tick_duration_seconds", Help: "Tracker tick latency.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		polled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "polled_participants_total", Help: "Participants polled for recent scores.",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "poll_failures_total", Help: "Recent score requests that failed or timed out.",
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "merge_results_total", Help: "Highscore merge outcomes.",
		}, []string{"outcome"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osuvs", Name: "announcements_total", Help: "Announcements posted by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(
		m.attempts, m.successes, m.failures, m.duration,
		m.ticks, m.tickDuration, m.polled, m.pollFailures, m.merges, m.announcements,
	)
	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordTick(_ context.Context, state string, duration time.Duration) {
	m.ticks.WithLabelValues(state).Inc()
	m.tickDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordPolled(_ context.Context, participants, failures int) {
	m.polled.Add(float64(participants))
	m.pollFailures.Add(float64(failures))
}

func (m *PrometheusMetrics) RecordMerge(_ context.Context, outcome string, count int) {
	m.merges.WithLabelValues(outcome).Add(float64(count))
}

func (m *PrometheusMetrics) RecordAnnouncement(_ context.Context, kind string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.announcements.WithLabelValues(kind, result).Inc()
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoopMetrics) RecordTick(context.Context, string, time.Duration)                      {}
func (NoopMetrics) RecordPolled(context.Context, int, int)                                 {}
func (NoopMetrics) RecordMerge(context.Context, string, int)                               {}
func (NoopMetrics) RecordAnnouncement(context.Context, string, bool)                       {}

var (
	_ Metrics = (*PrometheusMetrics)(nil)
	_ Metrics = NoopMetrics{}
)
