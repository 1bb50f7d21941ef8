package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/5joshi/OsuBelgiumBot"

// Observability bundles the logger, tracer and metrics handed to modules.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  Metrics
	Registry *prometheus.Registry
}

// New creates a per-process registry with Go runtime collectors and the tracker
// metrics. Spans go to the globally registered OpenTelemetry provider.
func New(logger *slog.Logger) Observability {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(instrumentationName),
		Metrics:  NewPrometheusMetrics(reg),
		Registry: reg,
	}
}
