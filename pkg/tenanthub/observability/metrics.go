package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Response outcomes recorded by RecordResponse.
const (
	OutcomeResponse  = "response"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

// MetricsRecorder records hub metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordHubCreated records creation of a tenant hub.
	RecordHubCreated(ctx context.Context, tenant string)

	// RecordRegistration records an extension registration attempt.
	// accepted is false for candidates rejected by the capability check.
	RecordRegistration(ctx context.Context, tenant, extension string, accepted bool)

	// RecordDispatch records an event leaving the dispatch queue.
	RecordDispatch(ctx context.Context, tenant string, delivered bool, latency time.Duration)

	// RecordResponse records how a response listener was consumed.
	RecordResponse(ctx context.Context, tenant, outcome string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	hubsCreated     metric.Int64Counter
	registrations   metric.Int64Counter
	dispatched      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	responses       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("tenanthub")

	hubsCreated, err := meter.Int64Counter("tenanthub.hubs.created",
		metric.WithDescription("Number of tenant hubs created"),
	)
	if err != nil {
		return nil, err
	}

	registrations, err := meter.Int64Counter("tenanthub.extensions.registrations",
		metric.WithDescription("Number of extension registration attempts"),
	)
	if err != nil {
		return nil, err
	}

	dispatched, err := meter.Int64Counter("tenanthub.events.dispatched",
		metric.WithDescription("Number of events processed by the dispatch queue"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("tenanthub.events.latency_ms",
		metric.WithDescription("Time from dispatch to delivery in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	responses, err := meter.Int64Counter("tenanthub.responses",
		metric.WithDescription("Number of consumed response listeners by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		hubsCreated:     hubsCreated,
		registrations:   registrations,
		dispatched:      dispatched,
		dispatchLatency: dispatchLatency,
		responses:       responses,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordHubCreated(ctx context.Context, tenant string) {
	m.hubsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("tenant", tenant)))
}

func (m *otelMetrics) RecordRegistration(ctx context.Context, tenant, extension string, accepted bool) {
	m.registrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.String("extension", extension),
		attribute.Bool("accepted", accepted),
	))
}

func (m *otelMetrics) RecordDispatch(ctx context.Context, tenant string, delivered bool, latency time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.Bool("delivered", delivered),
	)
	m.dispatched.Add(ctx, 1, attrs)
	m.dispatchLatency.Record(ctx, float64(latency.Microseconds())/1000, attrs)
}

func (m *otelMetrics) RecordResponse(ctx context.Context, tenant, outcome string) {
	m.responses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.String("outcome", outcome),
	))
}
