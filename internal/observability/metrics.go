// Package observability exposes generation and HTTP metrics to Prometheus.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"neogen/internal/domain"
)

// Metrics covers latency, traffic and errors for HTTP requests, generate
// calls and remote status queries. A nil *Metrics records nothing.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter

	GenerationDuration metric.Float64Histogram
	GenerationsTotal   metric.Int64Counter
	GenerationsActive  metric.Int64UpDownCounter

	PollsTotal      metric.Int64Counter
	PollErrorsTotal metric.Int64Counter
}

// NewMetrics registers all instruments on a private Prometheus registry and
// returns the handler serving it.
func NewMetrics() (*Metrics, http.Handler, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("neogen")
	m := &Metrics{provider: provider}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120),
	); err != nil {
		return nil, nil, err
	}
	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, nil, err
	}
	if m.GenerationDuration, err = meter.Float64Histogram(
		"generation_duration_seconds",
		metric.WithDescription("Time from submission to outcome of a generate call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 20, 30, 45, 60, 90, 120),
	); err != nil {
		return nil, nil, err
	}
	if m.GenerationsTotal, err = meter.Int64Counter(
		"generations_total",
		metric.WithDescription("Generate calls by outcome code"),
	); err != nil {
		return nil, nil, err
	}
	if m.GenerationsActive, err = meter.Int64UpDownCounter(
		"generations_active",
		metric.WithDescription("Generate calls currently in flight"),
	); err != nil {
		return nil, nil, err
	}
	if m.PollsTotal, err = meter.Int64Counter(
		"job_polls_total",
		metric.WithDescription("Remote status queries by reported status"),
	); err != nil {
		return nil, nil, err
	}
	if m.PollErrorsTotal, err = meter.Int64Counter(
		"job_poll_errors_total",
		metric.WithDescription("Remote status queries that failed"),
	); err != nil {
		return nil, nil, err
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// RecordHTTPRequest records HTTP request metrics. route should be the
// matched route pattern to keep cardinality low.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, took time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", fmt.Sprintf("%dxx", statusCode/100)),
	)
	m.HTTPRequestDuration.Record(ctx, took.Seconds(), attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
}

// GenerationStarted marks a generate call as in flight.
func (m *Metrics) GenerationStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.GenerationsActive.Add(ctx, 1)
}

// GenerationFinished records the outcome of a generate call. code is the
// taxonomy tag, empty on success.
func (m *Metrics) GenerationFinished(ctx context.Context, code string, took time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	attrs := metric.WithAttributes(attribute.String("code", code))
	m.GenerationsActive.Add(ctx, -1)
	m.GenerationsTotal.Add(ctx, 1, attrs)
	m.GenerationDuration.Record(ctx, took.Seconds(), attrs)
}

// ObservePoll counts one remote status query.
func (m *Metrics) ObservePoll(ctx context.Context, status domain.JobStatus, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PollErrorsTotal.Add(ctx, 1)
		return
	}
	label := strings.TrimSpace(string(status))
	if label == "" {
		label = "unknown"
	}
	m.PollsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", label)))
}
