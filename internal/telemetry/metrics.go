package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	meterName = "github.com/wolfeidau/stockroom"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// API call metrics
	APICallsTotal       metric.Int64Counter
	APICallErrorsTotal  metric.Int64Counter
	APICallDuration     metric.Float64Histogram
	APICallRetriesTotal metric.Int64Counter

	// Session metrics
	LoginsTotal               metric.Int64Counter
	LoginFailuresTotal        metric.Int64Counter
	SessionInvalidationsTotal metric.Int64Counter
	SessionRestoresTotal      metric.Int64Counter

	// Guard metrics
	GuardDecisionsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// Tracer returns the tracer used for client spans.
func Tracer() trace.Tracer {
	return otel.Tracer(meterName)
}

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// API call metrics
	m.APICallsTotal, _ = meter.Int64Counter(
		"stockroom.api.calls.total",
		metric.WithDescription("Total number of API calls issued"),
		metric.WithUnit("{call}"),
	)

	m.APICallErrorsTotal, _ = meter.Int64Counter(
		"stockroom.api.calls.errors.total",
		metric.WithDescription("Total number of API calls that failed"),
		metric.WithUnit("{error}"),
	)

	m.APICallDuration, _ = meter.Float64Histogram(
		"stockroom.api.calls.duration",
		metric.WithDescription("Duration of API calls including retries"),
		metric.WithUnit("ms"),
	)

	m.APICallRetriesTotal, _ = meter.Int64Counter(
		"stockroom.api.calls.retries.total",
		metric.WithDescription("Total number of API call retries"),
		metric.WithUnit("{retry}"),
	)

	// Session metrics
	m.LoginsTotal, _ = meter.Int64Counter(
		"stockroom.session.logins.total",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("{login}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"stockroom.session.login_failures.total",
		metric.WithDescription("Total number of failed logins"),
		metric.WithUnit("{login}"),
	)

	m.SessionInvalidationsTotal, _ = meter.Int64Counter(
		"stockroom.session.invalidations.total",
		metric.WithDescription("Total number of sessions invalidated by an authentication failure"),
		metric.WithUnit("{session}"),
	)

	m.SessionRestoresTotal, _ = meter.Int64Counter(
		"stockroom.session.restores.total",
		metric.WithDescription("Total number of session restores at startup"),
		metric.WithUnit("{session}"),
	)

	// Guard metrics
	m.GuardDecisionsTotal, _ = meter.Int64Counter(
		"stockroom.guard.decisions.total",
		metric.WithDescription("Total number of access guard decisions"),
		metric.WithUnit("{decision}"),
	)

	return m
}
