package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/vidyasangam/sangam-cli"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Refresh metrics
	RefreshAttemptsTotal metric.Int64Counter
	RefreshSkippedTotal  metric.Int64Counter
	RefreshFailuresTotal metric.Int64Counter

	// Request pipeline metrics
	RequestsTotal      metric.Int64Counter
	RetriesAfter401    metric.Int64Counter
	HTMLResponsesTotal metric.Int64Counter

	// Session lifecycle metrics
	LogoutsTotal            metric.Int64Counter
	RevalidationsTotal      metric.Int64Counter
	RevalidationFailures    metric.Int64Counter
	InactivityWarningsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

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

	m.RefreshAttemptsTotal, _ = meter.Int64Counter(
		"sangam.session.refresh.attempts.total",
		metric.WithDescription("Total number of access token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)

	m.RefreshSkippedTotal, _ = meter.Int64Counter(
		"sangam.session.refresh.skipped.total",
		metric.WithDescription("Total number of refreshes skipped because the token was still fresh"),
		metric.WithUnit("{skip}"),
	)

	m.RefreshFailuresTotal, _ = meter.Int64Counter(
		"sangam.session.refresh.failures.total",
		metric.WithDescription("Total number of failed refresh calls"),
		metric.WithUnit("{failure}"),
	)

	m.RequestsTotal, _ = meter.Int64Counter(
		"sangam.session.requests.total",
		metric.WithDescription("Total number of authenticated requests issued"),
		metric.WithUnit("{request}"),
	)

	m.RetriesAfter401, _ = meter.Int64Counter(
		"sangam.session.requests.retries.total",
		metric.WithDescription("Total number of requests retried after a 401 and refresh"),
		metric.WithUnit("{retry}"),
	)

	m.HTMLResponsesTotal, _ = meter.Int64Counter(
		"sangam.session.requests.html_responses.total",
		metric.WithDescription("Total number of HTML payloads received where JSON was expected"),
		metric.WithUnit("{response}"),
	)

	m.LogoutsTotal, _ = meter.Int64Counter(
		"sangam.session.logouts.total",
		metric.WithDescription("Total number of session clears, by reason"),
		metric.WithUnit("{logout}"),
	)

	m.RevalidationsTotal, _ = meter.Int64Counter(
		"sangam.session.revalidations.total",
		metric.WithDescription("Total number of backend session revalidations"),
		metric.WithUnit("{check}"),
	)

	m.RevalidationFailures, _ = meter.Int64Counter(
		"sangam.session.revalidations.failures.total",
		metric.WithDescription("Total number of revalidations that ended the session"),
		metric.WithUnit("{failure}"),
	)

	m.InactivityWarningsTotal, _ = meter.Int64Counter(
		"sangam.session.inactivity.warnings.total",
		metric.WithDescription("Total number of inactivity warnings shown"),
		metric.WithUnit("{warning}"),
	)

	return m
}
