package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/certenroll"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Enrollment metrics
	EnrollmentsTotal     metric.Int64Counter
	EnrollmentDuration   metric.Float64Histogram
	IssuancePollAttempts metric.Int64Histogram

	// Root certificate metrics
	RootCertificateRequestsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments created before InitTelemetry delegate to the provider it installs.
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

	m.EnrollmentsTotal, _ = meter.Int64Counter(
		"certenroll.enrollments.total",
		metric.WithDescription("Total number of enrollment requests by outcome"),
		metric.WithUnit("{request}"),
	)

	m.EnrollmentDuration, _ = meter.Float64Histogram(
		"certenroll.enrollments.duration",
		metric.WithDescription("Duration of enrollment requests including issuance wait"),
		metric.WithUnit("ms"),
	)

	m.IssuancePollAttempts, _ = meter.Int64Histogram(
		"certenroll.issuance.poll_attempts",
		metric.WithDescription("Status checks made while waiting for certificate issuance"),
		metric.WithUnit("{attempt}"),
	)

	m.RootCertificateRequestsTotal, _ = meter.Int64Counter(
		"certenroll.root_certificate.requests.total",
		metric.WithDescription("Total number of root certificate requests by outcome"),
		metric.WithUnit("{request}"),
	)

	return m
}
