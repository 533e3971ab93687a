// Package observe provides observability primitives for vowelscore:
// OpenTelemetry metrics, tracing, and trace-aware structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them to a Prometheus registry so a batch run can leave a textfile
// behind for node_exporter. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all vowelscore metrics.
const meterName = "github.com/MrWong99/vowelscore"

// Status values for the assessments counter.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// AssessDuration tracks how long one assessment takes end to end.
	AssessDuration metric.Float64Histogram

	// Assessments counts finished assessments. Use with attribute:
	//   attribute.String("status", ...)
	Assessments metric.Int64Counter

	// VowelErrors counts reported vowel errors. Use with attribute:
	//   attribute.String("error_type", ...)
	VowelErrors metric.Int64Counter

	// InvariantViolations counts assessments rejected by the result checks.
	InvariantViolations metric.Int64Counter

	// BatchInFlight tracks assessments currently running in a batch.
	BatchInFlight metric.Int64UpDownCounter
}

// latencyBuckets are histogram boundaries in seconds. Assessments are pure
// computation over short sequences, so the interesting range is sub-millisecond.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AssessDuration, err = m.Float64Histogram("vowelscore.assess.duration",
		metric.WithDescription("Latency of a single vowel assessment."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Assessments, err = m.Int64Counter("vowelscore.assessments",
		metric.WithDescription("Total assessments by status."),
	); err != nil {
		return nil, err
	}
	if met.VowelErrors, err = m.Int64Counter("vowelscore.vowel_errors",
		metric.WithDescription("Total vowel errors reported by error type."),
	); err != nil {
		return nil, err
	}
	if met.InvariantViolations, err = m.Int64Counter("vowelscore.invariant_violations",
		metric.WithDescription("Assessments whose result failed an internal consistency check."),
	); err != nil {
		return nil, err
	}

	if met.BatchInFlight, err = m.Int64UpDownCounter("vowelscore.batch.in_flight",
		metric.WithDescription("Number of assessments currently running in a batch."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails, which does not happen with the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordAssessment records one finished assessment with its duration in
// seconds.
func (m *Metrics) RecordAssessment(ctx context.Context, status string, seconds float64) {
	m.Assessments.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.AssessDuration.Record(ctx, seconds)
}

// RecordVowelErrors adds n errors of the given type. Zero counts are skipped.
func (m *Metrics) RecordVowelErrors(ctx context.Context, errorType string, n int) {
	if n == 0 {
		return
	}
	m.VowelErrors.Add(ctx, int64(n), metric.WithAttributes(attribute.String("error_type", errorType)))
}

// RecordInvariantViolation increments the invariant violation counter.
func (m *Metrics) RecordInvariantViolation(ctx context.Context) {
	m.InvariantViolations.Add(ctx, 1)
}
