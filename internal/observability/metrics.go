package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/depchain/pkg/cache"
)

const (
	metricPackagesChecked = "depchain.packages.checked.total"
	metricFilesParsed     = "depchain.files.parsed.total"
	metricInvalidImports  = "depchain.invalid.imports.total"
	metricCheckDuration   = "depchain.check.duration.seconds"
	metricCacheHits       = "depchain.cache.hits.total"
	metricCacheMisses     = "depchain.cache.misses.total"

	metricRequestsTotal    = "depchain.requests.total"
	metricRequestDuration  = "depchain.request.duration.seconds"
	metricErrorsTotal      = "depchain.errors.total"
	metricInflightRequests = "depchain.inflight.requests"

	attrOp       = "op"
	attrStatus   = "status"
	attrTypeOnly = "type_only"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// checkBuckets covers a single tiny package up to a large monorepo package.
var checkBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// requestBuckets covers MCP tool calls from a single file to a whole workspace.
var requestBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// CheckMetrics records package check outcomes.
type CheckMetrics struct {
	packages metric.Int64Counter
	files    metric.Int64Counter
	invalid  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewCheckMetrics creates the check instruments from mt.
func NewCheckMetrics(mt metric.Meter) (*CheckMetrics, error) {
	b := newMetricBuilder(mt)

	cm := &CheckMetrics{
		packages: b.counter(metricPackagesChecked, "Package areas checked, by outcome", "{package}"),
		files:    b.counter(metricFilesParsed, "Source files parsed", "{file}"),
		invalid:  b.counter(metricInvalidImports, "Imports of undeclared packages", "{import}"),
		duration: b.histogram(metricCheckDuration, "Duration of one package area check", "s", checkBuckets...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return cm, nil
}

// RecordCheck records one finished check.
func (cm *CheckMetrics) RecordCheck(ctx context.Context, status string, files int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	cm.packages.Add(ctx, 1, attrs)
	cm.duration.Record(ctx, duration.Seconds(), attrs)

	if files > 0 {
		cm.files.Add(ctx, int64(files))
	}
}

// RecordInvalid records count invalid imports.
func (cm *CheckMetrics) RecordInvalid(ctx context.Context, typeOnly bool, count int) {
	cm.invalid.Add(ctx, int64(count), metric.WithAttributes(attribute.Bool(attrTypeOnly, typeOnly)))
}

// ObserveCache reports the counters returned by stats on every collection.
// Unregister the returned registration when the cache goes away.
func ObserveCache(mt metric.Meter, stats func() cache.Stats) (metric.Registration, error) {
	b := newMetricBuilder(mt)

	hits := b.observableCounter(metricCacheHits, "Extraction cache hits", "{lookup}")
	misses := b.observableCounter(metricCacheMisses, "Extraction cache misses", "{lookup}")

	if b.err != nil {
		return nil, b.err
	}

	return mt.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		current := stats()
		obs.ObserveInt64(hits, current.Hits)
		obs.ObserveInt64(misses, current.Misses)

		return nil
	}, hits, misses)
}

// REDMetrics holds the Rate, Error, Duration instruments for MCP tool calls.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &REDMetrics{
		requestsTotal:    b.counter(metricRequestsTotal, "Total number of requests", "{request}"),
		requestDuration:  b.histogram(metricRequestDuration, "Request duration in seconds", "s", requestBuckets...),
		errorsTotal:      b.counter(metricErrorsTotal, "Total number of errors", "{error}"),
		inflightRequests: b.upDownCounter(metricInflightRequests, "Number of in-flight requests", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}
