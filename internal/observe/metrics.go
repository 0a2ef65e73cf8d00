// Package observe provides application-wide observability primitives for
// bioroute: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all bioroute metrics.
const meterName = "github.com/MrWong99/bioroute"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// RouterDuration tracks the routing model call latency.
	RouterDuration metric.Float64Histogram

	// ReasonerDuration tracks the reasoning model call latency.
	ReasonerDuration metric.Float64Histogram

	// ToolInvocationDuration tracks registry tool invocation latency.
	ToolInvocationDuration metric.Float64Histogram

	// PipelineDuration tracks the full prompt-to-envelope latency.
	PipelineDuration metric.Float64Histogram

	// --- Counters ---

	// LLMRequests counts language-model calls. Use with attributes:
	//   attribute.String("stage", "router"|"reasoner"), attribute.String("status", ...)
	LLMRequests metric.Int64Counter

	// ToolInvocations counts registry tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolInvocations metric.Int64Counter

	// PipelineRequests counts processed prompts. Use with attribute:
	//   attribute.String("status", "success"|"error")
	PipelineRequests metric.Int64Counter

	// DroppedToolRequests counts tool requests dropped during catalogue
	// validation. Use with attribute: attribute.String("reason", ...)
	DroppedToolRequests metric.Int64Counter

	// --- Gauges ---

	// InFlightRequests tracks the number of prompts currently being processed.
	InFlightRequests metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// LLM-call latencies: sub-second tool calls up to slow multi-second completions.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RouterDuration, err = m.Float64Histogram("bioroute.router.duration",
		metric.WithDescription("Latency of the routing model call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ReasonerDuration, err = m.Float64Histogram("bioroute.reasoner.duration",
		metric.WithDescription("Latency of the reasoning model call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolInvocationDuration, err = m.Float64Histogram("bioroute.tool.duration",
		metric.WithDescription("Latency of registry tool invocations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineDuration, err = m.Float64Histogram("bioroute.pipeline.duration",
		metric.WithDescription("Full prompt-to-envelope processing latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.LLMRequests, err = m.Int64Counter("bioroute.llm.requests",
		metric.WithDescription("Total language-model calls by stage and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolInvocations, err = m.Int64Counter("bioroute.tool.invocations",
		metric.WithDescription("Total registry tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.PipelineRequests, err = m.Int64Counter("bioroute.pipeline.requests",
		metric.WithDescription("Total processed prompts by terminal status."),
	); err != nil {
		return nil, err
	}
	if met.DroppedToolRequests, err = m.Int64Counter("bioroute.router.dropped_tools",
		metric.WithDescription("Tool requests dropped during catalogue validation, by reason."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.InFlightRequests, err = m.Int64UpDownCounter("bioroute.pipeline.inflight",
		metric.WithDescription("Number of prompts currently being processed."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("bioroute.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// AttrSet wraps a single string attribute as a measurement option for
// counter and histogram call sites.
func AttrSet(key, value string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(key, value))
}

// RecordLLMRequest records one language-model call with the standard
// attribute set.
func (m *Metrics) RecordLLMRequest(ctx context.Context, stage, status string) {
	m.LLMRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
}

// RecordToolInvocation records one registry tool invocation with the standard
// attribute set.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, seconds float64) {
	m.ToolInvocations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
	m.ToolInvocationDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}
