// Package observe records client metrics through the OpenTelemetry metrics
// API. Tests should build a [Metrics] with [NewMetrics] over an SDK provider
// with a manual reader; production code that does not care gets a no-op
// instance from [Noop].
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope for all client metrics.
const meterName = "github.com/Yaswanth-ampolu/productdemo"

// Metrics holds the client's instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// StreamEvents counts decoded stream events. Attribute: kind.
	StreamEvents metric.Int64Counter

	// MalformedEvents counts stream frames that could not be decoded.
	MalformedEvents metric.Int64Counter

	// DiscardedResults counts correlated events with no waiting request.
	DiscardedResults metric.Int64Counter

	// Invocations counts finished invocations. Attributes: tool, status.
	Invocations metric.Int64Counter

	// InvokeDuration tracks time from dispatch to result. Attribute: tool.
	InvokeDuration metric.Float64Histogram

	// PendingRequests tracks registered, not yet taken requests.
	PendingRequests metric.Int64UpDownCounter
}

var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StreamEvents, err = m.Int64Counter("mcpclient.stream.events",
		metric.WithDescription("Stream events received, by kind."),
	); err != nil {
		return nil, err
	}
	if met.MalformedEvents, err = m.Int64Counter("mcpclient.stream.malformed",
		metric.WithDescription("Stream frames that failed to decode."),
	); err != nil {
		return nil, err
	}
	if met.DiscardedResults, err = m.Int64Counter("mcpclient.results.discarded",
		metric.WithDescription("Results that arrived with no waiting request."),
	); err != nil {
		return nil, err
	}
	if met.Invocations, err = m.Int64Counter("mcpclient.invocations",
		metric.WithDescription("Completed tool invocations, by tool and status."),
	); err != nil {
		return nil, err
	}
	if met.InvokeDuration, err = m.Float64Histogram("mcpclient.invoke.duration",
		metric.WithDescription("Latency from dispatch to result."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PendingRequests, err = m.Int64UpDownCounter("mcpclient.requests.pending",
		metric.WithDescription("Requests waiting for a correlated result."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Noop returns metrics that record nothing.
func Noop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// RecordInvocation counts one finished invocation and its latency.
func (m *Metrics) RecordInvocation(ctx context.Context, tool, status string, elapsed time.Duration) {
	toolAttr := attribute.String("tool", tool)
	m.Invocations.Add(ctx, 1, metric.WithAttributes(toolAttr, attribute.String("status", status)))
	m.InvokeDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(toolAttr))
}

// RecordEvent counts one decoded stream event.
func (m *Metrics) RecordEvent(ctx context.Context, kind string) {
	m.StreamEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
