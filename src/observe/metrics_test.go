package observe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordInvocation(ctx, "readFile", "ok", 120*time.Millisecond)
	m.RecordInvocation(ctx, "readFile", "result_timeout", 5*time.Second)

	rm := collect(t, reader)

	met := findMetric(rm, "mcpclient.invocations")
	require.NotNil(t, met)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	statuses := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("status"))
		statuses[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"ok": 1, "result_timeout": 1}, statuses)

	hist := findMetric(rm, "mcpclient.invoke.duration")
	require.NotNil(t, hist)
	h, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(2), h.DataPoints[0].Count)
}

func TestRecordEvent(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordEvent(context.Background(), "connected")
	m.RecordEvent(context.Background(), "ping")
	m.RecordEvent(context.Background(), "ping")

	met := findMetric(collect(t, reader), "mcpclient.stream.events")
	require.NotNil(t, met)
	sum := met.Data.(metricdata.Sum[int64])
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, sum.DataPoints, 2)
}

func TestNoop(t *testing.T) {
	m := Noop()
	require.NotNil(t, m)
	m.RecordInvocation(context.Background(), "t", "ok", time.Millisecond)
	m.DiscardedResults.Add(context.Background(), 1)
}
