// Package telemetrytest reads back instruments recorded against an in-memory meter.
package telemetrytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Reader collects metrics on demand
type Reader struct {
	t      *testing.T
	reader *sdkmetric.ManualReader
}

// NewMeter returns a meter backed by a manual reader
func NewMeter(t *testing.T) (metric.Meter, *Reader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider.Meter("test"), &Reader{t: t, reader: reader}
}

func (r *Reader) find(name string) (metricdata.Metrics, bool) {
	r.t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(r.t, r.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// Int64 sums the data points of an int64 counter or gauge that carry attrs.
// A metric that was never recorded reads as zero.
func (r *Reader) Int64(name string, attrs ...attribute.KeyValue) int64 {
	r.t.Helper()
	m, ok := r.find(name)
	if !ok {
		return 0
	}

	var total int64
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			if matches(dp.Attributes, attrs) {
				total += dp.Value
			}
		}
	case metricdata.Gauge[int64]:
		for _, dp := range data.DataPoints {
			if matches(dp.Attributes, attrs) {
				total += dp.Value
			}
		}
	default:
		r.t.Fatalf("metric %s is %T, not an int64 sum or gauge", name, m.Data)
	}
	return total
}

// Count returns how many observations a float64 histogram holds for attrs
func (r *Reader) Count(name string, attrs ...attribute.KeyValue) uint64 {
	r.t.Helper()
	m, ok := r.find(name)
	if !ok {
		return 0
	}
	data, ok := m.Data.(metricdata.Histogram[float64])
	require.Truef(r.t, ok, "metric %s is %T, not a float64 histogram", name, m.Data)

	var total uint64
	for _, dp := range data.DataPoints {
		if matches(dp.Attributes, attrs) {
			total += dp.Count
		}
	}
	return total
}

func matches(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v.Emit() != kv.Value.Emit() {
			return false
		}
	}
	return true
}
