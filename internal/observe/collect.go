package observe

import "go.opentelemetry.io/otel/sdk/metric/metricdata"

// FindMetric searches for a metric by name across all scope metrics.
func FindMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// CounterTotal sums every data point of the named int64 counter, or returns
// 0 when the metric is absent or of another kind.
func CounterTotal(rm metricdata.ResourceMetrics, name string) int64 {
	m := FindMetric(rm, name)
	if m == nil {
		return 0
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0
	}

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}
