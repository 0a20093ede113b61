package testutils

import (
	"sync"
	"time"

	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

// MetricCall is one recorded call into the RecordingMetrics collector.
type MetricCall struct {
	// Kind is the collector method: "latency", "counter", "gauge", or
	// "histogram".
	Kind string

	// Metric is the metric or operation name the call carried.
	Metric string

	// Value is the recorded value; latencies are in seconds.
	Value float64

	// Labels is the label set passed with the call, possibly nil.
	Labels map[string]string
}

// RecordingMetrics implements ports.MetricsCollector by recording every
// call for later assertions. It avoids touching the global Prometheus
// registry, so each test can use a fresh instance.
//
// Concurrency: safe for concurrent use.
type RecordingMetrics struct {
	mu    sync.Mutex
	calls []MetricCall
}

var _ ports.MetricsCollector = (*RecordingMetrics)(nil)

// NewRecordingMetrics creates an empty recording collector.
func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{}
}

// RecordLatency implements ports.MetricsCollector.
func (m *RecordingMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	m.record(MetricCall{Kind: "latency", Metric: operation, Value: duration.Seconds(), Labels: labels})
}

// RecordCounter implements ports.MetricsCollector.
func (m *RecordingMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	m.record(MetricCall{Kind: "counter", Metric: metric, Value: value, Labels: labels})
}

// RecordGauge implements ports.MetricsCollector.
func (m *RecordingMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	m.record(MetricCall{Kind: "gauge", Metric: metric, Value: value, Labels: labels})
}

// RecordHistogram implements ports.MetricsCollector.
func (m *RecordingMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.record(MetricCall{Kind: "histogram", Metric: metric, Value: value, Labels: labels})
}

func (m *RecordingMetrics) record(call MetricCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns a copy of every recorded call in order.
func (m *RecordingMetrics) Calls() []MetricCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MetricCall(nil), m.calls...)
}

// CounterTotal sums the values of every recorded counter call for the
// named metric.
func (m *RecordingMetrics) CounterTotal(metric string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, call := range m.calls {
		if call.Kind == "counter" && call.Metric == metric {
			total += call.Value
		}
	}
	return total
}

// Reset discards every recorded call.
func (m *RecordingMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
