// Package middleware provides cross-cutting concerns for the annotation
// server.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Mohaimin66/event-annotation-tool/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks annotation throughput, plan generations,
// adjudication activity, agreement scores, and request latency.
type PrometheusMetrics struct {
	annotationsSaved    *prometheus.CounterVec
	planGenerations     *prometheus.CounterVec
	adjudicationsSaved  prometheus.Counter
	agreementScore      *prometheus.GaugeVec
	httpRequestDuration *prometheus.HistogramVec
	operationLatency    *prometheus.HistogramVec
	operationCounter    *prometheus.CounterVec
	stateGauges         *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and
// registers all required metrics in the global Prometheus registry.
// Construct it once per process; a second call panics on duplicate
// registration.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Annotation-workflow metrics.
		annotationsSaved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annotations_saved_total",
				Help: "Total number of annotations saved, by annotator.",
			},
			[]string{"annotator"},
		),
		planGenerations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_generations_total",
				Help: "Total number of split plans generated.",
			},
			[]string{"trigger"},
		),
		adjudicationsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "adjudications_saved_total",
				Help: "Total number of adjudicated gold answers saved.",
			},
		),
		agreementScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agreement_score",
				Help: "Most recently computed inter-annotator agreement scores.",
			},
			[]string{"metric", "pair"},
		),

		// Request and engine latency for general observability.
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by method, route, and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "annotation_operation_duration_seconds",
				Help:    "Execution time of annotation service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "component"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "annotation_operations_total",
				Help: "Total number of operations performed by the annotation service.",
			},
			[]string{"operation", "status", "component"},
		),
		stateGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "annotation_system_state",
				Help: "Current system state values for the annotation server.",
			},
			[]string{"metric", "component"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, componentLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. Known workflow metrics route to their dedicated
// counters; everything else lands on the generic operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "annotations_saved_total":
		annotator, ok := labels["annotator"]
		if !ok {
			annotator = "unknown"
		}
		pm.annotationsSaved.WithLabelValues(annotator).Add(value)
	case "plan_generations_total":
		trigger, ok := labels["trigger"]
		if !ok {
			trigger = "request"
		}
		pm.planGenerations.WithLabelValues(trigger).Add(value)
	case "adjudications_saved_total":
		pm.adjudicationsSaved.Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, "success", componentLabel(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "agreement_score":
		pair, ok := labels["pair"]
		if !ok {
			pair = "all"
		}
		pm.agreementScore.WithLabelValues(labels["kind"], pair).Set(value)
	default:
		pm.stateGauges.WithLabelValues(metric, componentLabel(labels)).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. Request timings route to the HTTP
// histogram; everything else lands on the operation latency histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == "http_request_duration_seconds" {
		pm.httpRequestDuration.WithLabelValues(
			labels["method"],
			labels["route"],
			labels["status"],
		).Observe(value)
		return
	}
	pm.operationLatency.WithLabelValues(metric, componentLabel(labels)).Observe(value)
}

func componentLabel(labels map[string]string) string {
	component, ok := labels["component"]
	if !ok || component == "" {
		return "unknown"
	}
	return component
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
