// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "careline"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Pipeline metrics
	RequestsTotal  prometheus.Counter
	RequestsFailed *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec

	// Dataset generator metrics
	DatasetSamples *prometheus.CounterVec

	// Events publisher metrics
	EventsPublished *prometheus.CounterVec
}

// New registers the careline metric set on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total audio requests processed by the pipeline.",
		}),
		RequestsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_failed_total",
			Help:      "Pipeline requests that failed, by failing stage.",
		}, []string{"stage"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		DatasetSamples: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_samples_total",
			Help:      "Dataset samples generated, by status.",
		}, []string{"status"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Pipeline result events published, by status.",
		}, []string{"status"}),
	}
}

// Default is the metric set registered on the default Prometheus registry.
var Default = New(prometheus.DefaultRegisterer)

// ObserveStage records one stage duration in seconds.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordFailure records one stage failure.
func (m *Metrics) RecordFailure(stage string) {
	m.RequestsFailed.WithLabelValues(stage).Inc()
}
