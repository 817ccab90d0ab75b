package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index and agent pipeline metrics.
var (
	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recall",
			Name:      "index_documents",
			Help:      "Number of documents in the vector index",
		},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "pipeline_runs_total",
			Help:      "Total number of agent pipeline runs",
		},
		[]string{"status"}, // "ok" / "error"
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recall",
			Name:      "pipeline_duration_seconds",
			Help:      "Agent pipeline end-to-end duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

var indexMetricsRegistered bool

// RegisterIndexMetrics registers index and pipeline metrics. Must be called once from main.
func RegisterIndexMetrics() {
	if indexMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineDuration)
	indexMetricsRegistered = true
}
