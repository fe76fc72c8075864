package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus metrics for the dashboard service
type Metrics struct {
	ArtifactLoads    *prometheus.CounterVec
	DrilldownQueries *prometheus.CounterVec
	ExportDownloads  *prometheus.CounterVec
	QueryDuration    *prometheus.HistogramVec
}
