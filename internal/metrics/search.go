package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cie10rag",
			Name:      "search_duration_seconds",
			Help:      "Similarity search duration per corpus in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"corpus"},
	)

	SearchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cie10rag",
			Name:      "search_results_total",
			Help:      "Total hits returned per corpus",
		},
		[]string{"corpus"},
	)

	CatalogDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cie10rag",
			Name:      "catalog_documents",
			Help:      "Indexed documents per corpus",
		},
		[]string{"corpus"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cie10rag",
			Name:      "query_cache_total",
			Help:      "Query cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	QueryCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cie10rag",
			Name:      "query_cache_evictions_total",
			Help:      "Entries dropped by query cache trimming",
		},
	)

	QueryCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cie10rag",
			Name:      "query_cache_entries",
			Help:      "Current number of cached responses",
		},
	)

	QueryCacheSnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cie10rag",
			Name:      "query_cache_snapshots_total",
			Help:      "Query cache snapshot operations",
		},
		[]string{"op", "status"}, // op: "load" / "save"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval and cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(CatalogDocuments)
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(QueryCacheEvictionsTotal)
	prometheus.MustRegister(QueryCacheEntries)
	prometheus.MustRegister(QueryCacheSnapshotsTotal)
	searchMetricsRegistered = true
}
