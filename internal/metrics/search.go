package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pravex",
			Name:      "search_requests_total",
			Help:      "Total number of orchestrated searches",
		},
		[]string{"status"}, // "success" / "fallback_success" / "no_results" / "error"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pravex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end orchestrated search duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pravex",
			Name:      "search_results_returned",
			Help:      "Number of results returned per search after filtering",
			Buckets:   []float64{0, 1, 3, 5, 8, 12, 15, 20},
		},
	)

	SearchRefinementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pravex",
			Name:      "search_refinements_total",
			Help:      "Total number of refinement iterations triggered",
		},
	)

	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pravex",
			Name:      "scoring_duration_seconds",
			Help:      "Relevancy scoring duration per result batch in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pravex",
			Name:      "provider_requests_total",
			Help:      "Total number of upstream search provider requests",
		},
		[]string{"provider", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pravex",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream search provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	FetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pravex",
			Name:      "fetch_requests_total",
			Help:      "Total number of page content fetches",
		},
		[]string{"status"}, // "success" / "error"
	)

	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pravex",
			Name:      "fetch_duration_seconds",
			Help:      "Page content fetch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pravex",
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"provider", "status"},
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pravex",
			Name:      "generation_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(SearchRefinementsTotal)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(FetchRequestsTotal)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationDuration)
	searchMetricsRegistered = true
}
