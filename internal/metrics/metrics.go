package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the engine.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveDuration tracks DP solve wall time in seconds, by whether the
	// result came from cache or was computed.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "DP solve duration in seconds.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}},
		[]string{"source"},
	)
	// CacheRequests counts result-cache lookups by tier and outcome.
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "result_cache_requests_total", Help: "Result cache lookups by tier and outcome."},
		[]string{"tier", "outcome"},
	)
	// GraphBuildDuration tracks cold graph construction time in seconds.
	GraphBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "graph_build_duration_seconds", Help: "Zone graph construction duration in seconds.", Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30}},
	)
)

// RegisterDefault registers collectors on the engine registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(CacheRequests)
		Registry.MustRegister(GraphBuildDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
