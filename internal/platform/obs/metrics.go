package obs

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the service-wide metrics registry. Using our own registry
// instead of the global default keeps test runs from tripping over
// duplicate registrations.
var Registry = prometheus.NewRegistry()

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "End-to-end HTTP request duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	OptimizeRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_runs_total",
		Help: "Optimization runs by mode and outcome status.",
	}, []string{"mode", "status"})

	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_provider_requests_total",
		Help: "Outbound routing provider requests by outcome.",
	}, []string{"outcome"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "travel_cache_lookups_total",
		Help: "Travel cache lookups by backend and result.",
	}, []string{"backend", "result"})

	OpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "operation_duration_seconds",
		Help:    "Duration of named internal operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

var registerOnce sync.Once

// RegisterDefault registers every collector plus the Go runtime and
// process collectors on the package registry. Safe to call repeatedly.
func RegisterDefault() {
	registerOnce.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			HTTPRequests,
			HTTPDuration,
			OptimizeRuns,
			ProviderRequests,
			CacheLookups,
			OpDuration,
		)
	})
}

// MetricsHandler serves the registry in Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
