package health

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registry is the process-wide Prometheus registry backing GET /metrics.
// Counters/gauges are registered eagerly so scraping before any traffic
// still returns a well-formed exposition (zero values), matching how the
// rest of the ambient stack favors explicit construction over lazy init.
var registry = prometheus.NewRegistry()

var (
	FetchTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "m3uflux_fetch_total",
		Help: "Provider fetches, labeled by outcome (ok, error).",
	}, []string{"outcome"})

	FetchDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "m3uflux_fetch_duration_seconds",
		Help:    "Duration of a full provider fetch.",
		Buckets: prometheus.DefBuckets,
	})

	TargetsWritten = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "m3uflux_target_writes_total",
		Help: "Target dispatch writes, labeled by target name and output kind.",
	}, []string{"target", "output"})

	EPGRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "m3uflux_epg_requests_total",
		Help: "EPG rewrite HTTP requests, labeled by outcome.",
	}, []string{"outcome"})

	GetPHPRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "m3uflux_get_php_requests_total",
		Help: "GET /get.php requests, labeled by outcome.",
	}, []string{"outcome"})

	ActiveGroups = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "m3uflux_active_groups",
		Help: "Number of groups held from the most recent successful fetch.",
	})
)

func init() {
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}

// MetricsHandler returns the net/http.Handler to mount at GET /metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
