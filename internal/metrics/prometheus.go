package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrichment_dispatch_duration_seconds",
			Help:    "Endpoint dispatch duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_dispatch_total",
			Help: "Total endpoint dispatches attempted",
		},
		[]string{"source", "status"},
	)

	EndpointsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_endpoints_skipped_total",
			Help: "Endpoints skipped for missing identifiers",
		},
		[]string{"source"},
	)

	AnalysesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_analyses_created_total",
			Help: "Total analyses created",
		},
		[]string{"content_category"},
	)

	EvidenceStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_evidence_stored_total",
			Help: "Total evidence records stored",
		},
		[]string{"source"},
	)

	EvidenceDeduplicated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_evidence_deduplicated_total",
			Help: "Evidence payloads dropped as already seen",
		},
		[]string{"source"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"kind"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"kind"},
	)

	DurableWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_durable_write_failures_total",
			Help: "Best-effort durable store writes that failed",
		},
		[]string{"table"},
	)

	MonitoringRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrichment_monitoring_runs_total",
			Help: "Total monitoring batch runs",
		},
	)

	MonitoringRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_monitoring_refreshes_total",
			Help: "Per-analysis refresh outcomes in monitoring runs",
		},
		[]string{"outcome"},
	)
)

func Init() {
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(EndpointsSkipped)
	prometheus.MustRegister(AnalysesCreated)
	prometheus.MustRegister(EvidenceStored)
	prometheus.MustRegister(EvidenceDeduplicated)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(DurableWriteFailures)
	prometheus.MustRegister(MonitoringRuns)
	prometheus.MustRegister(MonitoringRefreshes)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
