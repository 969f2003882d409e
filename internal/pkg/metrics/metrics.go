package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// --- Analysis pipeline metrics ---
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatcheck_analyses_total",
			Help: "Total number of completed analyses by verdict source and threat level.",
		},
		[]string{"source", "threat_level"},
	)
	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatcheck_stage_failures_total",
			Help: "Fallback-stage failures by stage and reason.",
		},
		[]string{"stage", "reason"},
	)
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threatcheck_stage_duration_seconds",
			Help:    "Wall time spent inside each fallback stage.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// --- Inbound (server) metrics ---
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "code"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// --- Outbound (provider client) metrics ---
	HTTPClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_client_requests_total",
			Help: "Total number of outbound HTTP requests to providers.",
		},
		[]string{"method", "code"},
	)
	HTTPClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_client_request_duration_seconds",
			Help:    "Latency of outbound HTTP requests to providers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)
)

// Register builds the registry served on /metrics.
func Register() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		AnalysesTotal,
		StageFailuresTotal,
		StageDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPClientRequestsTotal,
		HTTPClientRequestDuration,
	)
	return reg
}
