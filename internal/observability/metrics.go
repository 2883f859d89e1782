// Package observability holds prometheus metrics and OpenTelemetry tracing
// setup.
package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed redis commands, labeled by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mingle_redis_errors_total",
		Help: "Redis command failures by command.",
	}, []string{"command"})

	// CacheResults counts cache-aside lookups by outcome (hit, miss, error).
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mingle_cache_results_total",
		Help: "Cache-aside lookup outcomes.",
	}, []string{"outcome"})

	// MediaOperations counts media store uploads and destroys by outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mingle_media_operations_total",
		Help: "Media store operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// MailSends counts outbound mail attempts by outcome.
	MailSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mingle_mail_sends_total",
		Help: "Outbound mail attempts by outcome.",
	}, []string{"outcome"})

	// CascadeDeletions counts completed deletion cascades by root entity.
	CascadeDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mingle_cascade_deletions_total",
		Help: "Completed deletion cascades by entity.",
	}, []string{"entity"})

	// GraphToggles counts follow/unfollow and like/unlike toggles by action.
	GraphToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mingle_graph_toggles_total",
		Help: "Follow and like toggle operations by action.",
	}, []string{"action"})

	// DBQueryDuration observes repository query latency by operation.
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mingle_db_query_duration_seconds",
		Help:    "Repository query latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// NewHTTPMetrics builds the fiber prometheus middleware exposing per-route
// HTTP metrics and the /metrics endpoint.
func NewHTTPMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
