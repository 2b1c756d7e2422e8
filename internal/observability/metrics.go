package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "usof_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ReactionToggles counts reaction toggles by target kind and outcome.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usof_reaction_toggles_total",
		Help: "Total number of reaction toggles by target kind and outcome",
	}, []string{"target", "action"})

	// CommentDepthRejections counts replies refused for nesting too deep.
	CommentDepthRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usof_comment_depth_rejections_total",
		Help: "Total number of replies rejected for exceeding the maximum depth",
	})

	// TokensRevoked counts tokens added to the blacklist.
	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usof_tokens_revoked_total",
		Help: "Total number of JWTs revoked at logout",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
