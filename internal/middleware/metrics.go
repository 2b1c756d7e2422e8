package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usof_redis_errors_total",
	Help: "Total number of failed redis commands",
}, []string{"command"})

// RedisCommandDuration tracks redis round trips, pipelines counted once.
var RedisCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "usof_redis_command_duration_seconds",
	Help:    "Latency of redis commands",
	Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
}, []string{"command"})

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics builds the HTTP metrics collector. The collector registers on
// the default registry, so repeated calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request counts and latencies.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
