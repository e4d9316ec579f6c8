// Package metrics exposes the service's Prometheus instrumentation. All
// collectors register with the default registry so the /metrics endpoint
// only needs promhttp.Handler.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts handled requests per route and status
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netdss_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency per route
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netdss_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AnalysisRunsTotal counts recorded analysis runs per kind and outcome
	AnalysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netdss_analysis_runs_total",
			Help: "Total number of analysis runs recorded",
		},
		[]string{"kind", "status"},
	)

	// MemoLookupsTotal counts result cache lookups by outcome
	MemoLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netdss_memo_lookups_total",
			Help: "Total number of analysis result cache lookups",
		},
		[]string{"outcome"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AnalysisRunsTotal)
	prometheus.MustRegister(MemoLookupsTotal)
}

// CountRun records one finished analysis run.
func CountRun(kind, status string) {
	AnalysisRunsTotal.WithLabelValues(kind, status).Inc()
}

// CountMemoLookup records one result cache lookup.
func CountMemoLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	MemoLookupsTotal.WithLabelValues(outcome).Inc()
}

// Middleware instruments every request. It labels by the route template
// (c.FullPath) rather than the raw URL so path parameters do not blow up
// label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
