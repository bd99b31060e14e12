package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "Total number of tool invocations by tenant, tool and outcome (ok or error code)",
		},
		[]string{"tenant", "tool", "outcome"},
	)
	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_duration_seconds",
			Help:    "Tool handler duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"tenant", "tool"},
	)

	CRMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_requests_total",
			Help: "Total number of CRM requests by operation and final status class",
		},
		[]string{"operation", "status"},
	)
	CRMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_request_duration_seconds",
			Help:    "CRM request duration in seconds, retries included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)
	CRMRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_retries_total",
			Help: "Total number of retried CRM attempts by operation",
		},
		[]string{"operation"},
	)

	AvailabilityBranches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "availability_fanout_branches",
			Help:    "Number of branches queried per availability fan-out",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 12},
		},
	)
	AvailabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "availability_duration_seconds",
			Help:    "End-to-end availability lookup duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	VectorSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vector_searches_total",
			Help: "Total number of vector searches by collection and outcome",
		},
		[]string{"collection", "outcome"},
	)
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding requests by outcome",
		},
		[]string{"outcome"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(ToolInvocationsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(CRMRequestsTotal)
	prometheus.MustRegister(CRMRequestDuration)
	prometheus.MustRegister(CRMRetriesTotal)
	prometheus.MustRegister(AvailabilityBranches)
	prometheus.MustRegister(AvailabilityDuration)
	prometheus.MustRegister(VectorSearchesTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			// fallback when route pattern is unavailable
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveTool records one tool invocation. Outcome is "ok" or the Result
// error code.
func ObserveTool(tenant, tool, outcome string, seconds float64) {
	ToolInvocationsTotal.WithLabelValues(tenant, tool, outcome).Inc()
	ToolDuration.WithLabelValues(tenant, tool).Observe(seconds)
}

// ObserveCRM records one CRM operation with its final status class
// ("2xx", "4xx", "5xx", "network").
func ObserveCRM(operation, status string, seconds float64) {
	CRMRequestsTotal.WithLabelValues(operation, status).Inc()
	CRMRequestDuration.WithLabelValues(operation).Observe(seconds)
}

// ObserveCRMRetry counts one retried attempt.
func ObserveCRMRetry(operation string) {
	CRMRetriesTotal.WithLabelValues(operation).Inc()
}

// ObserveAvailability records one fan-out: how many branches were asked and
// how long the whole lookup took.
func ObserveAvailability(branches int, seconds float64) {
	AvailabilityBranches.Observe(float64(branches))
	AvailabilityDuration.Observe(seconds)
}
