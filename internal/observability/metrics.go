package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts HTTP requests by route, method and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration observes request latency by route and method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	// AIRequestsTotal counts upstream provider calls by provider and outcome.
	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI provider requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	// AIRequestDuration observes provider call latency.
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI provider request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)

	// AnalysesTotal counts pipeline runs by the source that produced the
	// returned result ("synthetic" when the chain was exhausted).
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of analyses by result source",
		},
		[]string{"source"},
	)
	// FallbackDepth observes how many providers failed before a result
	// was produced. Zero on a first-try success.
	FallbackDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_fallback_depth",
			Help:    "Number of failed provider attempts before a result was produced",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	// DailyCostUSD exposes the accountant's running daily cost estimate.
	DailyCostUSD = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_daily_cost_usd",
			Help: "Estimated AI spend for the current calendar day in USD",
		},
	)
	// BudgetAlertsTotal counts emitted budget threshold alerts by level.
	BudgetAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_budget_alerts_total",
			Help: "Total number of budget threshold alerts by level",
		},
		[]string{"level"},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors once per process.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AnalysesTotal,
			FallbackDepth,
			DailyCostUSD,
			BudgetAlertsTotal,
		)
	})
}

// HTTPMetricsMiddleware records request counts and latency per chi route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
