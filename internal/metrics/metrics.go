// Package metrics exposes Prometheus collectors for runs and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leapstack-labs/txt2sql/internal/engine"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txt2sql_runs_total",
			Help: "Total number of finished runs by terminal status.",
		},
		[]string{"status"},
	)

	executionAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txt2sql_execution_attempts_total",
			Help: "Total number of candidate statements executed against the target.",
		},
		[]string{"outcome"},
	)

	generatorCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txt2sql_generator_calls_total",
			Help: "Total number of generator calls by step.",
		},
		[]string{"step"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "txt2sql_run_duration_seconds",
			Help:    "Wall-clock duration of a run.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txt2sql_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "txt2sql_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		executionAttemptsTotal,
		generatorCallsTotal,
		runDurationSeconds,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Observer records engine events.
func Observer() engine.Observer {
	return func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventGeneratorCalled:
			generatorCallsTotal.WithLabelValues(ev.Step).Inc()
		case engine.EventExecuted:
			outcome := "success"
			if ev.Error != "" {
				outcome = "failure"
			}
			executionAttemptsTotal.WithLabelValues(outcome).Inc()
		case engine.EventFinished:
			if ev.Report == nil {
				return
			}
			runsTotal.WithLabelValues(string(ev.Report.Status)).Inc()
			runDurationSeconds.Observe(ev.Report.Duration.Seconds())
		}
	}
}

// Middleware counts requests and observes their latency, labelled by the
// matched chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		status := strconv.Itoa(code)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
