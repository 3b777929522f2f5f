// Package metrics provides Prometheus instrumentation for simulation runs and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"

	// UnmatchedRoute labels requests that matched no route.
	UnmatchedRoute = "unmatched"
)

var (
	// RunsTotal counts simulation runs by kind and outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stochsim_runs_total",
		Help: "Total simulation runs",
	}, []string{"kind", "outcome"})

	// RunDuration tracks wall time of successful and failed runs.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stochsim_run_duration_seconds",
		Help:    "Simulation run duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	// PathsGenerated counts simulated paths.
	PathsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stochsim_paths_generated_total",
		Help: "Total number of simulated paths",
	}, []string{"kind"})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stochsim_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stochsim_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
	}, []string{"method", "path"})

	// HostCPUPercent reports host CPU utilization since the previous scrape.
	HostCPUPercent = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "stochsim_host_cpu_percent",
		Help: "Host CPU utilization in percent since the last scrape",
	}, hostCPUPercent)
)

func hostCPUPercent() float64 {
	pct, err := cpu.Percent(0, false)
	if err != nil || len(pct) == 0 {
		return 0
	}
	return pct[0]
}

// ObserveRun records the outcome and duration of one run.
func ObserveRun(kind string, started time.Time, paths int, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	RunsTotal.WithLabelValues(kind, outcome).Inc()
	RunDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	if err == nil && paths > 0 {
		PathsGenerated.WithLabelValues(kind).Add(float64(paths))
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Route pattern keeps the label set bounded.
		path := UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
