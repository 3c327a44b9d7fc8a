// Package metrics builds the request metrics the HTTP pipeline reports
// through /metrics, using touchstone the way the teacher's xmidt-org/argus
// main.go does — minus the fx container, since this module's process
// bootstrap is a plain main() rather than an fx.App (see DESIGN.md).
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xmidt-org/touchstone"
)

const serverLabel = "server"

// Measures holds the counters, histograms and gauges the pipeline updates
// per request, mirroring the shape of the teacher's provideMetrics/Measures
// split in metrics.go, built directly off a touchstone.Factory instead of
// through fx.Provide.
type Measures struct {
	registry         prometheus.Gatherer
	requestCount     *prometheus.CounterVec
	requestDuration  prometheus.ObserverVec
	requestsInFlight *prometheus.GaugeVec
}

// New builds a fresh touchstone factory/registry pair and registers the
// three request metrics the teacher's provideMetrics wires: a request
// counter and a duration histogram, labeled by method and status code as
// the teacher's xmetricshttp defaults do, and an in-flight gauge labeled by
// server only.
func New() (*Measures, error) {
	cfg := touchstone.Config{}
	registry, registerer, err := touchstone.New(cfg)
	if err != nil {
		return nil, err
	}
	factory := touchstone.NewFactory(cfg, nil, registerer)

	requestCount, err := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_request_count",
			Help: "total incoming HTTP requests",
		},
		"code", "method", serverLabel,
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "server_request_duration_ms",
			Help: "tracks incoming request durations in ms",
		},
		"code", "method", serverLabel,
	)
	if err != nil {
		return nil, err
	}

	requestsInFlight, err := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "server_requests_in_flight",
			Help: "tracks the current number of incoming requests being processed",
		},
		serverLabel,
	)
	if err != nil {
		return nil, err
	}

	return &Measures{
		registry:         registry,
		requestCount:     requestCount,
		requestDuration:  requestDuration,
		requestsInFlight: requestsInFlight,
	}, nil
}

// Handler serves the registered metrics at /metrics.
func (m *Measures) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the status code a downstream handler wrote, so
// Middleware can label requestCount/requestDuration after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware wraps next with the three measures above, the same
// instrumentation shape as the teacher's xmetricshttp server-side
// middleware, applied by hand since xmetricshttp itself is fx-bound.
func (m *Measures) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		labels := prometheus.Labels{serverLabel: "api"}
		m.requestsInFlight.With(labels).Inc()
		defer m.requestsInFlight.With(labels).Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsedMS := float64(time.Since(start)) / float64(time.Millisecond)

		fullLabels := prometheus.Labels{
			"code":      strconv.Itoa(rec.status),
			"method":    r.Method,
			serverLabel: "api",
		}
		m.requestCount.With(fullLabels).Inc()
		m.requestDuration.With(fullLabels).Observe(elapsedMS)
	})
}
