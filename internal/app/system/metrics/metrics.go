// Package metrics exposes Prometheus instrumentation for reference-data
// mutations and the HTTP API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	reg *prometheus.Registry

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Requests          *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "refhub_refdata_operations_total",
			Help: "Reference-data mutations by kind, operation and outcome",
		}, []string{"kind", "op", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refhub_refdata_operation_duration_seconds",
			Help:    "Duration of reference-data mutations including the document round trip",
			Buckets: durationBuckets,
		}, []string{"kind", "op"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "refhub_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method",
			Buckets: durationBuckets,
		}, []string{"route", "method"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Observe implements refdata.Observer.
func (m *Metrics) Observe(_ context.Context, ev refdata.Event) {
	m.Operations.WithLabelValues(ev.Kind, ev.Op, ev.Outcome).Inc()
	m.OperationDuration.WithLabelValues(ev.Kind, ev.Op).Observe(ev.Duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. Routes are labelled with
// their chi pattern so that ids do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
		m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
