// Package metrics exposes Prometheus metrics for pipeline runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/co2stats/internal/core"
)

// Metrics provides observability for dataset loads and request handling.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Pipeline stage latencies and volumes by stage name
	StageDuration *prometheus.HistogramVec
	StageRecords  *prometheus.CounterVec
	StageErrors   *prometheus.CounterVec

	// Shape of the dataset currently served
	Countries prometheus.Gauge
	MinYear   prometheus.Gauge
	MaxYear   prometheus.Gauge

	// HTTP requests by route pattern
	RequestDuration *prometheus.HistogramVec
	Requests        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var _ core.StageObserver = (*Metrics)(nil)

// New creates the metrics and registers them with reg. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "co2stats_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}), // stage: "read", "normalize", "continents", "annotate", "registry"

		StageRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "co2stats_stage_records_total",
			Help: "Records processed by pipeline stage",
		}, []string{"stage"}),

		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "co2stats_stage_errors_total",
			Help: "Failed pipeline stages by stage and error code",
		}, []string{"stage", "code"}),

		Countries: f.NewGauge(prometheus.GaugeOpts{
			Name: "co2stats_dataset_countries",
			Help: "Number of country aggregates in the served dataset",
		}),
		MinYear: f.NewGauge(prometheus.GaugeOpts{
			Name: "co2stats_dataset_min_year",
			Help: "Earliest year recorded in the served dataset",
		}),
		MaxYear: f.NewGauge(prometheus.GaugeOpts{
			Name: "co2stats_dataset_max_year",
			Help: "Latest year recorded in the served dataset",
		}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "co2stats_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "co2stats_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		gatherer: reg,
	}
}

// ObserveStage records one pipeline stage outcome.
func (m *Metrics) ObserveStage(stage string, records int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.StageRecords.WithLabelValues(stage).Add(float64(records))
	if err != nil {
		m.StageErrors.WithLabelValues(stage, core.MapError(err).Code).Inc()
	}
}

// SetDataset publishes the shape of the dataset being served.
func (m *Metrics) SetDataset(ds *core.Dataset) {
	if m == nil || ds == nil {
		return
	}
	m.Countries.Set(float64(ds.Registry.Len()))
	if y, ok := ds.Registry.Years().Min(); ok {
		m.MinYear.Set(float64(y))
	}
	if y, ok := ds.Registry.Years().Max(); ok {
		m.MaxYear.Set(float64(y))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request duration and status by chi route pattern, so
// /api/countries/RUS and /api/countries/QAT share one series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
