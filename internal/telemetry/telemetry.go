// Package telemetry exposes the service's Prometheus instrumentation.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector for the dashboard service. Each instance
// owns its registry so tests can build them freely.
type Metrics struct {
	reg *prometheus.Registry

	RefreshTotal        prometheus.Counter
	RefreshDuration     prometheus.Histogram
	SourceFetchFailures *prometheus.CounterVec
	SourceRows          *prometheus.GaugeVec
	ConnectedSources    prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		RefreshTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of aggregation passes",
		}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of a full fetch-normalize-aggregate pass",
			Buckets:   prometheus.DefBuckets,
		}),
		SourceFetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_failures_total",
			Help:      "Fetch or normalization failures per source",
		}, []string{"source"}),
		SourceRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_rows",
			Help:      "Rows contributed by each source in the latest pass",
		}, []string{"source"}),
		ConnectedSources: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_sources",
			Help:      "Connectors that reported connected in the latest pass",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status",
		}, []string{"path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware instruments every request routed through it.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(sw.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
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
