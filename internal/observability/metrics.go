// internal/observability/metrics.go
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "retention"

// Metrics groups the service collectors. A nil *Metrics records nothing so
// components can run without a registry in tests.
type Metrics struct {
	// Labels: method, route, status
	HTTPRequestsTotal *prometheus.CounterVec
	// Labels: method, route
	HTTPRequestDuration *prometheus.HistogramVec

	// Labels: agency
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	// Labels: agency, result (success, error)
	CacheLoadsTotal *prometheus.CounterVec
	// Labels: agency
	RowsLoaded *prometheus.GaugeVec

	FilterDuration prometheus.Histogram

	// Labels: op
	ViewCommandsTotal *prometheus.CounterVec
	ActiveSockets     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheHitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Agency cache hits",
		}, []string{"agency"}),
		CacheMissesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Agency cache misses",
		}, []string{"agency"}),
		CacheLoadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "loads_total",
			Help:      "Agency record loads by result",
		}, []string{"agency", "result"}),
		RowsLoaded: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "rows",
			Help:      "Records held for each agency",
		}, []string{"agency"}),
		FilterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "filter",
			Name:      "duration_seconds",
			Help:      "Time spent applying filters to a record store",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		ViewCommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "view",
			Name:      "commands_total",
			Help:      "View commands applied by op",
		}, []string{"op"}),
		ActiveSockets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "view",
			Name:      "active_sockets",
			Help:      "Open live view connections",
		}),
	}
}

func (m *Metrics) CacheHit(agency string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(agency).Inc()
}

func (m *Metrics) CacheMiss(agency string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(agency).Inc()
}

// CacheLoad records a load attempt and, on success, the resulting row count.
func (m *Metrics) CacheLoad(agency string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.CacheLoadsTotal.WithLabelValues(agency, "error").Inc()
		return
	}
	m.CacheLoadsTotal.WithLabelValues(agency, "success").Inc()
	m.RowsLoaded.WithLabelValues(agency).Set(float64(rows))
}

func (m *Metrics) ObserveFilter(d time.Duration) {
	if m == nil {
		return
	}
	m.FilterDuration.Observe(d.Seconds())
}

func (m *Metrics) ViewCommand(op string) {
	if m == nil {
		return
	}
	m.ViewCommandsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) SocketOpened() {
	if m == nil {
		return
	}
	m.ActiveSockets.Inc()
}

func (m *Metrics) SocketClosed() {
	if m == nil {
		return
	}
	m.ActiveSockets.Dec()
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
