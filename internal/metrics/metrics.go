package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK         = "ok"
	OutcomeBadStatus  = "bad_status"
	OutcomeParseError = "parse_error"
	OutcomeTransport  = "transport_error"
)

// Metrics хранит счётчики загрузок лент в собственном реестре.
type Metrics struct {
	Registry *prometheus.Registry
	Fetches  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// New создаёт и регистрирует метрики.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feeds_fetch_total",
			Help: "Number of feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feeds_fetch_duration_seconds",
			Help:    "Duration of feed fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"feed"}),
	}
	m.Registry.MustRegister(m.Fetches, m.Duration)
	return m
}

// Observe фиксирует одну загрузку. Безопасен для nil.
func (m *Metrics) Observe(feed, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(feed, outcome).Inc()
	m.Duration.WithLabelValues(feed).Observe(d.Seconds())
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
