package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "golkala"

// Metrics is the set of collectors a catalog run updates. A nil *Metrics is
// valid and records nothing, so tests and library callers may skip it.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ItemsScrapedTotal prometheus.Counter
	PagesTotal        *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics registers the run's collectors on a private registry, which the
// CLI exposes through -metrics-addr.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "page_requests_total",
			Help:      "Catalog page GETs, split into started, completed and failed.",
		}, []string{"phase"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "page_request_seconds",
			Help:      "Time from sending a catalog page GET to reading its body.",
			Buckets:   prometheus.DefBuckets,
		}),
		ItemsScrapedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "products_extracted_total",
			Help:      "Product cards turned into catalog rows.",
		}),
		PagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pages_walked_total",
			Help:      "Catalog pages the walker handled: ok, empty, duplicate or fetch_failed.",
		}, []string{"outcome"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_errors_total",
			Help:      "Failed catalog page GETs by failure kind.",
		}, []string{"error_type"}),
	}

	m.Registry.MustRegister(m.RequestsTotal, m.RequestDuration, m.ItemsScrapedTotal, m.PagesTotal, m.ErrorsTotal)
	return m
}

func (m *Metrics) IncRequest(phase string) {
	if m != nil {
		m.RequestsTotal.WithLabelValues(phase).Inc()
	}
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.RequestDuration.Observe(d.Seconds())
	}
}

// AddItems counts n rows taken from one page.
func (m *Metrics) AddItems(n int) {
	if m != nil {
		m.ItemsScrapedTotal.Add(float64(n))
	}
}

func (m *Metrics) IncPage(outcome string) {
	if m != nil {
		m.PagesTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncError(errorType string) {
	if m != nil {
		m.ErrorsTotal.WithLabelValues(errorType).Inc()
	}
}
