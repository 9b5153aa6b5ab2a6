// Package metrics defines the Prometheus collectors of the query server and
// exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors.
type Metrics struct {
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   prometheus.Histogram
	QueryTermsCount prometheus.Histogram
	ItemsRanked     prometheus.Gauge
}

// New creates and registers all collectors on the given registry; a nil
// registry uses the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boqa_queries_total",
				Help: "Total ranking queries by outcome (ok, bad_request, error).",
			},
			[]string{"outcome"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "boqa_query_duration_seconds",
				Help:    "Ranking query latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		QueryTermsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "boqa_query_terms",
				Help:    "Number of terms per ranking query.",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		ItemsRanked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "boqa_items_ranked",
				Help: "Number of items in the loaded catalogue.",
			},
		),
	}
	reg.MustRegister(m.QueriesTotal, m.QueryDuration, m.QueryTermsCount, m.ItemsRanked)
	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
