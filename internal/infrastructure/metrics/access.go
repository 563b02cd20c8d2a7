// Package metrics exposes Prometheus instrumentation for the access
// resolution pipeline.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AccessMetrics counts access decisions by the layer that produced them.
type AccessMetrics struct {
	decisions *prometheus.CounterVec
}

// NewAccessMetrics registers the access counters on the given registerer.
// Pass prometheus.DefaultRegisterer in production.
func NewAccessMetrics(reg prometheus.Registerer) *AccessMetrics {
	m := &AccessMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "access_decisions_total",
				Help: "Access resolution decisions by layer, reason, and outcome.",
			},
			[]string{"layer", "reason", "allowed"},
		),
	}
	reg.MustRegister(m.decisions)
	return m
}

func (m *AccessMetrics) RecordDecision(layer, reason string, allowed bool) {
	m.decisions.WithLabelValues(layer, reason, strconv.FormatBool(allowed)).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
