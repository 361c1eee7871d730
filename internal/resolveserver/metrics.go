// SPDX-License-Identifier: MPL-2.0

package resolveserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a resolve request, used as the "result" label.
const (
	resultHit       = "hit"
	resultMiss      = "miss"
	resultLoadError = "load_error"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	entries  prometheus.GaugeFunc
}

func newMetrics(table func() int) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refbridge_resolve_requests_total",
				Help: "Number of module resolution requests by result.",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "refbridge_resolve_duration_seconds",
				Help:    "Time taken to resolve and optionally load a module.",
				Buckets: prometheus.DefBuckets,
			},
		),
		entries: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "refbridge_resolution_table_entries",
				Help: "Number of entries in the resolution table.",
			},
			func() float64 { return float64(table()) },
		),
	}
	m.registry.MustRegister(m.requests, m.duration, m.entries)
	return m
}
