// Package metrics holds the Prometheus collectors of kubecontexts. They are
// registered with the default registry and served by the rpc server on
// /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Path is where Handler is mounted.
const Path = "/metrics"

// Dispatch results.
const (
	ResultSent         = "sent"
	ResultUnregistered = "unregistered"
	ResultBuildError   = "build_error"
	ResultFireError    = "fire_error"
)

var (
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubecontexts_dispatch_total",
			Help: "Payload dispatches to subscribed channels by result.",
		},
		[]string{"channel", "result"},
	)
	Connections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kubecontexts_rpc_connections",
			Help: "Open frontend connections.",
		},
	)
	CheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kubecontexts_dashboard_check_duration_seconds",
			Help:    "Duration of a dashboard check round over every context.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	ContextsReachable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kubecontexts_contexts_reachable",
			Help: "Contexts found reachable by the last dashboard check round.",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
