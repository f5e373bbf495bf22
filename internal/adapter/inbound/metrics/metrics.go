// Package metrics holds the proxy's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set holds every metric the proxy records. Pass it to components that need
// to observe connection and forwarding activity.
type Set struct {
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  *prometheus.CounterVec
	BytesForwarded    *prometheus.CounterVec
	DialFailuresTotal *prometheus.CounterVec
	UpgradesTotal     prometheus.Counter
	ConnectionErrors  *prometheus.CounterVec
}

// NewSet creates and registers every metric with reg.
func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		ActiveConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "hostgate",
			Name:      "active_connections",
			Help:      "Number of currently proxied connections.",
		}),
		ConnectionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostgate",
			Name:      "connections_total",
			Help:      "Total number of accepted client connections, by host.",
		}, []string{"host"}),
		BytesForwarded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostgate",
			Name:      "bytes_forwarded_total",
			Help:      "Total bytes relayed, by direction.",
		}, []string{"direction"}), // direction=client_to_backend/backend_to_client
		DialFailuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostgate",
			Name:      "dial_failures_total",
			Help:      "Total backend dial failures, by endpoint kind.",
		}, []string{"kind"}),
		UpgradesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "hostgate",
			Name:      "upgrades_total",
			Help:      "Total connections that switched to opaque protocol framing.",
		}),
		ConnectionErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostgate",
			Name:      "connection_errors_total",
			Help:      "Total connection-level errors, by stage.",
		}, []string{"stage"}), // stage=read/parse/route/dial
	}
}
