// Package metrics provides Prometheus metrics collectors for the hub.
package metrics

import (
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "chatrelay"
	subsystem = "hub"
)

var (
	instanceLabel string
	once          sync.Once
)

// GetInstanceLabel returns the instance label (pod name or hostname),
// resolved once per process.
func GetInstanceLabel() string {
	once.Do(func() {
		instanceLabel = os.Getenv("POD_NAME")
		if instanceLabel == "" {
			instanceLabel = os.Getenv("HOSTNAME")
		}
		if instanceLabel == "" {
			if hostname, err := os.Hostname(); err == nil {
				instanceLabel = hostname
			} else {
				instanceLabel = "unknown"
			}
		}
	})
	return instanceLabel
}

// HubMetrics holds Prometheus collectors for the realtime hub.
type HubMetrics struct {
	OnlineUsers       prometheus.Gauge
	SendQueueDepth    *prometheus.GaugeVec
	MessagesRouted    *prometheus.CounterVec
	MessagesDropped   *prometheus.CounterVec
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge

	instance string
}

var globalMetrics *HubMetrics

// NewHubMetrics creates and registers the hub's metrics.
func NewHubMetrics() *HubMetrics {
	instance := GetInstanceLabel()

	m := &HubMetrics{
		instance: instance,

		OnlineUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "online_users",
			Help:      "Number of users with at least one live connection",
		}),

		SendQueueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "send_queue_depth",
			Help:      "Depth of a connection's outbound queue at last send",
		}, []string{"instance"}),

		MessagesRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_routed_total",
			Help:      "Total envelopes delivered to a connection's outbound queue, by type",
		}, []string{"instance", "type"}),

		MessagesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_dropped_total",
			Help:      "Total envelopes dropped because the target was offline or its queue was full",
		}, []string{"instance", "reason"}),

		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connections_total",
			Help:      "Total WebSocket connections registered",
		}),

		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connections_active",
			Help:      "Currently registered WebSocket connections",
		}),
	}

	globalMetrics = m
	return m
}

// GetMetrics returns the global metrics instance, creating it if needed.
func GetMetrics() *HubMetrics {
	if globalMetrics == nil {
		return NewHubMetrics()
	}
	return globalMetrics
}

// RecordRouted increments the routed counter for a frame type.
func (m *HubMetrics) RecordRouted(frameType string) {
	m.MessagesRouted.WithLabelValues(m.instance, frameType).Inc()
}

// RecordDropped increments the dropped counter for a drop reason
// ("offline" or "queue-full").
func (m *HubMetrics) RecordDropped(reason string) {
	m.MessagesDropped.WithLabelValues(m.instance, reason).Inc()
}

// SetOnlineUsers sets the online-users gauge directly.
func (m *HubMetrics) SetOnlineUsers(count float64) {
	m.OnlineUsers.Set(count)
}

// ObserveQueueDepth records the outbound queue depth at the moment of a send.
func (m *HubMetrics) ObserveQueueDepth(depth float64) {
	m.SendQueueDepth.WithLabelValues(m.instance).Set(depth)
}

// ConnectionRegistered records a new registered connection.
func (m *HubMetrics) ConnectionRegistered() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// ConnectionUnregistered records a connection leaving the registry.
func (m *HubMetrics) ConnectionUnregistered() {
	m.ConnectionsActive.Dec()
}
