package metrics

import (
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetInstanceLabel(t *testing.T) {
	once = sync.Once{}
	instanceLabel = ""

	t.Run("with POD_NAME", func(t *testing.T) {
		once = sync.Once{}
		instanceLabel = ""
		os.Setenv("POD_NAME", "test-pod-123")
		defer os.Unsetenv("POD_NAME")

		label := GetInstanceLabel()
		assert.Equal(t, "test-pod-123", label)
	})

	t.Run("with HOSTNAME", func(t *testing.T) {
		once = sync.Once{}
		instanceLabel = ""
		os.Unsetenv("POD_NAME")
		os.Setenv("HOSTNAME", "test-hostname")
		defer os.Unsetenv("HOSTNAME")

		label := GetInstanceLabel()
		assert.Equal(t, "test-hostname", label)
	})
}

// The TestHubMetrics_* tests below build collectors of the same shape as
// HubMetrics on a private registry; they do not go through HubMetrics
// itself, whose promauto collectors register on the default registry.
func TestHubMetrics_ConnectionTracking(t *testing.T) {
	registry := prometheus.NewRegistry()

	connectionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "test",
		Name:      "connections_active",
	})
	connectionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "test",
		Name:      "connections_total",
	})
	registry.MustRegister(connectionsActive, connectionsTotal)

	connectionsActive.Inc()
	connectionsTotal.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(connectionsActive))

	connectionsActive.Inc()
	connectionsTotal.Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(connectionsActive))

	connectionsActive.Dec()
	assert.Equal(t, float64(1), testutil.ToFloat64(connectionsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(connectionsTotal))
}

func TestHubMetrics_RoutedAndDropped(t *testing.T) {
	registry := prometheus.NewRegistry()

	routed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "test",
		Name:      "messages_routed_total",
	}, []string{"instance", "type"})

	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "test",
		Name:      "messages_dropped_total",
	}, []string{"instance", "reason"})

	registry.MustRegister(routed, dropped)

	instance := "test-pod"
	routed.WithLabelValues(instance, "message").Inc()
	routed.WithLabelValues(instance, "message").Inc()
	routed.WithLabelValues(instance, "typing").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(routed.WithLabelValues(instance, "message")))
	assert.Equal(t, float64(1), testutil.ToFloat64(routed.WithLabelValues(instance, "typing")))

	dropped.WithLabelValues(instance, "queue-full").Inc()
	dropped.WithLabelValues(instance, "offline").Inc()
	dropped.WithLabelValues(instance, "offline").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(dropped.WithLabelValues(instance, "queue-full")))
	assert.Equal(t, float64(2), testutil.ToFloat64(dropped.WithLabelValues(instance, "offline")))
}

func TestHubMetrics_OnlineUsersGauge(t *testing.T) {
	registry := prometheus.NewRegistry()

	onlineUsers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "test",
		Name:      "online_users",
	})
	registry.MustRegister(onlineUsers)

	onlineUsers.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(onlineUsers))

	onlineUsers.Set(1)
	assert.Equal(t, float64(1), testutil.ToFloat64(onlineUsers))
}

func TestNewHubMetrics_RegistersWithoutPanicking(t *testing.T) {
	assert.NotPanics(t, func() {
		m := NewHubMetrics()
		m.ConnectionRegistered()
		m.ConnectionUnregistered()
		m.RecordRouted("message")
		m.RecordDropped("offline")
		m.SetOnlineUsers(2)
		m.ObserveQueueDepth(10)
	})
}
