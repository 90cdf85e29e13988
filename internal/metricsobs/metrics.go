// Package metricsobs implements the Prometheus metrics this runtime
// exposes, covering the graph/task/port domain.
package metricsobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts messages successfully handed off on one send
	// port.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elementio_messages_total",
			Help: "Total number of messages produced on a send port",
		},
		[]string{"task", "port"},
	)

	// MessagesDroppedTotal counts messages freed because a send was
	// abandoned (shutdown) or a port had zero listeners.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elementio_messages_dropped_total",
			Help: "Total number of messages freed without reaching a consumer",
		},
		[]string{"task", "port", "reason"},
	)

	// NextDurationSeconds measures one Instance.Next call's latency.
	NextDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elementio_next_duration_seconds",
			Help:    "Latency of one element Next() step",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20),
		},
		[]string{"task", "element"},
	)

	// TaskStatus tracks each task's lifecycle state as a gauge (0=running,
	// 1=closed, 2=errored).
	TaskStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "elementio_task_status",
			Help: "Current status of a running task (0=running, 1=closed, 2=errored)",
		},
		[]string{"task", "element"},
	)

	// PluginLoadsTotal counts plugin-directory load attempts by outcome.
	PluginLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elementio_plugin_loads_total",
			Help: "Total number of plugin load attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// TaskStatusValue mirrors TaskStatus's gauge values.
const (
	TaskStatusRunning = 0
	TaskStatusClosed  = 1
	TaskStatusErrored = 2
)
