// Package metrics exposes the Prometheus series the dashboard's /metrics
// endpoint serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsInFlight tracks long-running simulators currently executing
	// concurrently with further command intake.
	CommandsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mock_robot_commands_in_flight",
		Help: "The number of long-running simulators currently executing",
	})

	// CommandsProcessedTotal counts terminal outcomes by task_type and
	// outcome (success/fail/vanish, or refused for a precondition refusal).
	CommandsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mock_robot_commands_processed_total",
		Help: "The total number of commands processed, by task type and outcome",
	}, []string{"task_type", "outcome"})

	// SimulatorDuration tracks wall-clock time spent inside a simulator,
	// by task type.
	SimulatorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mock_robot_simulator_duration_seconds",
		Help:    "Time spent inside a simulator",
		Buckets: prometheus.DefBuckets,
	}, []string{"task_type"})

	// HeartbeatsPublishedTotal counts heartbeat publishes, separating
	// successes from publish errors the loop survived.
	HeartbeatsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mock_robot_heartbeats_published_total",
		Help: "The total number of heartbeat publish attempts",
	}, []string{"status"})
)
