// Package heartbeat emits the robot's periodic liveness signal independent
// of command traffic.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/eventbus"
	"github.com/bic-labs/mock-robot-worker/internal/metrics"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// publisher is the narrow interface Emitter needs, mirroring
// mq.HeartbeatPublisher without depending on it directly.
type publisher interface {
	Publish(ctx context.Context, hb protocol.Heartbeat) error
}

// stateSource reports the robot's current state on demand.
type stateSource interface {
	SnapshotRobotState(robotID string) protocol.RobotState
}

// Emitter runs the fixed-interval loop spec.md §4.7 describes: on every
// tick, read the robot's current state and publish it, surviving publish
// errors rather than stopping the loop.
type Emitter struct {
	robotID  string
	interval time.Duration
	world    stateSource
	pub      publisher
	bus      *eventbus.Bus
	logger   *slog.Logger
}

// New builds an Emitter. interval must be positive; callers pass the
// configured heartbeat interval, defaulting to 2s upstream. bus may be nil:
// it only feeds the dashboard's side-channel view, never the broker publish.
func New(robotID string, interval time.Duration, world stateSource, pub publisher, bus *eventbus.Bus, logger *slog.Logger) *Emitter {
	return &Emitter{
		robotID:  robotID,
		interval: interval,
		world:    world,
		pub:      pub,
		bus:      bus,
		logger:   logger.With("component", "heartbeat"),
	}
}

// Run blocks, ticking every interval, until ctx is cancelled.
func (e *Emitter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("heartbeat loop stopping")
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Emitter) tick(ctx context.Context) {
	state := e.world.SnapshotRobotState(e.robotID)
	hb := protocol.Heartbeat{
		RobotID:   e.robotID,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		State:     state,
	}
	if err := e.pub.Publish(ctx, hb); err != nil {
		e.logger.Error("failed to publish heartbeat", "error", err)
		metrics.HeartbeatsPublishedTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.HeartbeatsPublishedTotal.WithLabelValues("ok").Inc()
	if e.bus != nil {
		e.bus.Publish(eventbus.Event{Type: eventbus.HeartbeatSent, TaskID: e.robotID})
	}
}
