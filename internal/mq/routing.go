package mq

import (
	"context"
	"fmt"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// RobotQueue is the durable queue name a robot's commands are consumed
// from.
func RobotQueue(robotID string) string { return robotID + ".cmd" }

// ResultRoutingKey, LogRoutingKey and HeartbeatRoutingKey are the three
// outbound routing keys a robot publishes on.
func ResultRoutingKey(robotID string) string    { return robotID + ".result" }
func LogRoutingKey(robotID string) string       { return robotID + ".log" }
func HeartbeatRoutingKey(robotID string) string { return robotID + ".hb" }

// CommandRoutingKey is the inbound routing key commands arrive on.
func CommandRoutingKey(robotID string) string { return robotID + ".cmd" }

// ResultPublisher publishes to {robot_id}.result with persistent delivery.
type ResultPublisher struct {
	pub     *Publisher
	robotID string
}

func NewResultPublisher(pub *Publisher, robotID string) *ResultPublisher {
	return &ResultPublisher{pub: pub, robotID: robotID}
}

func (r *ResultPublisher) Publish(ctx context.Context, result protocol.Result) error {
	if err := r.pub.PublishJSON(ctx, ResultRoutingKey(r.robotID), result, true); err != nil {
		return fmt.Errorf("publishing result for task %s: %w", result.TaskID, err)
	}
	return nil
}

// LogPublisher publishes to {robot_id}.log with persistent delivery.
type LogPublisher struct {
	pub     *Publisher
	robotID string
}

func NewLogPublisher(pub *Publisher, robotID string) *LogPublisher {
	return &LogPublisher{pub: pub, robotID: robotID}
}

func (l *LogPublisher) Publish(ctx context.Context, entry protocol.LogEntry) error {
	if err := l.pub.PublishJSON(ctx, LogRoutingKey(l.robotID), entry, true); err != nil {
		return fmt.Errorf("publishing log for task %s: %w", entry.TaskID, err)
	}
	return nil
}

// HeartbeatPublisher publishes to {robot_id}.hb with persistent delivery,
// matching spec.md §4.8 ("all three use persistent delivery mode").
type HeartbeatPublisher struct {
	pub     *Publisher
	robotID string
}

func NewHeartbeatPublisher(pub *Publisher, robotID string) *HeartbeatPublisher {
	return &HeartbeatPublisher{pub: pub, robotID: robotID}
}

func (h *HeartbeatPublisher) Publish(ctx context.Context, hb protocol.Heartbeat) error {
	if err := h.pub.PublishJSON(ctx, HeartbeatRoutingKey(h.robotID), hb, true); err != nil {
		return fmt.Errorf("publishing heartbeat: %w", err)
	}
	return nil
}
