package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
	"github.com/bic-labs/mock-robot-worker/internal/simulator"
	"github.com/bic-labs/mock-robot-worker/internal/worldmodel"
)

// simContext is the simulator.Context every simulator runs against. It is
// the only seam between a simulator and the world model or the broker.
type simContext struct {
	taskID string
	world  *worldmodel.World
	logPub logPublisher
	logger *slog.Logger
}

// PublishLog sends one intermediate progress message. Per spec.md §7, a
// broker error on the log channel is non-fatal: it is logged and the
// simulator keeps running, since the next log message or the final result
// will still carry the state. Only context cancellation is propagated, so a
// shutting-down pipeline can still stop a long-running simulator cleanly.
func (c *simContext) PublishLog(ctx context.Context, code int, msg string, updates []protocol.EntityUpdate) error {
	if updates == nil {
		updates = []protocol.EntityUpdate{}
	}
	err := c.logPub.Publish(ctx, protocol.LogEntry{
		Code:      code,
		Msg:       msg,
		TaskID:    c.taskID,
		Updates:   updates,
		Timestamp: generator.RobotTimestamp(time.Now()),
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.logger != nil {
		c.logger.Error("failed to publish log entry", "error", err, "task_id", c.taskID)
	}
	return nil
}

func (c *simContext) ApplyUpdates(updates []protocol.EntityUpdate) {
	c.world.ApplyUpdates(updates)
}

func (c *simContext) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *simContext) FindEntityAt(kind protocol.EntityKind, workstation string) (string, map[string]any, bool) {
	return c.world.FindByLocation(kind, workstation)
}

var _ simulator.Context = (*simContext)(nil)
