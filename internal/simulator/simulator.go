// Package simulator implements the per-task behavior spec.md describes:
// what entity updates a task produces, on what delay, and what its final
// Result looks like.
package simulator

import (
	"context"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// Context is everything a simulator is allowed to touch. Simulators never
// reach into the world model or the broker directly, and they sleep only
// through this seam, so dispatch can inject fakes in tests and
// enforce the apply-then-publish ordering invariant in one place.
type Context interface {
	// PublishLog sends one intermediate progress message on the task's log
	// channel. It does not touch the world model; callers that also want
	// the update visible there must also pass it to ApplyUpdates, or fold
	// it into the simulator's final Result.updates.
	PublishLog(ctx context.Context, code int, msg string, updates []protocol.EntityUpdate) error

	// ApplyUpdates merges updates into the world model immediately. Used by
	// long-running simulators for their own intermediate progress; the
	// final Result.updates are applied by the dispatch pipeline itself,
	// never by the simulator.
	ApplyUpdates(updates []protocol.EntityUpdate)

	// Sleep pauses for d or until ctx is cancelled, whichever comes first.
	// It returns ctx.Err() on cancellation so long-running simulators can
	// stop cleanly without publishing a final result.
	Sleep(ctx context.Context, d time.Duration) error

	// FindEntityAt resolves a material's id by scanning the world model for
	// the first entity of kind located at workstation.
	FindEntityAt(kind protocol.EntityKind, workstation string) (id string, properties map[string]any, found bool)
}

// Func implements simulate(task_id, params, ctx) -> Result for exactly one
// parameter type, matching the closed tagged-variant dispatch the rest of
// the protocol uses. Registries key one Func per task_type rather than
// grouping them behind a shared interface, since several tasks (start and
// terminate CC) are implemented by methods on the same struct.
type Func func(ctx context.Context, taskID string, params any, sim Context) protocol.Result

// Registry maps task_type to the Func that implements it.
type Registry map[protocol.TaskType]Func
