// Package dispatch wires the protocol, scenario, precondition, simulator and
// world-model packages into the command pipeline spec.md §4.6 describes: one
// command in, at most one result out, with the world model updated strictly
// before that result is published.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/eventbus"
	"github.com/bic-labs/mock-robot-worker/internal/metrics"
	"github.com/bic-labs/mock-robot-worker/internal/precondition"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
	"github.com/bic-labs/mock-robot-worker/internal/scenario"
	"github.com/bic-labs/mock-robot-worker/internal/simulator"
	"github.com/bic-labs/mock-robot-worker/internal/util"
	"github.com/bic-labs/mock-robot-worker/internal/worldmodel"
)

// resultPublisher is the narrow interface Pipeline needs from
// mq.ResultPublisher, kept separate so tests can supply a fake without a
// live broker.
type resultPublisher interface {
	Publish(ctx context.Context, result protocol.Result) error
}

// logPublisher is the narrow interface simContext needs from
// mq.LogPublisher.
type logPublisher interface {
	Publish(ctx context.Context, entry protocol.LogEntry) error
}

// Pipeline is the single entry point a consumer hands raw delivery bodies
// to. It never blocks the caller on a long-running simulator: Handle returns
// as soon as a short task finishes or a long-running task has been handed
// off to its own goroutine, so the caller can ack the delivery immediately.
type Pipeline struct {
	world    *worldmodel.World
	checker  *precondition.Checker
	registry simulator.Registry
	selector *scenario.Selector
	results  resultPublisher
	logs     logPublisher
	logger   *slog.Logger
	bus      *eventbus.Bus
	inFlight sync.WaitGroup
}

// New builds a Pipeline. registry need not contain an entry for every
// protocol.TaskType; a missing entry is a valid runtime condition (reply
// 1000), not a construction error. bus may be nil: it only feeds the
// dashboard's side-channel view, never the ordered result/log path.
func New(
	world *worldmodel.World,
	checker *precondition.Checker,
	registry simulator.Registry,
	selector *scenario.Selector,
	results resultPublisher,
	logs logPublisher,
	logger *slog.Logger,
	bus *eventbus.Bus,
) *Pipeline {
	return &Pipeline{
		world:    world,
		checker:  checker,
		registry: registry,
		selector: selector,
		results:  results,
		logs:     logs,
		logger:   logger.With("component", "dispatch"),
		bus:      bus,
	}
}

func (p *Pipeline) announce(e eventbus.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}

// Handle runs one delivery body through every pipeline stage. It never
// returns an error: every failure mode it recognizes produces a Result on
// the result channel instead, per spec.md's closed set of failure codes.
func (p *Pipeline) Handle(ctx context.Context, body []byte) {
	traceID := util.NewTraceID()
	ctx = util.ContextWithTraceID(ctx, traceID)
	logger := p.logger.With("trace_id", traceID)

	var cmd protocol.Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		logger.Error("malformed command envelope", "error", err)
		p.publishResult(ctx, protocol.Result{Code: 1001, Msg: err.Error(), Updates: []protocol.EntityUpdate{}})
		return
	}
	logger = logger.With("task_id", cmd.TaskID, "task_type", cmd.TaskType)
	p.announce(eventbus.Event{Type: eventbus.CommandReceived, TaskID: cmd.TaskID, TaskType: string(cmd.TaskType)})

	if cmd.TaskType == protocol.TaskResetState {
		p.world.Reset()
		logger.Info("world state reset")
		p.announce(eventbus.Event{Type: eventbus.WorldUpdated})
		p.publishResult(ctx, protocol.Result{Code: 200, TaskID: cmd.TaskID, Updates: []protocol.EntityUpdate{}})
		return
	}

	switch outcome := p.selector.Select(cmd.TaskType, cmd.Params); outcome {
	case scenario.Vanish:
		logger.Info("scenario drew vanish, dropping command")
		metrics.CommandsProcessedTotal.WithLabelValues(string(cmd.TaskType), "vanish").Inc()
		p.announce(eventbus.Event{Type: eventbus.CommandVanished, TaskID: cmd.TaskID, TaskType: string(cmd.TaskType)})
		return
	case scenario.Fail:
		result := p.selector.FailureResult(cmd.TaskID, cmd.TaskType)
		logger.Info("scenario drew fail", "code", result.Code, "msg", result.Msg)
		metrics.CommandsProcessedTotal.WithLabelValues(string(cmd.TaskType), "fail").Inc()
		p.announce(eventbus.Event{Type: eventbus.CommandFailed, TaskID: cmd.TaskID, TaskType: string(cmd.TaskType), Code: result.Code, Msg: result.Msg})
		p.publishResult(ctx, result)
		return
	case scenario.Success:
		// fall through to normal dispatch below.
	default:
		logger.Error("scenario selector returned an unrecognized outcome, refusing command", "outcome", outcome)
		p.publishResult(ctx, protocol.Result{Code: 1002, Msg: fmt.Sprintf("unrecognized scenario outcome %q", outcome), TaskID: cmd.TaskID, Updates: []protocol.EntityUpdate{}})
		return
	}

	// Registry membership is checked ahead of param parsing, per spec.md
	// §4.2: an unrecognized task_type short-circuits with 1000 before the
	// checker ever runs, rather than failing parse with a 1001.
	simulate, ok := p.registry[cmd.TaskType]
	if !ok {
		logger.Warn("no simulator registered for task_type")
		p.publishResult(ctx, protocol.Result{
			Code:    1000,
			Msg:     fmt.Sprintf("no simulator registered for task_type %s", cmd.TaskType),
			TaskID:  cmd.TaskID,
			Updates: []protocol.EntityUpdate{},
		})
		return
	}

	params, err := protocol.ParseParams(cmd.TaskType, cmd.Params)
	if err != nil {
		logger.Warn("params did not match task_type", "error", err)
		p.publishResult(ctx, protocol.Result{Code: 1001, Msg: err.Error(), TaskID: cmd.TaskID, Updates: []protocol.EntityUpdate{}})
		return
	}

	if refusal := p.checker.Check(cmd.TaskType, params); refusal.Code != 0 {
		logger.Info("precondition refused command", "code", refusal.Code, "msg", refusal.Msg)
		metrics.CommandsProcessedTotal.WithLabelValues(string(cmd.TaskType), "refused").Inc()
		p.announce(eventbus.Event{Type: eventbus.CommandFailed, TaskID: cmd.TaskID, TaskType: string(cmd.TaskType), Code: refusal.Code, Msg: refusal.Msg})
		p.publishResult(ctx, protocol.Result{Code: refusal.Code, Msg: refusal.Msg, TaskID: cmd.TaskID, Updates: []protocol.EntityUpdate{}})
		return
	}

	if cmd.TaskType.LongRunning() {
		metrics.CommandsInFlight.Inc()
		p.inFlight.Add(1)
		go func() {
			defer p.inFlight.Done()
			defer metrics.CommandsInFlight.Dec()
			p.run(ctx, cmd.TaskID, cmd.TaskType, params, simulate, logger)
		}()
		return
	}

	// Short tasks run synchronously on the consumer goroutine, but still
	// register with inFlight so Wait() (spec.md:138's "wait for in-flight
	// short simulators to finish") does not return while one is executing.
	p.inFlight.Add(1)
	defer p.inFlight.Done()
	p.run(ctx, cmd.TaskID, cmd.TaskType, params, simulate, logger)
}

// run executes simulate to completion, applies its final updates, and
// publishes its result, in that order (spec.md §4.6 stage 8). A cancelled
// long-running simulator returns a zero-value Result; run recognizes that
// and publishes nothing, leaving the world model exactly as the simulator's
// own intermediate log updates left it.
func (p *Pipeline) run(ctx context.Context, taskID string, taskType protocol.TaskType, params any, simulate simulator.Func, logger *slog.Logger) {
	start := time.Now()
	result := p.safeSimulate(ctx, taskID, params, simulate)
	metrics.SimulatorDuration.WithLabelValues(string(taskType)).Observe(time.Since(start).Seconds())

	if result.TaskID == "" {
		logger.Info("simulator produced no result, likely cancelled")
		return
	}

	p.world.ApplyUpdates(result.Updates)
	if len(result.Updates) > 0 {
		p.announce(eventbus.Event{Type: eventbus.WorldUpdated})
	}

	outcome := "success"
	eventType := eventbus.CommandSucceeded
	if !result.IsSuccess() {
		outcome = "fail"
		eventType = eventbus.CommandFailed
	}
	metrics.CommandsProcessedTotal.WithLabelValues(string(taskType), outcome).Inc()
	p.announce(eventbus.Event{Type: eventType, TaskID: taskID, TaskType: string(taskType), Code: result.Code, Msg: result.Msg})

	p.publishResult(ctx, result)
}

// safeSimulate guards against a panicking simulator: spec.md requires an
// unhandled exception to surface as a 1002 result with the world model
// untouched, rather than taking the whole worker down.
func (p *Pipeline) safeSimulate(ctx context.Context, taskID string, params any, simulate simulator.Func) (result protocol.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = protocol.Result{Code: 1002, Msg: fmt.Sprintf("%v", r), TaskID: taskID, Updates: []protocol.EntityUpdate{}}
		}
	}()
	sim := &simContext{taskID: taskID, world: p.world, logPub: p.logs, logger: p.logger}
	return simulate(ctx, taskID, params, sim)
}

// publishResult publishes result, retrying once on failure before giving up
// and logging, per spec.md §7's broker-error propagation policy for the
// result channel (unlike log-channel publishes, which are not retried).
func (p *Pipeline) publishResult(ctx context.Context, result protocol.Result) {
	err := p.results.Publish(ctx, result)
	if err == nil {
		return
	}
	p.logger.Warn("failed to publish result, retrying once", "error", err, "task_id", result.TaskID)
	if err := p.results.Publish(ctx, result); err != nil {
		p.logger.Error("failed to publish result after retry", "error", err, "task_id", result.TaskID)
	}
}

// Wait blocks until every simulator the pipeline has started, short or
// long-running, has finished, for use during graceful shutdown.
func (p *Pipeline) Wait() {
	p.inFlight.Wait()
}
