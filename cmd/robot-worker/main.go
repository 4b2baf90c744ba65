package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bic-labs/mock-robot-worker/internal/config"
	"github.com/bic-labs/mock-robot-worker/internal/dashboard"
	"github.com/bic-labs/mock-robot-worker/internal/dispatch"
	"github.com/bic-labs/mock-robot-worker/internal/eventbus"
	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/heartbeat"
	"github.com/bic-labs/mock-robot-worker/internal/mq"
	"github.com/bic-labs/mock-robot-worker/internal/precondition"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
	"github.com/bic-labs/mock-robot-worker/internal/scenario"
	"github.com/bic-labs/mock-robot-worker/internal/simulator"
	"github.com/bic-labs/mock-robot-worker/internal/worldmodel"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	world := worldmodel.New()
	checker := precondition.New(world)

	overrides, err := compileOverrides(cfg.Behavior.Overrides)
	if err != nil {
		logger.Error("failed to compile scenario overrides", "error", err)
		os.Exit(1)
	}

	defaultOutcome, err := parseDefaultScenario(cfg.Behavior.DefaultScenario)
	if err != nil {
		logger.Error("invalid default_scenario", "error", err)
		os.Exit(1)
	}
	selector := scenario.New(scenario.Settings{
		DefaultScenario: defaultOutcome,
		FailureRate:     cfg.Behavior.FailureRate,
		TimeoutRate:     cfg.Behavior.TimeoutRate,
	}, rand.New(rand.NewSource(randomSeed())), overrides)

	timing := generator.NewTiming(cfg.Behavior.BaseDelayMultiplier, cfg.Behavior.MinDelay, nil)
	registry := buildRegistry(cfg.Robot.ID, timing, cfg.Behavior.ImageBaseURL, cfg.Behavior.CCIntermediateInterval, cfg.Behavior.EvaporationIntermediateInterval)

	bus := eventbus.New()

	amqpURL := fmt.Sprintf("amqp://%s:%s@%s:%d%s", cfg.Broker.User, cfg.Broker.Password, cfg.Broker.Host, cfg.Broker.Port, cfg.Broker.VHost)
	conn, err := mq.Dial(amqpURL, cfg.Broker.Exchange, logger)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	publisher, err := mq.NewPublisher(conn, logger)
	if err != nil {
		logger.Error("failed to open publisher channel", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	results := mq.NewResultPublisher(publisher, cfg.Robot.ID)
	logs := mq.NewLogPublisher(publisher, cfg.Robot.ID)
	heartbeats := mq.NewHeartbeatPublisher(publisher, cfg.Robot.ID)

	consumer, err := mq.NewConsumer(conn, cfg.Robot.ID, cfg.Broker.PrefetchCount)
	if err != nil {
		logger.Error("failed to declare command queue", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	pipeline := dispatch.New(world, checker, registry, selector, results, logs, logger, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Deliveries()
	if err != nil {
		logger.Error("failed to start consuming", "error", err)
		os.Exit(1)
	}
	go consumeLoop(ctx, deliveries, pipeline, logger)

	emitter := heartbeat.New(cfg.Robot.ID, cfg.Behavior.HeartbeatInterval, world, heartbeats, bus, logger)
	go emitter.Run(ctx)

	if cfg.Dashboard.Enabled {
		srv := dashboard.New(world, bus, logger)
		go serveDashboard(cfg.Dashboard.Addr, srv.Handler(), logger)
	}

	logger.Info("mock robot worker started", "robot_id", cfg.Robot.ID, "exchange", cfg.Broker.Exchange)
	waitForShutdown(logger, cancel, pipeline)
}

// buildRegistry wires one simulator per task_type. start_column_chromatography
// and terminate_column_chromatography share a struct; every other task_type
// gets its own.
func buildRegistry(robotID string, timing *generator.Timing, imageBaseURL string, ccInterval, reInterval time.Duration) simulator.Registry {
	setupCartridges := &simulator.SetupCartridges{RobotID: robotID, Timing: timing}
	setupTubeRack := &simulator.SetupTubeRack{RobotID: robotID, Timing: timing}
	photo := &simulator.Photo{Timing: timing, ImageBaseURL: imageBaseURL}
	cc := &simulator.ColumnChromatography{RobotID: robotID, Timing: timing, ImageBaseURL: imageBaseURL, IntermediateInterval: ccInterval}
	fractions := &simulator.CollectFractions{RobotID: robotID, Timing: timing}
	evaporation := &simulator.Evaporation{RobotID: robotID, Timing: timing, IntermediateInterval: reInterval}

	return simulator.Registry{
		protocol.TaskSetupCartridges:  setupCartridges.Simulate,
		protocol.TaskSetupTubeRack:    setupTubeRack.Simulate,
		protocol.TaskTakePhoto:        photo.Simulate,
		protocol.TaskStartCC:          cc.SimulateStart,
		protocol.TaskTerminateCC:      cc.SimulateTerminate,
		protocol.TaskCollectFractions: fractions.Simulate,
		protocol.TaskStartEvaporation: evaporation.Simulate,
	}
}

func randomSeed() int64 {
	return time.Now().UnixNano()
}

// defaultScenarioOutcomes maps the config vocabulary (spec.md §6:
// `default_scenario ∈ {success, failure, timeout}`) onto the scenario
// package's Outcome vocabulary, which instead names the observable effect
// (`vanish`/`fail`/`success`) rather than the operator's intent.
var defaultScenarioOutcomes = map[string]scenario.Outcome{
	"success": scenario.Success,
	"failure": scenario.Fail,
	"timeout": scenario.Vanish,
}

// parseDefaultScenario translates the configured default_scenario string
// into its Outcome. An empty string defaults to success; anything else
// outside the closed vocabulary is a configuration error.
func parseDefaultScenario(s string) (scenario.Outcome, error) {
	if s == "" {
		return scenario.Success, nil
	}
	outcome, ok := defaultScenarioOutcomes[s]
	if !ok {
		return "", fmt.Errorf("default_scenario must be one of success, failure, timeout; got %q", s)
	}
	return outcome, nil
}

// compileOverrides translates config.Override entries into a compiled
// scenario.OverrideSet. A nil/empty config.Overrides yields a nil set,
// which scenario.Selector treats as "no overrides configured".
func compileOverrides(cfgOverrides []config.Override) (*scenario.OverrideSet, error) {
	if len(cfgOverrides) == 0 {
		return nil, nil
	}
	overrides := make([]scenario.Override, 0, len(cfgOverrides))
	for _, o := range cfgOverrides {
		overrides = append(overrides, scenario.Override{
			TaskType: protocol.TaskType(o.TaskType),
			Rule:     o.Rule,
			Outcome:  scenario.Outcome(o.Outcome),
		})
	}
	return scenario.Compile(overrides)
}

func consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery, pipeline *dispatch.Pipeline, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("delivery channel closed")
				return
			}
			pipeline.Handle(ctx, d.Body)
			if err := d.Ack(false); err != nil {
				logger.Error("failed to ack delivery", "error", err)
			}
		}
	}
}

func serveDashboard(addr string, handler http.Handler, logger *slog.Logger) {
	logger.Info("dashboard listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("dashboard server stopped", "error", err)
	}
}

func waitForShutdown(logger *slog.Logger, cancel context.CancelFunc, pipeline *dispatch.Pipeline) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("received shutdown signal, draining in-flight tasks")
	cancel()
	pipeline.Wait()
	logger.Info("mock robot worker stopped")
}
