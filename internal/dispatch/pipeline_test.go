package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/eventbus"
	"github.com/bic-labs/mock-robot-worker/internal/precondition"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
	"github.com/bic-labs/mock-robot-worker/internal/scenario"
	"github.com/bic-labs/mock-robot-worker/internal/simulator"
	"github.com/bic-labs/mock-robot-worker/internal/worldmodel"
)

type fakePublisher struct {
	mu      sync.Mutex
	results []protocol.Result
}

func (f *fakePublisher) Publish(ctx context.Context, result protocol.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *fakePublisher) all() []protocol.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Result, len(f.results))
	copy(out, f.results)
	return out
}

type fakeLogPublisher struct{}

func (fakeLogPublisher) Publish(ctx context.Context, entry protocol.LogEntry) error { return nil }

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, settings scenario.Settings, registry simulator.Registry) (*Pipeline, *fakePublisher, *worldmodel.World) {
	t.Helper()
	world := worldmodel.New()
	checker := precondition.New(world)
	selector := scenario.New(settings, rand.New(rand.NewSource(1)), nil)
	results := &fakePublisher{}
	p := New(world, checker, registry, selector, results, fakeLogPublisher{}, noopLogger(), nil)
	return p, results, world
}

// seedStartCCMaterials mounts the silica cartridge, sample cartridge and tube
// rack that start_column_chromatography's precondition requires at ws.
func seedStartCCMaterials(world *worldmodel.World, ws string) {
	world.Upsert(protocol.KindSilicaCartridge, "sc-1", map[string]any{"location": ws, "state": string(protocol.ConsumableInUse)})
	world.Upsert(protocol.KindSampleCartridge, "sp-1", map[string]any{"location": ws, "state": string(protocol.ConsumableInUse)})
	world.Upsert(protocol.KindTubeRack, "tr-1", map[string]any{"location": ws, "state": string(protocol.ToolInUse)})
}

func TestResetStateBypassesEverythingAndClearsWorld(t *testing.T) {
	p, results, world := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{})
	world.Upsert(protocol.KindRobot, "robot-1", map[string]any{"state": "working"})

	body, _ := json.Marshal(protocol.Command{TaskID: "r-1", TaskType: protocol.TaskResetState})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 || got[0].Code != 200 || got[0].TaskID != "r-1" {
		t.Fatalf("expected a single 200 result for r-1, got %+v", got)
	}
	if props, ok := world.Get(protocol.KindRobot, "robot-1"); ok {
		t.Fatalf("expected world to be cleared by reset_state, found %+v", props)
	}
}

func TestMalformedEnvelopeRepliesWith1001(t *testing.T) {
	p, results, _ := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{})
	p.Handle(context.Background(), []byte(`not json`))

	got := results.all()
	if len(got) != 1 || got[0].Code != 1001 {
		t.Fatalf("expected a 1001 result, got %+v", got)
	}
}

func TestVanishScenarioPublishesNothing(t *testing.T) {
	p, results, _ := newPipeline(t, scenario.Settings{TimeoutRate: 1.0}, simulator.Registry{})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskTakePhoto, Params: json.RawMessage(`{}`)})
	p.Handle(context.Background(), body)

	if got := results.all(); len(got) != 0 {
		t.Fatalf("expected no result published on vanish, got %+v", got)
	}
}

func TestFailScenarioPublishesFailureFromTaskBand(t *testing.T) {
	p, results, _ := newPipeline(t, scenario.Settings{FailureRate: 1.0}, simulator.Registry{})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskSetupTubeRack, Params: json.RawMessage(`{}`)})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 {
		t.Fatalf("expected exactly one result, got %+v", got)
	}
	if got[0].Code < 1020 || got[0].Code >= 1030 {
		t.Fatalf("expected code in setup_tube_rack's band, got %d", got[0].Code)
	}
}

func TestUnparseableParamsReplyWith1001(t *testing.T) {
	p, results, _ := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{
		protocol.TaskTakePhoto: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			t.Fatal("simulator should not run when params fail to parse")
			return protocol.Result{}
		},
	})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskTakePhoto, Params: json.RawMessage(`{"components": 5}`)})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 || got[0].Code != 1001 {
		t.Fatalf("expected a 1001 result, got %+v", got)
	}
}

func TestMissingSimulatorRepliesWith1000(t *testing.T) {
	p, results, _ := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskTakePhoto, Params: json.RawMessage(`{"device_id":"dev-1","device_type":"combiflash","work_station":"ws-1"}`)})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 || got[0].Code != 1000 {
		t.Fatalf("expected a 1000 result, got %+v", got)
	}
}

func TestUnrecognizedTaskTypeRepliesWith1000BeforeParsingParams(t *testing.T) {
	p, results, _ := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{
		protocol.TaskTakePhoto: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			t.Fatal("simulator should not run for a task_type outside the registry")
			return protocol.Result{}
		},
	})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskType("levitate_robot"), Params: json.RawMessage(`{"anything":"goes"}`)})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 || got[0].Code != 1000 {
		t.Fatalf("expected a 1000 result for an unrecognized task_type, got %+v", got)
	}
	if got[0].Updates == nil || len(got[0].Updates) != 0 {
		t.Fatalf("expected an empty, non-nil updates slice, got %+v", got[0].Updates)
	}
}

func TestPreconditionRefusalPublishesItsCodeAndLeavesWorldUntouched(t *testing.T) {
	p, results, world := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{
		protocol.TaskTakePhoto: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			t.Fatal("simulator should not run when a precondition is refused")
			return protocol.Result{}
		},
	})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskTakePhoto, Params: json.RawMessage(`{"device_id":"missing-device","device_type":"combiflash","work_station":"ws-1"}`)})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 || got[0].Code != 2060 {
		t.Fatalf("expected a 2060 refusal, got %+v", got)
	}
	if _, ok := world.Get(protocol.KindColumnChromMachine, "missing-device"); ok {
		t.Fatal("expected world to remain untouched on refusal")
	}
}

func TestSuccessfulShortTaskAppliesUpdatesBeforePublishingResult(t *testing.T) {
	p, results, world := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{
		protocol.TaskSetupTubeRack: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			return protocol.Result{
				Code:   200,
				TaskID: taskID,
				Updates: []protocol.EntityUpdate{
					{Kind: protocol.KindTubeRack, ID: "tube_rack_001", Properties: map[string]any{"location": "ws-1"}},
				},
			}
		},
	})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskSetupTubeRack, Params: json.RawMessage(`{"work_station":"ws-1"}`)})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 || got[0].Code != 200 {
		t.Fatalf("expected a 200 result, got %+v", got)
	}
	props, ok := world.Get(protocol.KindTubeRack, "tube_rack_001")
	if !ok || props["location"] != "ws-1" {
		t.Fatalf("expected the final updates to already be merged, got %+v ok=%v", props, ok)
	}
}

func TestPanickingSimulatorProduces1002AndLeavesWorldUntouched(t *testing.T) {
	p, results, world := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{
		protocol.TaskSetupTubeRack: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			panic("simulated device fault")
		},
	})
	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskSetupTubeRack, Params: json.RawMessage(`{"work_station":"ws-1"}`)})
	p.Handle(context.Background(), body)

	got := results.all()
	if len(got) != 1 || got[0].Code != 1002 {
		t.Fatalf("expected a 1002 result, got %+v", got)
	}
	if _, ok := world.Get(protocol.KindTubeRack, "tube_rack_001"); ok {
		t.Fatal("expected world to remain untouched after a panic")
	}
}

func TestLongRunningTaskReturnsImmediatelyAndPublishesLater(t *testing.T) {
	release := make(chan struct{})
	p, results, world := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{
		protocol.TaskStartCC: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			<-release
			return protocol.Result{Code: 200, TaskID: taskID}
		},
	})
	seedStartCCMaterials(world, "ws-1")

	body, _ := json.Marshal(protocol.Command{
		TaskID:   "t-1",
		TaskType: protocol.TaskStartCC,
		Params:   json.RawMessage(`{"work_station":"ws-1","device_id":"dev-1","device_type":"combiflash","experiment_params":{}}`),
	})

	done := make(chan struct{})
	go func() {
		p.Handle(context.Background(), body)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Handle should return immediately for a long-running task")
	}

	if got := results.all(); len(got) != 0 {
		t.Fatalf("expected no result yet, got %+v", got)
	}

	close(release)
	p.Wait()

	if got := results.all(); len(got) != 1 || got[0].Code != 200 {
		t.Fatalf("expected one 200 result after release, got %+v", got)
	}
}

func TestBusAnnouncesCommandLifecycleAlongsideResultPublish(t *testing.T) {
	world := worldmodel.New()
	checker := precondition.New(world)
	selector := scenario.New(scenario.Settings{DefaultScenario: scenario.Success}, rand.New(rand.NewSource(1)), nil)
	results := &fakePublisher{}
	bus := eventbus.New()

	var mu sync.Mutex
	var seen []eventbus.Type
	record := func(e eventbus.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	}
	for _, typ := range []eventbus.Type{eventbus.CommandReceived, eventbus.CommandSucceeded, eventbus.WorldUpdated} {
		bus.Subscribe(typ, record)
	}

	p := New(world, checker, simulator.Registry{
		protocol.TaskSetupTubeRack: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			return protocol.Result{Code: 200, TaskID: taskID, Updates: []protocol.EntityUpdate{
				{Kind: protocol.KindTubeRack, ID: "tube_rack_001", Properties: map[string]any{"location": "ws-1"}},
			}}
		},
	}, selector, results, fakeLogPublisher{}, noopLogger(), bus)

	body, _ := json.Marshal(protocol.Command{TaskID: "t-1", TaskType: protocol.TaskSetupTubeRack, Params: json.RawMessage(`{"work_station":"ws-1"}`)})
	p.Handle(context.Background(), body)

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		got := len(seen)
		mu.Unlock()
		if got >= 3 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("expected 3 announced events, got %v", seen)
	}
}

func TestCancelledLongRunningSimulatorPublishesNothing(t *testing.T) {
	p, results, world := newPipeline(t, scenario.Settings{DefaultScenario: scenario.Success}, simulator.Registry{
		protocol.TaskStartCC: func(ctx context.Context, taskID string, params any, sim simulator.Context) protocol.Result {
			if err := sim.Sleep(ctx, time.Hour); err != nil {
				return protocol.Result{}
			}
			return protocol.Result{Code: 200, TaskID: taskID}
		},
	})
	seedStartCCMaterials(world, "ws-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body, _ := json.Marshal(protocol.Command{
		TaskID:   "t-1",
		TaskType: protocol.TaskStartCC,
		Params:   json.RawMessage(`{"work_station":"ws-1","device_id":"dev-1","device_type":"combiflash","experiment_params":{}}`),
	})
	p.Handle(ctx, body)
	p.Wait()

	if got := results.all(); len(got) != 0 {
		t.Fatalf("expected no result for a cancelled simulator, got %+v", got)
	}
}
