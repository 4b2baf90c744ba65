package simulator

import (
	"context"
	"testing"

	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

func TestEvaporationFinalReadingsEqualTargets(t *testing.T) {
	sim := &Evaporation{RobotID: "talos.001", Timing: generator.NewTiming(0.001, 0, nil)}
	fc := newFakeContext()
	fc.seed(protocol.KindRoundBottomFlask, "flask-1", "re-1", map[string]any{"content_state": "fill"})

	timeInSec := 60
	params := protocol.StartEvaporationParams{
		WorkStation: "re-1",
		DeviceID:    "evap-1",
		Profiles: protocol.EvaporationProfiles{
			Start: protocol.EvaporationProfile{TargetTemperature: 60, TargetPressure: 200},
			Updates: []protocol.EvaporationProfile{
				{Trigger: &protocol.EvaporationTrigger{Type: "time_from_start", TimeInSec: &timeInSec}},
			},
		},
	}

	result := sim.Simulate(context.Background(), "t-1", params, fc)

	var evapUpdate *protocol.EntityUpdate
	for i := range result.Updates {
		if result.Updates[i].Kind == protocol.KindEvaporator {
			evapUpdate = &result.Updates[i]
		}
	}
	if evapUpdate == nil {
		t.Fatal("expected an evaporator update in the final result")
	}
	if evapUpdate.Properties["current_temperature"] != 60.0 {
		t.Errorf("expected final temperature to equal target, got %v", evapUpdate.Properties["current_temperature"])
	}
	if evapUpdate.Properties["current_pressure"] != 200.0 {
		t.Errorf("expected final pressure to equal target, got %v", evapUpdate.Properties["current_pressure"])
	}
	if evapUpdate.Properties["state"] != string(protocol.DeviceUsing) {
		t.Errorf("expected evaporator to stay using, got %v", evapUpdate.Properties["state"])
	}
}

func TestEvaporationStopsOnCancellation(t *testing.T) {
	sim := &Evaporation{RobotID: "talos.001", Timing: generator.NewTiming(1.0, 0, nil)}
	fc := newFakeContext()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	timeInSec := 3600
	params := protocol.StartEvaporationParams{
		WorkStation: "re-1",
		DeviceID:    "evap-1",
		Profiles: protocol.EvaporationProfiles{
			Updates: []protocol.EvaporationProfile{
				{Trigger: &protocol.EvaporationTrigger{Type: "time_from_start", TimeInSec: &timeInSec}},
			},
		},
	}
	result := sim.Simulate(ctx, "t-2", params, fc)
	if result.TaskID != "" {
		t.Fatalf("expected zero result on cancellation, got %+v", result)
	}
}
