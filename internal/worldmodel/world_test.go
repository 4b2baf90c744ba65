package worldmodel

import (
	"testing"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

func TestUpsertMergesWithoutDeletingFields(t *testing.T) {
	w := New()
	w.Upsert(protocol.KindRobot, "talos.001", map[string]any{
		"location": "bench-1",
		"state":    string(protocol.RobotIdle),
	})
	w.Upsert(protocol.KindRobot, "talos.001", map[string]any{
		"state": string(protocol.RobotWorking),
	})

	props, ok := w.Get(protocol.KindRobot, "talos.001")
	if !ok {
		t.Fatalf("expected entity to exist")
	}
	if props["location"] != "bench-1" {
		t.Errorf("expected location to survive merge, got %v", props["location"])
	}
	if props["state"] != string(protocol.RobotWorking) {
		t.Errorf("expected state to be updated, got %v", props["state"])
	}
}

func TestGetReturnsCopyNotAlias(t *testing.T) {
	w := New()
	w.Upsert(protocol.KindRobot, "talos.001", map[string]any{"state": "idle"})
	props, _ := w.Get(protocol.KindRobot, "talos.001")
	props["state"] = "tampered"

	again, _ := w.Get(protocol.KindRobot, "talos.001")
	if again["state"] != "idle" {
		t.Errorf("mutating a returned snapshot must not affect the store, got %v", again["state"])
	}
}

func TestApplyUpdatesIsAtomicOverTheBatch(t *testing.T) {
	w := New()
	w.ApplyUpdates([]protocol.EntityUpdate{
		{Kind: protocol.KindSilicaCartridge, ID: "sc-1", Properties: map[string]any{"location": "bench-1", "state": "unused"}},
		{Kind: protocol.KindTubeRack, ID: "tr-1", Properties: map[string]any{"location": "bench-1", "state": "available"}},
	})

	if _, ok := w.Get(protocol.KindSilicaCartridge, "sc-1"); !ok {
		t.Fatal("expected silica cartridge to exist")
	}
	if _, ok := w.Get(protocol.KindTubeRack, "tr-1"); !ok {
		t.Fatal("expected tube rack to exist")
	}
}

func TestFindByLocationMatchesOnlyTheRequestedKind(t *testing.T) {
	w := New()
	w.Upsert(protocol.KindSilicaCartridge, "sc-1", map[string]any{"location": "bench-1"})
	w.Upsert(protocol.KindTubeRack, "tr-1", map[string]any{"location": "bench-1"})

	id, _, found := w.FindByLocation(protocol.KindTubeRack, "bench-1")
	if !found || id != "tr-1" {
		t.Fatalf("expected to find tr-1, got id=%q found=%v", id, found)
	}

	_, _, found = w.FindByLocation(protocol.KindRoundBottomFlask, "bench-1")
	if found {
		t.Fatalf("expected no round bottom flask at bench-1")
	}
}

func TestSnapshotRobotStateDefaultsToDisconnected(t *testing.T) {
	w := New()
	if got := w.SnapshotRobotState("talos.001"); got != protocol.RobotDisconnected {
		t.Errorf("expected disconnected for unknown robot, got %v", got)
	}

	w.Upsert(protocol.KindRobot, "talos.001", map[string]any{"state": string(protocol.RobotCharging)})
	if got := w.SnapshotRobotState("talos.001"); got != protocol.RobotCharging {
		t.Errorf("expected charging, got %v", got)
	}
}

func TestSnapshotListsEveryTrackedEntity(t *testing.T) {
	w := New()
	w.Upsert(protocol.KindRobot, "talos.001", map[string]any{"state": "idle"})
	w.Upsert(protocol.KindTubeRack, "tr-1", map[string]any{"location": "bench-1"})

	snapshot := w.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 entities in snapshot, got %d", len(snapshot))
	}
}

func TestResetEmptiesTheStore(t *testing.T) {
	w := New()
	w.Upsert(protocol.KindRobot, "talos.001", map[string]any{"state": "idle"})
	w.Reset()

	if _, ok := w.Get(protocol.KindRobot, "talos.001"); ok {
		t.Fatal("expected store to be empty after reset")
	}
}
