package simulator

import (
	"context"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

const defaultTubeRackID = "tube_rack_001"

// SetupCartridges implements setup_tubes_to_column_machine: robot moves to
// the workstation and mounts both cartridge kinds and the ext module in a
// single phase.
type SetupCartridges struct {
	RobotID string
	Timing  *generator.Timing
}

func (s *SetupCartridges) Simulate(ctx context.Context, taskID string, rawParams any, sim Context) protocol.Result {
	p, _ := rawParams.(protocol.SetupCartridgesParams)

	robotUpdate := generator.RobotUpdate(s.RobotID, p.WorkStation, protocol.RobotWorking, protocol.PostureWaitForScreen)
	sim.ApplyUpdates([]protocol.EntityUpdate{robotUpdate})

	if err := sim.Sleep(ctx, s.Timing.Delay(2*time.Second, 5*time.Second)); err != nil {
		return protocol.Result{}
	}

	sampleID := p.SampleCartridgeID
	if sampleID == "" {
		sampleID = "sample_cartridge_001"
	}
	updates := []protocol.EntityUpdate{
		generator.SilicaCartridgeUpdate("silica_cartridge_001", p.WorkStation, protocol.ConsumableInUse, ""),
		generator.SampleCartridgeUpdate(sampleID, p.WorkStation, protocol.ConsumableInUse, ""),
		generator.CCSExtModuleUpdate("ccs_ext_module_001", protocol.DeviceUsing, ""),
		generator.RobotUpdate(s.RobotID, p.WorkStation, protocol.RobotIdle, ""),
	}
	return protocol.Result{Code: 200, TaskID: taskID, Updates: updates}
}

// SetupTubeRack implements setup_tube_rack: resolve the target rack by
// workstation lookup or the default id, then mount it.
type SetupTubeRack struct {
	RobotID string
	Timing  *generator.Timing
}

func (s *SetupTubeRack) Simulate(ctx context.Context, taskID string, rawParams any, sim Context) protocol.Result {
	p, _ := rawParams.(protocol.SetupTubeRackParams)

	rackID, _, found := sim.FindEntityAt(protocol.KindTubeRack, p.WorkStation)
	if !found {
		rackID = defaultTubeRackID
	}

	sim.ApplyUpdates([]protocol.EntityUpdate{
		generator.RobotUpdate(s.RobotID, p.WorkStation, protocol.RobotWorking, protocol.PostureWaitForScreen),
	})

	if err := sim.Sleep(ctx, s.Timing.Delay(2*time.Second, 4*time.Second)); err != nil {
		return protocol.Result{}
	}

	updates := []protocol.EntityUpdate{
		generator.TubeRackUpdate(rackID, p.WorkStation, protocol.ToolInUse, "mounted"),
		generator.RobotUpdate(s.RobotID, p.WorkStation, protocol.RobotIdle, ""),
	}
	return protocol.Result{Code: 200, TaskID: taskID, Updates: updates}
}
