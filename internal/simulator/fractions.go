package simulator

import (
	"context"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// CollectFractions implements collect_column_chromatography_fractions:
// duration scales with the number of tubes collected, then the tube rack,
// a fresh round-bottom flask, and both PCC chutes are updated.
type CollectFractions struct {
	RobotID string
	Timing  *generator.Timing
}

func (c *CollectFractions) Simulate(ctx context.Context, taskID string, rawParams any, sim Context) protocol.Result {
	p, _ := rawParams.(protocol.CollectFractionsParams)

	tubesToCollect := 0
	for _, flag := range p.CollectConfig {
		if flag == 1 {
			tubesToCollect++
		}
	}
	baseDelay := time.Duration(tubesToCollect)*3*time.Second + 10*time.Second

	rackID, _, rackFound := sim.FindEntityAt(protocol.KindTubeRack, p.WorkStation)
	if !rackFound {
		rackID = defaultTubeRackID
	}

	intermediate := []protocol.EntityUpdate{
		generator.RobotUpdate(c.RobotID, p.WorkStation, protocol.RobotWorking, ""),
		generator.TubeRackUpdate(rackID, p.WorkStation, protocol.ToolContaminated, "pulled_out"),
	}
	sim.ApplyUpdates(intermediate)
	if err := sim.PublishLog(ctx, 0, "collecting fractions", intermediate); err != nil {
		return protocol.Result{}
	}

	if err := sim.Sleep(ctx, c.Timing.Delay(time.Duration(float64(baseDelay)*0.8), time.Duration(float64(baseDelay)*1.2))); err != nil {
		return protocol.Result{}
	}

	flask := protocol.FlaskState{ContentState: protocol.ContentFill}
	updates := []protocol.EntityUpdate{
		generator.RobotUpdate(c.RobotID, p.WorkStation, protocol.RobotWorking, protocol.PostureMovingWithFlask),
		generator.TubeRackUpdate(rackID, p.WorkStation, protocol.ToolContaminated, "pulled_out, ready_for_recovery"),
		generator.RoundBottomFlaskUpdate("round_bottom_flask_001", p.WorkStation, flask, ""),
		generator.PCCLeftChuteUpdate("pcc_left_chute_001", protocol.DeviceUsing, generator.PCCChuteReadings{PulledOutMM: 200.0, PulledOutRate: 0.8}, ""),
		generator.PCCRightChuteUpdate("pcc_right_chute_001", protocol.DeviceUsing, generator.PCCChuteReadings{PulledOutMM: 200.0, PulledOutRate: 0.8}, ""),
	}
	return protocol.Result{Code: 200, TaskID: taskID, Updates: updates}
}
