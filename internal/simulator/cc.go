package simulator

import (
	"context"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// ColumnChromatography implements both start_column_chromatography (long
// running) and terminate_column_chromatography (short). The two share a
// struct because they operate on the same machine and the original mock
// server pairs them in one simulator too.
type ColumnChromatography struct {
	RobotID      string
	Timing       *generator.Timing
	ImageBaseURL string
	// IntermediateInterval is the configured cc_intermediate_interval
	// (spec.md §6); it defaults to 30s when zero.
	IntermediateInterval time.Duration
	Now                  func() time.Time
}

func (c *ColumnChromatography) intermediateInterval() time.Duration {
	if c.IntermediateInterval > 0 {
		return c.IntermediateInterval
	}
	return 30 * time.Second
}

func (c *ColumnChromatography) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// SimulateStart runs phases 1-3 of start_column_chromatography. It is meant
// to be launched on its own goroutine by the dispatch pipeline for
// long-running tasks; it tolerates ctx cancellation at every suspension
// point and returns a zero Result when cancelled, which the caller must
// recognize and not publish.
func (c *ColumnChromatography) SimulateStart(ctx context.Context, taskID string, rawParams any, sim Context) protocol.Result {
	p, _ := rawParams.(protocol.StartCCParams)
	exp := p.ExperimentParams

	startTimestamp := generator.RobotTimestamp(c.now())
	machineUpdate := generator.CCSystemUpdate(p.DeviceID, protocol.DeviceUsing, &exp, startTimestamp, "")
	robotUpdate := generator.RobotUpdate(c.RobotID, p.WorkStation, protocol.RobotWorking, protocol.PostureWatchCCScreen)

	silicaID, _, _ := sim.FindEntityAt(protocol.KindSilicaCartridge, p.WorkStation)
	sampleID, _, _ := sim.FindEntityAt(protocol.KindSampleCartridge, p.WorkStation)
	rackID, _, _ := sim.FindEntityAt(protocol.KindTubeRack, p.WorkStation)

	phase1 := []protocol.EntityUpdate{machineUpdate, robotUpdate}
	if silicaID != "" {
		phase1 = append(phase1, generator.SilicaCartridgeUpdate(silicaID, p.WorkStation, protocol.ConsumableInUse, ""))
	}
	if sampleID != "" {
		phase1 = append(phase1, generator.SampleCartridgeUpdate(sampleID, p.WorkStation, protocol.ConsumableInUse, ""))
	}
	if rackID != "" {
		phase1 = append(phase1, generator.TubeRackUpdate(rackID, p.WorkStation, protocol.ToolInUse, ""))
	}
	sim.ApplyUpdates(phase1)
	if err := sim.PublishLog(ctx, 0, "column chromatography started", phase1); err != nil {
		return protocol.Result{}
	}

	if err := sim.Sleep(ctx, c.Timing.Delay(3*time.Second, 5*time.Second)); err != nil {
		return protocol.Result{}
	}

	totalDuration := c.Timing.CCDuration(exp.RunMinutes, exp.AirPurgeMinutes)
	interval := c.Timing.IntermediateInterval(c.intermediateInterval())

	elapsed := time.Duration(0)
	for elapsed < totalDuration {
		wait := interval
		if remaining := totalDuration - elapsed; remaining < wait {
			wait = remaining
		}
		if err := sim.Sleep(ctx, wait); err != nil {
			return protocol.Result{}
		}
		elapsed += wait
		sim.ApplyUpdates([]protocol.EntityUpdate{machineUpdate})
		if err := sim.PublishLog(ctx, 0, "column chromatography in progress", []protocol.EntityUpdate{machineUpdate}); err != nil {
			return protocol.Result{}
		}
	}

	finalUpdates := []protocol.EntityUpdate{machineUpdate, robotUpdate}
	return protocol.Result{Code: 200, TaskID: taskID, Updates: finalUpdates}
}

// SimulateTerminate runs terminate_column_chromatography: a single short
// delay, then the machine returns to idle and the materials used in the run
// are marked spent.
func (c *ColumnChromatography) SimulateTerminate(ctx context.Context, taskID string, rawParams any, sim Context) protocol.Result {
	p, _ := rawParams.(protocol.TerminateCCParams)

	if err := sim.Sleep(ctx, c.Timing.Delay(10*time.Second, 15*time.Second)); err != nil {
		return protocol.Result{}
	}

	silicaID, _, silicaFound := sim.FindEntityAt(protocol.KindSilicaCartridge, p.WorkStation)
	sampleID, _, sampleFound := sim.FindEntityAt(protocol.KindSampleCartridge, p.WorkStation)
	rackID, _, rackFound := sim.FindEntityAt(protocol.KindTubeRack, p.WorkStation)

	updates := []protocol.EntityUpdate{
		generator.CCSystemUpdate(p.DeviceID, protocol.DeviceIdle, nil, "", ""),
		generator.CCSExtModuleUpdate("ccs_ext_module_001", protocol.DeviceUsing, "cartridges still mounted"),
	}
	if silicaFound {
		updates = append(updates, generator.SilicaCartridgeUpdate(silicaID, p.WorkStation, protocol.ConsumableUsed, "used"))
	}
	if sampleFound {
		updates = append(updates, generator.SampleCartridgeUpdate(sampleID, p.WorkStation, protocol.ConsumableUsed, "used"))
	}
	if rackFound {
		updates = append(updates, generator.TubeRackUpdate(rackID, p.WorkStation, protocol.ToolContaminated, "used"))
	}

	images := generator.CapturedImages(c.ImageBaseURL, p.WorkStation, p.DeviceID, p.DeviceType, []string{"screen"}, c.now())
	return protocol.Result{Code: 200, TaskID: taskID, Updates: updates, Images: images}
}
