package simulator

import (
	"context"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

const (
	ambientTemperature = 25.0
	ambientPressure    = 1013.0
)

// Evaporation implements start_evaporation (long running): ambient readings
// ramp linearly toward the configured targets over the computed duration.
type Evaporation struct {
	RobotID string
	Timing  *generator.Timing
	// IntermediateInterval is the configured re_intermediate_interval
	// (spec.md §6); it defaults to 30s when zero.
	IntermediateInterval time.Duration
}

func (e *Evaporation) intermediateInterval() time.Duration {
	if e.IntermediateInterval > 0 {
		return e.IntermediateInterval
	}
	return 30 * time.Second
}

// Simulate tolerates ctx cancellation at every suspension point and returns
// a zero Result when cancelled; the caller must not publish that.
func (e *Evaporation) Simulate(ctx context.Context, taskID string, rawParams any, sim Context) protocol.Result {
	p, _ := rawParams.(protocol.StartEvaporationParams)
	start := p.Profiles.Start

	flaskID, _, flaskFound := sim.FindEntityAt(protocol.KindRoundBottomFlask, p.WorkStation)
	if !flaskFound {
		flaskID = "round_bottom_flask_001"
	}

	robotUpdate := generator.RobotUpdate(e.RobotID, p.WorkStation, protocol.RobotWorking, protocol.PostureObserveEvaporation)
	ambientReadings := generator.EvaporatorReadings{
		LowerHeight:        start.LowerHeight,
		RPM:                start.RPM,
		TargetTemperature:  start.TargetTemperature,
		CurrentTemperature: ambientTemperature,
		TargetPressure:     start.TargetPressure,
		CurrentPressure:    ambientPressure,
	}
	evaporatorUpdate := generator.EvaporatorUpdate(p.DeviceID, protocol.DeviceUsing, ambientReadings, "")
	flaskUpdate := generator.RoundBottomFlaskUpdate(flaskID, p.WorkStation, protocol.FlaskState{ContentState: protocol.ContentFill}, "evaporating")

	phase1 := []protocol.EntityUpdate{robotUpdate, evaporatorUpdate, flaskUpdate}
	sim.ApplyUpdates(phase1)
	if err := sim.PublishLog(ctx, 0, "evaporation started", phase1); err != nil {
		return protocol.Result{}
	}

	totalDuration := e.Timing.EvaporationDuration(p.Profiles)
	interval := e.Timing.IntermediateInterval(e.intermediateInterval())

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

		progress := float64(elapsed) / float64(totalDuration)
		readings := generator.EvaporatorReadings{
			LowerHeight:        start.LowerHeight,
			RPM:                start.RPM,
			TargetTemperature:  start.TargetTemperature,
			CurrentTemperature: interpolate(ambientTemperature, start.TargetTemperature, progress),
			TargetPressure:     start.TargetPressure,
			CurrentPressure:    interpolate(ambientPressure, start.TargetPressure, progress),
		}
		tick := generator.EvaporatorUpdate(p.DeviceID, protocol.DeviceUsing, readings, "")
		sim.ApplyUpdates([]protocol.EntityUpdate{tick})
		if err := sim.PublishLog(ctx, 0, "evaporation in progress", []protocol.EntityUpdate{tick}); err != nil {
			return protocol.Result{}
		}
	}

	finalReadings := generator.EvaporatorReadings{
		LowerHeight:        start.LowerHeight,
		RPM:                start.RPM,
		TargetTemperature:  start.TargetTemperature,
		CurrentTemperature: start.TargetTemperature,
		TargetPressure:     start.TargetPressure,
		CurrentPressure:    start.TargetPressure,
	}
	finalUpdates := []protocol.EntityUpdate{
		robotUpdate,
		generator.EvaporatorUpdate(p.DeviceID, protocol.DeviceUsing, finalReadings, ""),
	}
	return protocol.Result{Code: 200, TaskID: taskID, Updates: finalUpdates}
}

func interpolate(from, to, progress float64) float64 {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return from + (to-from)*progress
}
