package simulator

import (
	"context"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/generator"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// Photo implements take_photo: delay scales with component count, one
// CapturedImage per component, and — when the named device is known to the
// world model — a re-emission of its current state so the result carries a
// fresh snapshot alongside the images.
type Photo struct {
	Timing       *generator.Timing
	ImageBaseURL string
	Now          func() time.Time
}

// Simulate takes zero or more photos, one per named component. An empty
// components list is a valid boundary case: it still delays, still mutates
// device state, and still returns a 200 result, but produces zero images
// (spec.md §8's "take_photo with empty components" boundary).
func (p *Photo) Simulate(ctx context.Context, taskID string, rawParams any, sim Context) protocol.Result {
	params, _ := rawParams.(protocol.TakePhotoParams)
	components := []string(params.Components)

	sim.ApplyUpdates([]protocol.EntityUpdate{
		deviceStateUpdate(sim, params.DeviceType, params.DeviceID, protocol.DeviceUsing),
	})

	n := float64(len(components))
	if err := sim.Sleep(ctx, p.Timing.Delay(time.Duration(2.0*n*float64(time.Second)), time.Duration(5.0*n*float64(time.Second)))); err != nil {
		return protocol.Result{}
	}

	for _, component := range components {
		_ = sim.PublishLog(ctx, 0, "photo taken for "+component, nil)
	}

	images := generator.CapturedImages(p.ImageBaseURL, params.WorkStation, params.DeviceID, params.DeviceType, components, p.now())

	updates := []protocol.EntityUpdate{
		deviceCurrentStateUpdate(sim, params.DeviceType, params.DeviceID, params.WorkStation),
	}
	return protocol.Result{Code: 200, TaskID: taskID, Updates: updates, Images: images}
}

func (p *Photo) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// deviceStateUpdate builds an EntityUpdate forcing deviceID to state,
// resolving deviceType through the alias table.
func deviceStateUpdate(sim Context, deviceType, deviceID string, state protocol.DeviceState) protocol.EntityUpdate {
	kind := protocol.DeviceTypeAliasKind(deviceType)
	return protocol.EntityUpdate{Kind: kind, ID: deviceID, Properties: map[string]any{"state": string(state)}}
}

// deviceCurrentStateUpdate re-emits the device's current tracked state by
// looking it up at workStation, or falls back to idle if the device is
// unknown to the world model — the silent-fallback behavior the original
// photo simulator uses for unrecognized devices.
func deviceCurrentStateUpdate(sim Context, deviceType, deviceID, workStation string) protocol.EntityUpdate {
	kind := protocol.DeviceTypeAliasKind(deviceType)
	_, props, found := sim.FindEntityAt(kind, workStation)
	if !found {
		return protocol.EntityUpdate{Kind: kind, ID: deviceID, Properties: map[string]any{"state": string(protocol.DeviceIdle)}}
	}
	return protocol.EntityUpdate{Kind: kind, ID: deviceID, Properties: props}
}
