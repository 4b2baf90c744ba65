package generator

import "github.com/bic-labs/mock-robot-worker/internal/protocol"

// RobotUpdate builds a robot location/state update.
func RobotUpdate(robotID, location string, state protocol.RobotState, description string) protocol.EntityUpdate {
	return protocol.EntityUpdate{
		Kind: protocol.KindRobot,
		ID:   robotID,
		Properties: map[string]any{
			"location":    location,
			"state":       string(state),
			"description": description,
		},
	}
}

// SilicaCartridgeUpdate builds a silica cartridge state update.
func SilicaCartridgeUpdate(id, location string, state protocol.ConsumableState, description string) protocol.EntityUpdate {
	return cartridgeUpdate(protocol.KindSilicaCartridge, id, location, state, description)
}

// SampleCartridgeUpdate builds a sample cartridge state update.
func SampleCartridgeUpdate(id, location string, state protocol.ConsumableState, description string) protocol.EntityUpdate {
	return cartridgeUpdate(protocol.KindSampleCartridge, id, location, state, description)
}

func cartridgeUpdate(kind protocol.EntityKind, id, location string, state protocol.ConsumableState, description string) protocol.EntityUpdate {
	return protocol.EntityUpdate{
		Kind: kind,
		ID:   id,
		Properties: map[string]any{
			"location":    location,
			"state":       string(state),
			"description": description,
		},
	}
}

// TubeRackUpdate builds a tube rack state update.
func TubeRackUpdate(id, location string, state protocol.ToolState, description string) protocol.EntityUpdate {
	return protocol.EntityUpdate{
		Kind: protocol.KindTubeRack,
		ID:   id,
		Properties: map[string]any{
			"location":    location,
			"state":       string(state),
			"description": description,
		},
	}
}

// RoundBottomFlaskUpdate builds a round bottom flask container update.
func RoundBottomFlaskUpdate(id, location string, flask protocol.FlaskState, description string) protocol.EntityUpdate {
	props := map[string]any{
		"location":      location,
		"description":   description,
		"content_state": string(flask.ContentState),
		"has_lid":       flask.HasLid,
	}
	if flask.LidState != nil {
		props["lid_state"] = string(*flask.LidState)
	}
	if flask.Substance != nil {
		props["substance"] = map[string]any{
			"name":    flask.Substance.Name,
			"zh_name": flask.Substance.ZhName,
			"unit":    string(flask.Substance.Unit),
			"amount":  flask.Substance.Amount,
		}
	}
	return protocol.EntityUpdate{Kind: protocol.KindRoundBottomFlask, ID: id, Properties: props}
}

// CCSExtModuleUpdate builds a CC external module state update.
func CCSExtModuleUpdate(id string, state protocol.DeviceState, description string) protocol.EntityUpdate {
	return protocol.EntityUpdate{
		Kind: protocol.KindCCSExtModule,
		ID:   id,
		Properties: map[string]any{
			"state":       string(state),
			"description": description,
		},
	}
}

// CCSystemUpdate builds a chromatography machine state update, optionally
// carrying the experiment parameters and the run's start timestamp.
func CCSystemUpdate(id string, state protocol.DeviceState, experimentParams *protocol.CCExperimentParams, startTimestamp, description string) protocol.EntityUpdate {
	props := map[string]any{
		"state":       string(state),
		"description": description,
	}
	if experimentParams != nil {
		props["experiment_params"] = experimentParams
	}
	if startTimestamp != "" {
		props["start_timestamp"] = startTimestamp
	}
	return protocol.EntityUpdate{Kind: protocol.KindColumnChromMachine, ID: id, Properties: props}
}

// EvaporatorReadings is the evaporator's sensor payload.
type EvaporatorReadings struct {
	LowerHeight        float64
	RPM                int
	TargetTemperature  float64
	CurrentTemperature float64
	TargetPressure     float64
	CurrentPressure    float64
}

// EvaporatorUpdate builds an evaporator state update with sensor readings.
func EvaporatorUpdate(id string, state protocol.DeviceState, readings EvaporatorReadings, description string) protocol.EntityUpdate {
	return protocol.EntityUpdate{
		Kind: protocol.KindEvaporator,
		ID:   id,
		Properties: map[string]any{
			"state":               string(state),
			"lower_height":        readings.LowerHeight,
			"rpm":                 readings.RPM,
			"target_temperature":  readings.TargetTemperature,
			"current_temperature": readings.CurrentTemperature,
			"target_pressure":     readings.TargetPressure,
			"current_pressure":    readings.CurrentPressure,
			"description":         description,
		},
	}
}

// WasteBin describes one PCC chute waste bin slot; a zero value renders as
// an open, empty bin, matching the original's default-open behavior.
type WasteBin struct {
	State protocol.BinState
}

func (b WasteBin) asMap() map[string]any {
	state := b.State
	if state == "" {
		state = protocol.BinOpen
	}
	return map[string]any{"state": string(state)}
}

// PCCChuteReadings is the shared payload for both PCC chutes.
type PCCChuteReadings struct {
	PulledOutMM    float64
	PulledOutRate  float64
	Closed         bool
	FrontWasteBin  *WasteBin
	BackWasteBin   *WasteBin
}

// PCCLeftChuteUpdate builds a post-CC left chute state update. When
// FrontWasteBin is nil it defaults to an open bin, matching the original's
// left-chute default.
func PCCLeftChuteUpdate(id string, state protocol.DeviceState, r PCCChuteReadings, description string) protocol.EntityUpdate {
	if r.FrontWasteBin == nil {
		r.FrontWasteBin = &WasteBin{}
	}
	return pccChuteUpdate(protocol.KindPCCLeftChute, id, state, r, description)
}

// PCCRightChuteUpdate builds a post-CC right chute state update. When
// BackWasteBin is nil it defaults to an open bin, matching the original's
// right-chute default.
func PCCRightChuteUpdate(id string, state protocol.DeviceState, r PCCChuteReadings, description string) protocol.EntityUpdate {
	if r.BackWasteBin == nil {
		r.BackWasteBin = &WasteBin{}
	}
	return pccChuteUpdate(protocol.KindPCCRightChute, id, state, r, description)
}

func pccChuteUpdate(kind protocol.EntityKind, id string, state protocol.DeviceState, r PCCChuteReadings, description string) protocol.EntityUpdate {
	props := map[string]any{
		"state":           string(state),
		"pulled_out_mm":   r.PulledOutMM,
		"pulled_out_rate": r.PulledOutRate,
		"closed":          r.Closed,
		"description":     description,
	}
	if r.FrontWasteBin != nil {
		props["front_waste_bin"] = r.FrontWasteBin.asMap()
	}
	if r.BackWasteBin != nil {
		props["back_waste_bin"] = r.BackWasteBin.asMap()
	}
	return protocol.EntityUpdate{Kind: kind, ID: id, Properties: props}
}
