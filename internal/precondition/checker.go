// Package precondition evaluates per-task rules against the world model
// before a simulator is allowed to run.
package precondition

import (
	"fmt"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
	"github.com/bic-labs/mock-robot-worker/internal/worldmodel"
)

// Refusal is the structured outcome of a failed rule. A zero-value Refusal
// (Code == 0) means the rule passed.
type Refusal struct {
	Code int
	Msg  string
}

func (r Refusal) ok() bool { return r.Code == 0 }

// Ok is the always-passing refusal.
var Ok = Refusal{}

func refuse(code int, format string, args ...any) Refusal {
	return Refusal{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Checker evaluates the fixed rule set in spec §4.2, read-only against w.
type Checker struct {
	w *worldmodel.World
}

func New(w *worldmodel.World) *Checker {
	return &Checker{w: w}
}

// Check dispatches to the rule matching taskType. params must already be the
// parsed variant protocol.ParseParams returns for that task type.
func (c *Checker) Check(taskType protocol.TaskType, params any) Refusal {
	switch taskType {
	case protocol.TaskSetupCartridges:
		p, _ := params.(protocol.SetupCartridgesParams)
		return c.checkSetupCartridges(p)
	case protocol.TaskSetupTubeRack:
		p, _ := params.(protocol.SetupTubeRackParams)
		return c.checkSetupTubeRack(p)
	case protocol.TaskStartCC:
		p, _ := params.(protocol.StartCCParams)
		return c.checkStartCC(p)
	case protocol.TaskTerminateCC:
		p, _ := params.(protocol.TerminateCCParams)
		return c.checkTerminateCC(p)
	case protocol.TaskCollectFractions:
		p, _ := params.(protocol.CollectFractionsParams)
		return c.checkCollectFractions(p)
	case protocol.TaskStartEvaporation:
		p, _ := params.(protocol.StartEvaporationParams)
		return c.checkStartEvaporation(p)
	case protocol.TaskTakePhoto:
		p, _ := params.(protocol.TakePhotoParams)
		return c.checkTakePhoto(p)
	default:
		return refuse(1000, "no precondition rule registered for task_type %s", taskType)
	}
}

// checkSetupCartridges refuses 2001 when the CCS ext module is already
// using cartridges present at the target workstation.
func (c *Checker) checkSetupCartridges(p protocol.SetupCartridgesParams) Refusal {
	id, props, found := c.w.FindByLocation(protocol.KindCCSExtModule, p.WorkStation)
	if !found {
		return Ok
	}
	state, _ := props["state"].(string)
	if state == string(protocol.DeviceUsing) {
		return refuse(2001, "ccs ext module %s already using cartridges at %s", id, p.WorkStation)
	}
	return Ok
}

// checkSetupTubeRack refuses 2002 when a tube rack is already at the target
// workstation.
func (c *Checker) checkSetupTubeRack(p protocol.SetupTubeRackParams) Refusal {
	if id, _, found := c.w.FindByLocation(protocol.KindTubeRack, p.WorkStation); found {
		return refuse(2002, "tube rack %s already located at %s", id, p.WorkStation)
	}
	return Ok
}

// checkStartCC refuses 2020..2023: the machine must be idle, both cartridge
// kinds and a tube rack must be present at the workstation and inuse.
func (c *Checker) checkStartCC(p protocol.StartCCParams) Refusal {
	if props, ok := c.w.Get(protocol.KindColumnChromMachine, p.DeviceID); ok {
		if state, _ := props["state"].(string); state != string(protocol.DeviceIdle) {
			return refuse(2020, "chromatography machine %s not idle (state=%s)", p.DeviceID, state)
		}
	}
	if !entityInUseAt(c.w, protocol.KindSilicaCartridge, p.WorkStation) {
		return refuse(2021, "no silica cartridge inuse at %s", p.WorkStation)
	}
	if !entityInUseAt(c.w, protocol.KindSampleCartridge, p.WorkStation) {
		return refuse(2022, "no sample cartridge inuse at %s", p.WorkStation)
	}
	if !entityInUseAt(c.w, protocol.KindTubeRack, p.WorkStation) {
		return refuse(2023, "no tube rack inuse at %s", p.WorkStation)
	}
	return Ok
}

func entityInUseAt(w *worldmodel.World, kind protocol.EntityKind, workstation string) bool {
	_, props, found := w.FindByLocation(kind, workstation)
	if !found {
		return false
	}
	state, _ := props["state"].(string)
	return state == string(protocol.ConsumableInUse) || state == string(protocol.ToolInUse)
}

// checkTerminateCC refuses 2030..2031 when the machine is not using.
func (c *Checker) checkTerminateCC(p protocol.TerminateCCParams) Refusal {
	props, ok := c.w.Get(protocol.KindColumnChromMachine, p.DeviceID)
	if !ok {
		return refuse(2030, "chromatography machine %s not tracked", p.DeviceID)
	}
	if state, _ := props["state"].(string); state != string(protocol.DeviceUsing) {
		return refuse(2031, "chromatography machine %s not using (state=%s)", p.DeviceID, state)
	}
	return Ok
}

// checkCollectFractions refuses 2040..2041: the machine must be idle
// (terminated) and the tube rack must be contaminated.
func (c *Checker) checkCollectFractions(p protocol.CollectFractionsParams) Refusal {
	if props, ok := c.w.Get(protocol.KindColumnChromMachine, p.DeviceID); ok {
		if state, _ := props["state"].(string); state != string(protocol.DeviceIdle) {
			return refuse(2040, "chromatography machine %s not idle (state=%s)", p.DeviceID, state)
		}
	}
	if _, props, found := c.w.FindByLocation(protocol.KindTubeRack, p.WorkStation); found {
		if state, _ := props["state"].(string); state != string(protocol.ToolContaminated) {
			return refuse(2041, "tube rack at %s not contaminated (state=%s)", p.WorkStation, state)
		}
	} else {
		return refuse(2041, "no tube rack tracked at %s", p.WorkStation)
	}
	return Ok
}

// checkStartEvaporation refuses 2050 unless the robot is holding a flask:
// a round_bottom_flask located at the workstation with content state fill.
func (c *Checker) checkStartEvaporation(p protocol.StartEvaporationParams) Refusal {
	_, props, found := c.w.FindByLocation(protocol.KindRoundBottomFlask, p.WorkStation)
	if !found {
		return refuse(2050, "no round bottom flask at %s", p.WorkStation)
	}
	contentState, _ := props["content_state"].(string)
	if contentState != string(protocol.ContentFill) {
		return refuse(2050, "round bottom flask at %s not filled (content_state=%s)", p.WorkStation, contentState)
	}
	return Ok
}

// checkTakePhoto refuses 2060 when the named device does not exist.
func (c *Checker) checkTakePhoto(p protocol.TakePhotoParams) Refusal {
	kind := protocol.DeviceTypeAliasKind(p.DeviceType)
	if _, ok := c.w.Get(kind, p.DeviceID); !ok {
		return refuse(2060, "device %s (%s) not tracked", p.DeviceID, p.DeviceType)
	}
	return Ok
}
