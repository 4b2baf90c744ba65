// Package protocol defines the wire contract shared with the real robot:
// message envelopes, per-task parameter shapes, entity-update variants, and
// the enumerations that describe the physical world.
package protocol

// EntityKind identifies the kind half of an entity's (kind, id) composite
// identity.
type EntityKind string

const (
	KindRobot             EntityKind = "robot"
	KindSilicaCartridge   EntityKind = "silica_cartridge"
	KindSampleCartridge   EntityKind = "sample_cartridge"
	KindTubeRack          EntityKind = "tube_rack"
	KindRoundBottomFlask  EntityKind = "round_bottom_flask"
	KindCCSExtModule      EntityKind = "ccs_ext_module"
	KindColumnChromMachine EntityKind = "column_chromatography_machine"
	KindEvaporator        EntityKind = "evaporator"
	KindPCCLeftChute      EntityKind = "pcc_left_chute"
	KindPCCRightChute     EntityKind = "pcc_right_chute"
)

// TaskType enumerates the commands the robot accepts.
type TaskType string

const (
	TaskSetupCartridges   TaskType = "setup_tubes_to_column_machine"
	TaskSetupTubeRack     TaskType = "setup_tube_rack"
	TaskTakePhoto         TaskType = "take_photo"
	TaskStartCC           TaskType = "start_column_chromatography"
	TaskTerminateCC       TaskType = "terminate_column_chromatography"
	TaskCollectFractions  TaskType = "collect_column_chromatography_fractions"
	TaskStartEvaporation  TaskType = "start_evaporation"
	TaskResetState        TaskType = "reset_state"
)

// LongRunning reports whether task_type executes concurrently with further
// command intake rather than inline.
func (t TaskType) LongRunning() bool {
	return t == TaskStartCC || t == TaskStartEvaporation
}

// RobotState is the robot's own four-value state enum.
type RobotState string

const (
	RobotIdle         RobotState = "idle"
	RobotWorking      RobotState = "working"
	RobotCharging     RobotState = "charging"
	RobotDisconnected RobotState = "disconnected"
)

// DeviceState covers the chromatography machine, evaporator, ext module and
// PCC chutes.
type DeviceState string

const (
	DeviceIdle        DeviceState = "idle"
	DeviceUsing       DeviceState = "using"
	DeviceUnavailable DeviceState = "unavailable"
)

// ConsumableState covers the silica/sample cartridges.
type ConsumableState string

const (
	ConsumableUnused ConsumableState = "unused"
	ConsumableInUse  ConsumableState = "inuse"
	ConsumableUsed   ConsumableState = "used"
)

// ToolState covers the tube rack.
type ToolState string

const (
	ToolAvailable   ToolState = "available"
	ToolInUse       ToolState = "inuse"
	ToolContaminated ToolState = "contaminated"
)

// ContainerContentState covers the round-bottom flask's content.
type ContainerContentState string

const (
	ContentEmpty ContainerContentState = "empty"
	ContentFill  ContainerContentState = "fill"
	ContentUsed  ContainerContentState = "used"
)

// ContainerLidState covers the round-bottom flask's lid.
type ContainerLidState string

const (
	LidClosed ContainerLidState = "closed"
	LidOpened ContainerLidState = "opened"
)

// SubstanceUnit enumerates the units a Substance amount may carry.
type SubstanceUnit string

const (
	UnitML SubstanceUnit = "ml"
	UnitL  SubstanceUnit = "l"
	UnitG  SubstanceUnit = "g"
	UnitKG SubstanceUnit = "kg"
	UnitMG SubstanceUnit = "mg"
)

// BinState covers the PCC chutes' waste bins.
type BinState string

const (
	BinOpen  BinState = "open"
	BinClose BinState = "close"
	BinFull  BinState = "full"
)

// RobotPosture holds the free-text descriptions the robot reports in the
// description field of a robot update while in RobotWorking. These are
// deliberately not an enum — see spec.md's open question in §9: the
// production protocol keeps posture as prose, not a closed set.
const (
	PostureWaitForScreen    = "wait_for_screen_manipulation"
	PostureWatchCCScreen    = "watch_column_machine_screen"
	PostureMovingWithFlask  = "moving_with_round_bottom_flask"
	PostureObserveEvaporation = "observe_evaporation"
)

// Substance describes a quantity of material held by a container.
type Substance struct {
	Name   string        `json:"name"`
	ZhName string        `json:"zh_name"`
	Unit   SubstanceUnit `json:"unit"`
	Amount float64       `json:"amount"`
}

// FlaskState is the round-bottom flask's structured container record.
type FlaskState struct {
	ContentState ContainerContentState  `json:"content_state"`
	HasLid       bool                   `json:"has_lid"`
	LidState     *ContainerLidState     `json:"lid_state,omitempty"`
	Substance    *Substance             `json:"substance,omitempty"`
}
