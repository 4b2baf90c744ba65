package scenario

import (
	"math/rand"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// failureMessages holds a curated pool of realistic messages per task, so a
// failed command doesn't always report the same canned string.
var failureMessages = map[protocol.TaskType][]string{
	protocol.TaskSetupCartridges: {
		"gripper malfunction during cartridge pickup",
		"cartridge not detected at expected storage position",
		"silica cartridge alignment failure at work station mount point",
		"sample cartridge barcode scan failed, cartridge may be misplaced",
	},
	protocol.TaskSetupTubeRack: {
		"tube rack not detected at storage location",
		"gripper force sensor exceeded safe threshold during rack pickup",
		"tube rack alignment failure at work station",
	},
	protocol.TaskTakePhoto: {
		"camera focus failure, image quality below threshold",
		"navigation to photo position failed, path obstructed",
		"device screen not detected at expected position",
	},
	protocol.TaskStartCC: {
		"column chromatography system not responding to start command",
		"pressure sensor reading abnormal before start, safety check failed",
		"solvent level insufficient for configured run duration",
		"system equilibration timeout exceeded",
	},
	protocol.TaskTerminateCC: {
		"cc system did not acknowledge terminate command within timeout",
		"emergency stop triggered during termination sequence",
		"result screen capture failed during termination",
	},
	protocol.TaskCollectFractions: {
		"round bottom flask not detected at consolidation station",
		"tube extraction failure at position, tube may be stuck",
		"flask overflow sensor triggered during consolidation",
	},
	protocol.TaskStartEvaporation: {
		"evaporator vacuum pump failed to reach target pressure",
		"water bath temperature sensor malfunction",
		"flask rotation motor stalled during ramp-up",
		"safety interlock triggered, evaporator lid not properly sealed",
	},
}

// errorCodeBase gives each task a 10-wide failure-code band, assigned
// contiguously from 1010 so every task owns one with no gaps.
var errorCodeBase = map[protocol.TaskType]int{
	protocol.TaskSetupCartridges:  1010,
	protocol.TaskSetupTubeRack:    1020,
	protocol.TaskTakePhoto:        1030,
	protocol.TaskStartCC:          1040,
	protocol.TaskTerminateCC:      1050,
	protocol.TaskCollectFractions: 1060,
	protocol.TaskStartEvaporation: 1070,
}

const unknownTaskFailureBase = 1090

// RandomFailure draws a uniformly-selected (code, message) pair from
// taskType's failure band.
func RandomFailure(rng *rand.Rand, taskType protocol.TaskType) (int, string) {
	messages, ok := failureMessages[taskType]
	if !ok || len(messages) == 0 {
		return unknownTaskFailureBase, "unknown task failure"
	}
	msg := messages[rng.Intn(len(messages))]
	base := errorCodeBase[taskType]
	return base + rng.Intn(10), msg
}
