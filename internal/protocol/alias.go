package protocol

import "strings"

// deviceTypeAliases maps the free-text device_type strings a command may
// carry to the entity kind the world model tracks that device under. Carried
// over from the device-type alias table in the original photo simulator;
// any device_type not listed here is assumed to already be a valid
// EntityKind.
var deviceTypeAliases = map[string]EntityKind{
	"combiflash":                       KindColumnChromMachine,
	"column_chromatography":            KindColumnChromMachine,
	"column_chromatography_machine":    KindColumnChromMachine,
	"column_chromatography_system":     KindColumnChromMachine,
	"isco_combiflash_nextgen_300":      KindColumnChromMachine,
	"cc-isco-300p":                     KindColumnChromMachine,
	"evaporator":                       KindEvaporator,
	"rotary_evaporator":                KindEvaporator,
	"re-buchi-r180":                    KindEvaporator,
}

// DeviceTypeAliasKind resolves a command's device_type string to the
// EntityKind the world model uses for that device.
func DeviceTypeAliasKind(deviceType string) EntityKind {
	if kind, ok := deviceTypeAliases[strings.ToLower(deviceType)]; ok {
		return kind
	}
	return EntityKind(deviceType)
}
