package generator

import (
	"fmt"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// ImageURL builds the fabricated capture URL
// ${base}/${workstation}/${device_id}/${component}/${timestamp}.jpg.
func ImageURL(base, workStation, deviceID, component string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s.jpg", base, workStation, deviceID, component, RobotTimestamp(at))
}

// CapturedImages builds one protocol.CapturedImage per component, all
// stamped with the same capture time.
func CapturedImages(base, workStation, deviceID, deviceType string, components []string, at time.Time) []protocol.CapturedImage {
	images := make([]protocol.CapturedImage, 0, len(components))
	for _, component := range components {
		images = append(images, protocol.CapturedImage{
			WorkStation: workStation,
			DeviceID:    deviceID,
			DeviceType:  deviceType,
			Component:   component,
			URL:         ImageURL(base, workStation, deviceID, component, at),
			CreateTime:  RobotTimestamp(at),
		})
	}
	return images
}
