package generator

import (
	"fmt"
	"time"
)

// RobotTimestamp formats t in the spec's standardized format:
// YYYY-MM-DD_HH-MM-SS.mmm.
func RobotTimestamp(t time.Time) string {
	t = t.UTC()
	ms := t.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s.%03d", t.Format("2006-01-02_15-04-05"), ms)
}
