package protocol

// EntityUpdate carries one entity's merged property set back into the world
// model. Properties is intentionally a loose map rather than a closed set of
// per-kind structs: the world model never interprets these values, it only
// merges them, so the wire shape doesn't need a discriminated union on the Go
// side the way command.go's command params do.
type EntityUpdate struct {
	Kind       EntityKind     `json:"type"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
}

// CapturedImage describes one photo produced by a take_photo task.
type CapturedImage struct {
	WorkStation string `json:"work_station"`
	DeviceID    string `json:"device_id"`
	DeviceType  string `json:"device_type"`
	Component   string `json:"component"`
	URL         string `json:"url"`
	CreateTime  string `json:"create_time"`
}

// Result is the single, final message published to {robot_id}.result for a
// given task_id. A task_id produces exactly one Result, always after every
// LogEntry for that task_id has already been published.
type Result struct {
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	TaskID  string          `json:"task_id"`
	Updates []EntityUpdate  `json:"updates"`
	Images  []CapturedImage `json:"images,omitempty"`
}

// IsSuccess reports whether Code falls in the success band (0-999).
func (r Result) IsSuccess() bool {
	return r.Code >= 0 && r.Code < 1000
}

// LogEntry is an intermediate progress message published to {robot_id}.log
// while a task is in flight. Unlike Result, a task_id may produce any number
// of these, including zero.
type LogEntry struct {
	Code      int            `json:"code"`
	Msg       string         `json:"msg"`
	TaskID    string         `json:"task_id"`
	Updates   []EntityUpdate `json:"updates"`
	Timestamp string         `json:"timestamp"`
}

// Heartbeat is published to {robot_id}.hb on a fixed interval regardless of
// command traffic.
type Heartbeat struct {
	RobotID   string     `json:"robot_id"`
	Timestamp string     `json:"timestamp"`
	State     RobotState `json:"state"`
}
