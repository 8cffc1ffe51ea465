package gateway

import (
	"github.com/f0x0/foxcontrol/internal/device"
)

// TaskType discriminates remote task variants.
type TaskType string

// Task types the gateway issues.
const (
	TaskPower TaskType = "power"
	TaskSpeed TaskType = "speed"
	TaskMode  TaskType = "mode"
)

// Task is one remote command fetched from the gateway. The Type field
// selects which payload field is meaningful.
type Task struct {
	Type  TaskType    `json:"type"`
	IsOn  bool        `json:"is_on"`
	Speed int         `json:"speed"`
	Mode  device.Mode `json:"mode"`
}

// baseRequest is embedded in every request body.
type baseRequest struct {
	Password  string `json:"password"`
	Timestamp int64  `json:"timestamp"`
}

// onlineRequest announces bridge presence.
type onlineRequest struct {
	baseRequest
	IsOnline bool `json:"is_online"`
}

// stateRequest reports the device state snapshot.
type stateRequest struct {
	baseRequest
	State device.Snapshot `json:"state"`
}

// sessionResponse carries the ephemeral session credential.
type sessionResponse struct {
	Password string `json:"password"`
}

// fetchResponse carries the pending remote tasks. The pointer
// distinguishes a present-but-empty list from a missing field.
type fetchResponse struct {
	Tasks *[]Task `json:"tasks"`
}

// errorResponse is the gateway's error envelope on non-200 statuses.
type errorResponse struct {
	Error string `json:"error"`
}
