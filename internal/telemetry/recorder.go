package telemetry

import "github.com/f0x0/foxcontrol/internal/device"

// SpeedWriter is the write surface the recorder needs.
// Implemented by influxdb.Client.
type SpeedWriter interface {
	WriteSpeedSample(actualSpeed, targetSpeed int, isOn bool)
}

// Recorder writes a speed sample for every device state change.
type Recorder struct {
	writer SpeedWriter
}

// NewRecorder creates a speed recorder backed by the given writer.
func NewRecorder(writer SpeedWriter) *Recorder {
	return &Recorder{writer: writer}
}

// StateChanged records the snapshot's speed fields.
func (r *Recorder) StateChanged(s device.Snapshot) {
	r.writer.WriteSpeedSample(s.ActualSpeed, s.TargetSpeed, s.IsOn)
}

// DeviceLog is a no-op; the recorder only tracks speed.
func (r *Recorder) DeviceLog(line string) {}
