package telemetry

import (
	"encoding/json"

	"github.com/f0x0/foxcontrol/internal/device"
)

// StatePublisher is the publishing surface the mirror needs.
// Implemented by mqtt.Client.
type StatePublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// Logger is the logging surface the telemetry adapters need.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Mirror publishes every device state change as a retained JSON payload,
// so MQTT subscribers always see the latest state on subscribe.
type Mirror struct {
	publisher StatePublisher
	topic     string
	log       Logger
}

// NewMirror creates a state mirror publishing to the given topic.
func NewMirror(publisher StatePublisher, topic string, log Logger) *Mirror {
	return &Mirror{publisher: publisher, topic: topic, log: log}
}

// StateChanged publishes the snapshot. Publish failures are logged and
// dropped; the broker catches up on the next state change.
func (m *Mirror) StateChanged(s device.Snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		m.log.Warn("state snapshot marshal failed", "error", err)
		return
	}
	if err := m.publisher.PublishRetained(m.topic, payload); err != nil {
		m.log.Warn("state publish failed", "topic", m.topic, "error", err)
		return
	}
	m.log.Debug("state published", "topic", m.topic)
}

// DeviceLog is a no-op; raw device-link lines are not mirrored.
func (m *Mirror) DeviceLog(line string) {}
