package monitor

import (
	"sync"

	"github.com/f0x0/foxcontrol/internal/device"
)

// defaultSpeedHistory is the retained sample count of the speed graph.
const defaultSpeedHistory = 32

// Config holds Monitor construction settings.
type Config struct {
	// LogLines is the retained line count of each log sink.
	LogLines int

	// SpeedHistory is the retained sample count of the speed history.
	SpeedHistory int
}

// Monitor aggregates everything the visual front end reads: the latest
// device snapshot, the device and gateway logs, and the recent
// actual-speed samples.
//
// Thread Safety:
//   - All methods are safe for concurrent use; the notification methods
//     are called from the device and gateway worker loops while the UI
//     thread reads.
type Monitor struct {
	deviceLog  *LogBuffer
	gatewayLog *LogBuffer

	mu           sync.RWMutex
	snapshot     device.Snapshot
	speedHistory []int
	maxHistory   int
}

// New creates a Monitor.
func New(cfg Config) *Monitor {
	maxHistory := cfg.SpeedHistory
	if maxHistory <= 0 {
		maxHistory = defaultSpeedHistory
	}
	return &Monitor{
		deviceLog:  NewLogBuffer(cfg.LogLines),
		gatewayLog: NewLogBuffer(cfg.LogLines),
		maxHistory: maxHistory,
	}
}

// StateChanged records the snapshot and samples the actual speed.
// Implements device.Notifier.
func (m *Monitor) StateChanged(s device.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
	if len(m.speedHistory) == m.maxHistory {
		copy(m.speedHistory, m.speedHistory[1:])
		m.speedHistory = m.speedHistory[:len(m.speedHistory)-1]
	}
	m.speedHistory = append(m.speedHistory, s.ActualSpeed)
}

// DeviceLog appends a line to the device log. Implements device.Notifier.
func (m *Monitor) DeviceLog(line string) {
	m.deviceLog.Append(line)
}

// GatewayLog appends a line to the gateway log. Implements gateway.Notifier.
func (m *Monitor) GatewayLog(line string) {
	m.gatewayLog.Append(line)
}

// Snapshot returns the latest recorded device state.
func (m *Monitor) Snapshot() device.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// SpeedHistory copies out the recent actual-speed samples, oldest first.
func (m *Monitor) SpeedHistory() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, len(m.speedHistory))
	copy(out, m.speedHistory)
	return out
}

// DeviceLogLines copies out the device log, oldest first.
func (m *Monitor) DeviceLogLines() []string {
	return m.deviceLog.Lines()
}

// GatewayLogLines copies out the gateway log, oldest first.
func (m *Monitor) GatewayLogLines() []string {
	return m.gatewayLog.Lines()
}
