package device

// Speed limits of the physical device.
const (
	MinSpeed = 0
	MaxSpeed = 32
)

// Token is a single-byte serial protocol instruction.
type Token byte

// Wire bytes understood by the device firmware.
const (
	TokenOn     Token = 'i'
	TokenOff    Token = 'o'
	TokenLower  Token = 'l'
	TokenHigher Token = 'h'

	// TokenMode is defined by the firmware but no mutator produces it:
	// the current protocol revision has no way to select a mode over the
	// wire, so mode changes are host-side only.
	TokenMode Token = 'm'
)

// Mode is an operating mode of the device. Only the default mode exists
// in the current firmware; the type is an enum so future modes slot in.
type Mode int

// ModeDefault is the only mode the current firmware knows.
const ModeDefault Mode = 0

// String returns the human-readable mode name.
func (m Mode) String() string {
	switch m {
	default:
		return "Default"
	}
}

// Snapshot is an immutable copy of the device state, taken inside a
// mutator's critical section. It is what the gateway reports, the monitor
// displays and the telemetry sinks record.
type Snapshot struct {
	IsOn            bool `json:"is_on"`
	AcceptsCommands bool `json:"accepts_commands"`
	TargetSpeed     int  `json:"target_speed"`
	ActualSpeed     int  `json:"actual_speed"`
	Mode            Mode `json:"mode"`
}

// Transport moves bytes to and from the physical device.
// Implemented by internal/serial.Port; faked in tests.
type Transport interface {
	// WriteByte sends one command token.
	WriteByte(b byte) error

	// TryReadByte returns the next feedback byte if one is available.
	TryReadByte() (byte, bool)

	// Name identifies the device node for log lines.
	Name() string
}

// Logger is the logging surface the Server needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Notifier is a weak, non-owning sink for state changes and device-link
// log lines. The monitor and the telemetry adapters implement it.
// Implementations must not call back into the Server from StateChanged.
type Notifier interface {
	StateChanged(s Snapshot)
	DeviceLog(line string)
}
