package serial

import (
	"fmt"
	"time"

	gobug "go.bug.st/serial"
)

// readPollTimeout bounds a single read attempt so TryReadByte never blocks
// the receive loop for longer than roughly one pacing tick.
const readPollTimeout = time.Millisecond

// Port is an open serial connection to the device.
//
// Thread Safety:
//   - WriteByte and TryReadByte may be used from different goroutines
//     (the transmit and receive loops); neither method is safe for
//     concurrent use with itself.
type Port struct {
	port     gobug.Port
	name     string
	baudRate int
}

// Open opens the serial device in raw 8N1 mode with no flow control.
// The requested baud rate is snapped via SnapBaudRate.
//
// Errors here are non-recoverable startup failures; callers should abort.
func Open(name string, baudRate int) (*Port, error) {
	snapped := SnapBaudRate(baudRate)

	mode := &gobug.Mode{
		BaudRate: snapped,
		DataBits: 8,
		Parity:   gobug.NoParity,
		StopBits: gobug.OneStopBit,
	}

	port, err := gobug.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrOpenFailed, name, err)
	}

	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w %q: %w", ErrConfigureFailed, name, err)
	}

	return &Port{port: port, name: name, baudRate: snapped}, nil
}

// WriteByte writes a single command token to the device.
func (p *Port) WriteByte(b byte) error {
	n, err := p.port.Write([]byte{b})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: short write (%d bytes)", ErrWriteFailed, n)
	}
	return nil
}

// TryReadByte reads one byte if the device has sent one. It returns
// ok=false when no byte is available within the poll timeout or the
// read fails; a failed read is indistinguishable from silence, which is
// acceptable because the feedback protocol is line-based and self-healing.
func (p *Port) TryReadByte() (byte, bool) {
	var buf [1]byte
	n, err := p.port.Read(buf[:])
	if err != nil || n != 1 {
		return 0, false
	}
	return buf[0], true
}

// Close releases the device handle.
func (p *Port) Close() error {
	if err := p.port.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", p.name, err)
	}
	return nil
}

// Name returns the device node this port was opened on.
func (p *Port) Name() string {
	return p.name
}

// BaudRate returns the snapped rate the port was configured with.
func (p *Port) BaudRate() int {
	return p.baudRate
}
