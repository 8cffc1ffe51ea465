package serial

import "errors"

// Domain-specific errors for serial operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrOpenFailed is returned when the device node cannot be opened.
	ErrOpenFailed = errors.New("serial: could not open device")

	// ErrConfigureFailed is returned when the port attributes cannot be set.
	ErrConfigureFailed = errors.New("serial: could not configure device")

	// ErrWriteFailed is returned when a token write does not complete.
	ErrWriteFailed = errors.New("serial: write failed")
)
