package gateway

import "errors"

// Domain-specific errors for gateway operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrCertificate is returned when the gateway certificate cannot be
	// loaded. Fatal at startup.
	ErrCertificate = errors.New("gateway: could not load certificate")

	// ErrRequestFailed is returned when a request does not complete.
	ErrRequestFailed = errors.New("gateway: request failed")
)
