// Package serial owns the serial link to the physical device.
//
// It provides:
//   - Opening the device in raw 8N1 mode with no flow control
//   - Baud-rate snapping to the nearest rate the serial stack supports
//   - Byte-level write and non-blocking read
//
// The device side of the protocol is a slow embedded link: single-byte
// command tokens towards the device, newline-terminated feedback lines
// back from it. Pacing and framing live in internal/device; this package
// only moves bytes.
//
// Construction failure is a fatal startup error and is not retried.
package serial
