// Package monitor is the core-facing half of the local monitor UI.
//
// The visual front end is an external collaborator: it only reads state
// snapshots and log lines, and pushes mutations back through the public
// mutators on device.Server and gateway.Session. This package keeps
// everything that front end needs to render, behind thread-safe
// accessors:
//
//   - a bounded device log and a bounded gateway log (oldest lines
//     dropped first)
//   - the latest device state snapshot
//   - a bounded history of actual-speed samples for the speed graph
//
// Monitor implements device.Notifier and gateway.Notifier and is
// attached to both at startup when the monitor is enabled.
package monitor
