// Package logging provides structured logging for FoxControl.
//
// It wraps log/slog with level parsing, text/JSON output selection and
// default service attributes. Subsystems receive a child logger via With
// so every line carries its component name:
//
//	deviceLog := log.With("component", "device")
//	deviceLog.Info("transmit loop started")
//
// Consumer packages declare their own small Logger interface instead of
// importing this package, which keeps them mockable in tests; *Logger
// satisfies those interfaces.
package logging
