package influxdb

import "errors"

// Domain-specific errors for InfluxDB operations.
var (
	// ErrDisabled is returned when connecting while influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned when the initial ping fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by health checks on a closed client.
	ErrNotConnected = errors.New("influxdb: client not connected")
)
