// Package influxdb records FoxControl speed telemetry.
//
// When enabled, every device state change is written as a point in the
// device_speed measurement (actual speed, target speed, power state).
// This is the durable form of the speed graph the local monitor keeps
// in memory: operators can chart convergence behaviour and spot a
// device that steps slower than it used to.
//
// Writes are batched and asynchronous; a write failure never blocks the
// device loops. Async errors surface through SetOnError.
package influxdb
