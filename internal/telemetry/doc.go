// Package telemetry adapts device state changes onto the optional
// telemetry sinks: a retained MQTT state topic and an InfluxDB speed
// measurement. Both adapters implement device.Notifier and are attached
// to the device server only when their sink is enabled; a sink failure
// is logged and never propagates into the device loops.
package telemetry
