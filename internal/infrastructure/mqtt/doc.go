// Package mqtt provides the optional MQTT status mirror for FoxControl.
//
// When enabled, the bridge announces its presence on a retained status
// topic (with a Last Will so brokers flag an unexpected disconnect) and
// mirrors every device state snapshot to a retained state topic. Local
// dashboards and automations can follow the device without touching the
// cloud gateway.
//
// This is a publish-only client: FoxControl takes commands from the
// gateway and the operator console, never from the broker.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceState()
//	_ = client.PublishRetained(topic, payload)
package mqtt
