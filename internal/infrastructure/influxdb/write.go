package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSpeedSample records one device speed observation.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Samples on a disconnected client are dropped; telemetry is best-effort.
func (c *Client) WriteSpeedSample(actualSpeed, targetSpeed int, isOn bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_speed",
		map[string]string{
			"device": c.cfg.Bucket,
		},
		map[string]interface{}{
			"actual": actualSpeed,
			"target": targetSpeed,
			"is_on":  isOn,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
