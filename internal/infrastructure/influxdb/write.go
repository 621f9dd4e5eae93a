package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStateTransition records one accepted camera state write.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
// Parameters:
//   - field: which side of the document changed ("target" or "actual")
//   - value: the new state ("on" or "off")
//   - source: who caused the change ("dashboard" or "device")
func (c *Client) WriteStateTransition(field, value, source string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"camera_state",
		map[string]string{
			"field":  field,
			"source": source,
		},
		map[string]interface{}{
			"on": value == "on",
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
