package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the bridge.
const (
	MeasurementLockState = "sesame_lock"
	MeasurementControl   = "sesame_control"
)

// LockSample is one observation of a lock, taken after a listing or a command.
type LockSample struct {
	DeviceID   string
	Nickname   string
	Unlocked   bool
	APIEnabled bool
	Battery    int
}

// ControlSample records the outcome of one lock/unlock command.
type ControlSample struct {
	DeviceID string
	Action   string
	Outcome  string
	Source   string
}

// WriteLockState records a lock's state and battery level.
//
// The write is non-blocking; points are batched. It is a no-op when the
// client is closed.
//
//	client.WriteLockState(influxdb.LockSample{DeviceID: "dev-1", Battery: 80})
func (c *Client) WriteLockState(s LockSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(lockStatePoint(s, time.Now()))
}

// WriteControl records one command outcome as a counter point.
func (c *Client) WriteControl(s ControlSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(controlPoint(s, time.Now()))
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point at a specific timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}

func lockStatePoint(s LockSample, ts time.Time) *write.Point {
	tags := map[string]string{"device_id": s.DeviceID}
	if s.Nickname != "" {
		tags["nickname"] = s.Nickname
	}
	return write.NewPoint(
		MeasurementLockState,
		tags,
		map[string]any{
			"unlocked":    s.Unlocked,
			"api_enabled": s.APIEnabled,
			"battery":     s.Battery,
		},
		ts,
	)
}

func controlPoint(s ControlSample, ts time.Time) *write.Point {
	tags := map[string]string{"device_id": s.DeviceID}
	for k, v := range map[string]string{"action": s.Action, "outcome": s.Outcome, "source": s.Source} {
		// Empty tag values are invalid line protocol.
		if v != "" {
			tags[k] = v
		}
	}
	return write.NewPoint(MeasurementControl, tags, map[string]any{"count": 1}, ts)
}
