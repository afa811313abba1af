// Package influxdb records Sesame lock telemetry in InfluxDB.
//
// Two measurements are written through the non-blocking, batched write API of
// influxdb-client-go v2:
//
//   - sesame_lock: one point per observed lock (tags device_id, nickname;
//     fields unlocked, api_enabled, battery)
//   - sesame_control: one point per lock/unlock command (tags device_id,
//     action, outcome, source; field count=1)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics are optional
//	}
//	defer client.Close()
//
//	client.WriteLockState(influxdb.LockSample{DeviceID: "dev-1", Battery: 80})
//
// Write failures are asynchronous and reported through SetOnError. Batching
// follows batch_size and flush_interval from config.yaml.
package influxdb
