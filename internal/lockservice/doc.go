// Package lockservice ties the Sesame client to the rest of the bridge.
//
// A Service owns the logged-in sesame.Client and is the only path by which
// the API, MQTT commands and the CLI operate locks. For each command it
// refetches the device, lets the device's transition guard decide, writes an
// audit entry and publishes the resulting state:
//
//	API / MQTT / CLI → Service.Control → sesame.Device.Control
//	                                   → audit_logs
//	                                   → sesame/state/{id} (retained)
//	                                   → InfluxDB sesame_lock, sesame_control
//	                                   → listeners (WebSocket hub)
//
// Run polls the account on an interval for state and battery telemetry.
package lockservice
