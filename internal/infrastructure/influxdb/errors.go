package influxdb

import "errors"

// Sentinel errors returned by the metrics client.
//
// Write failures are asynchronous and reach the SetOnError callback wrapped
// in ErrWriteFailed; everything else is returned directly.
var (
	// ErrDisabled is returned by Connect when metrics are turned off.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed means the server could not be reached at startup.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrUnhealthy means the server answered the ping with a failure status.
	ErrUnhealthy = errors.New("influxdb: server not healthy")

	// ErrNotConnected is returned after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteFailed wraps batch write errors passed to the error callback.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
