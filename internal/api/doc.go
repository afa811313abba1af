// Package api implements the HTTP REST API and WebSocket server of the Sesame bridge.
//
// This package provides:
//   - REST endpoints to list, read, lock and unlock Sesame devices
//   - Per-device control history from the audit log
//   - A WebSocket hub pushing device.state_changed events, for every lock or
//     for one lock via the "device.state_changed:<device id>" channel
//   - JWT bearer authentication with viewer and operator roles
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// Handlers call the lock service, which owns the Sesame cloud session and
// serialises control per device. Every lock state change observed by the
// service is pushed to subscribed WebSocket clients.
//
// # Errors
//
// Guard refusals map to 409, Sesame server rejections to 502 with the server
// message verbatim, and a bridge without a cloud session to 503.
package api
