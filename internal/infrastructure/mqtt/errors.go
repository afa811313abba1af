package mqtt

import "errors"

// Sentinel errors of the broker client. Check them with errors.Is; timeouts
// and oversized payloads are wrapped in the failed operation's error.
var (
	// ErrConnectionFailed is returned when Connect cannot reach the broker.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected is returned by operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrTimeout marks a broker round trip that did not complete in time.
	ErrTimeout = errors.New("mqtt: operation timed out")

	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrPayloadTooLarge is returned for payloads over 1MB.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")

	// ErrInvalidQoS is returned for a QoS other than 0, 1 or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
