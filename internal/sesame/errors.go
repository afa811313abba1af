package sesame

import (
	"errors"
	"fmt"
)

// Sentinel errors for Sesame API operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, sesame.ErrNotAuthenticated) {
//	    // log in first
//	}
var (
	// ErrNotAuthenticated is returned when an authenticated call is attempted
	// before a successful login. No request is sent in that case.
	ErrNotAuthenticated = errors.New("sesame: not logged in")

	// ErrTransport indicates a network, TLS or timeout failure below HTTP.
	ErrTransport = errors.New("sesame: transport failure")

	// ErrProtocol indicates a response body that does not match the expected schema.
	ErrProtocol = errors.New("sesame: protocol error")

	// ErrRemoteRejected indicates the server answered with a failure status and a
	// readable message. The concrete error is a *RemoteError.
	ErrRemoteRejected = errors.New("sesame: rejected by server")

	// ErrInvalidTransition is returned when a lock is asked to enter the state it is
	// already believed to be in. The concrete error is a *TransitionError.
	ErrInvalidTransition = errors.New("sesame: invalid transition")

	// ErrInvalidIntent is returned when a control intent string is not recognised.
	ErrInvalidIntent = errors.New("sesame: invalid control intent")

	// ErrInvalidDeviceID is returned when a device ID is empty.
	ErrInvalidDeviceID = errors.New("sesame: invalid device id")
)

// RemoteError carries a failure message returned by the Sesame API.
//
// Error() returns the server message verbatim so callers can show it as-is.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "remote error"
	}
	return e.Message
}

// Is reports ErrRemoteRejected as a match.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteRejected
}

// TransitionError describes a lock/unlock request refused by the local guard.
type TransitionError struct {
	DeviceID string
	Nickname string
	Intent   ControlIntent
}

func (e *TransitionError) Error() string {
	if e == nil {
		return "invalid transition"
	}
	return fmt.Sprintf("Sesame{id: %s, nickname: %s}: already %sed", e.DeviceID, e.Nickname, e.Intent)
}

// Is reports ErrInvalidTransition as a match.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
