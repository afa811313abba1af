package sesame

import (
	"encoding/json"
	"fmt"
)

// JSON payloads exchanged with the Sesame API.

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type controlRequest struct {
	Type string `json:"type"`
}

type authToken struct {
	Authorization *string `json:"authorization"`
}

type errorMessage struct {
	Message *string `json:"message"`
}

// deviceSnapshot is the body of GET /sesames/{id}; the id is not repeated.
type deviceSnapshot struct {
	Nickname   string `json:"nickname"`
	IsUnlocked *bool  `json:"is_unlocked"`
	APIEnabled bool   `json:"api_enabled"`
	Battery    int    `json:"battery"`
}

type deviceListEntry struct {
	DeviceID   string `json:"device_id"`
	Nickname   string `json:"nickname"`
	IsUnlocked *bool  `json:"is_unlocked"`
	APIEnabled bool   `json:"api_enabled"`
	Battery    int    `json:"battery"`
}

type deviceListSnapshot struct {
	Sesames *[]deviceListEntry `json:"sesames"`
}

// decodeAuthToken parses a login success body.
func decodeAuthToken(data []byte) (string, error) {
	var tok authToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("%w: decoding auth token: %w", ErrProtocol, err)
	}
	if tok.Authorization == nil {
		return "", fmt.Errorf("%w: auth token missing authorization field", ErrProtocol)
	}
	return *tok.Authorization, nil
}

// decodeRemoteError turns a failure body into a *RemoteError.
// A body that is not an error message is a protocol error.
func decodeRemoteError(status int, data []byte) error {
	var msg errorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: status %d: decoding error body: %w", ErrProtocol, status, err)
	}
	if msg.Message == nil {
		return fmt.Errorf("%w: status %d: error body missing message field", ErrProtocol, status)
	}
	return &RemoteError{StatusCode: status, Message: *msg.Message}
}

func decodeDeviceSnapshot(data []byte) (deviceSnapshot, error) {
	var snap deviceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return deviceSnapshot{}, fmt.Errorf("%w: decoding device: %w", ErrProtocol, err)
	}
	if snap.IsUnlocked == nil {
		return deviceSnapshot{}, fmt.Errorf("%w: device missing is_unlocked field", ErrProtocol)
	}
	return snap, nil
}

func decodeDeviceList(data []byte) ([]deviceListEntry, error) {
	var list deviceListSnapshot
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: decoding device list: %w", ErrProtocol, err)
	}
	if list.Sesames == nil {
		return nil, fmt.Errorf("%w: device list missing sesames field", ErrProtocol)
	}
	for i, entry := range *list.Sesames {
		if entry.DeviceID == "" {
			return nil, fmt.Errorf("%w: device list entry %d missing device_id", ErrProtocol, i)
		}
		if entry.IsUnlocked == nil {
			return nil, fmt.Errorf("%w: device %s missing is_unlocked field", ErrProtocol, entry.DeviceID)
		}
	}
	return *list.Sesames, nil
}
