package sesame

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// State is an immutable snapshot of a Device's cached fields.
type State struct {
	DeviceID   string `json:"device_id"`
	Nickname   string `json:"nickname"`
	IsUnlocked bool   `json:"is_unlocked"`
	APIEnabled bool   `json:"api_enabled"`
	Battery    int    `json:"battery"`
}

// Locked reports whether the snapshot shows the lock as locked.
func (s State) Locked() bool {
	return !s.IsUnlocked
}

// Device is one Sesame lock.
//
// The cached unlocked flag is a two-state machine: Lock is only sent from the
// unlocked state and Unlock only from the locked state. A request that would
// not change the cached state is refused locally without a network call. The
// cache changes only when the server answers a control request with 204.
//
// Device is safe for concurrent use. Control calls on one instance are
// serialized; the Device lock is always taken before the Session lock.
type Device struct {
	session *Session

	mu         sync.Mutex
	id         string
	nickname   string
	unlocked   bool
	apiEnabled bool
	battery    int
}

// NewDevice creates a Device bound to session from a state snapshot.
func NewDevice(session *Session, st State) *Device {
	return &Device{
		session:    session,
		id:         st.DeviceID,
		nickname:   st.Nickname,
		unlocked:   st.IsUnlocked,
		apiEnabled: st.APIEnabled,
		battery:    st.Battery,
	}
}

// ID returns the server-assigned device identifier.
func (d *Device) ID() string { return d.id }

// Nickname returns the user-assigned name.
func (d *Device) Nickname() string { return d.nickname }

// IsUnlocked returns the cached lock state.
func (d *Device) IsUnlocked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unlocked
}

// APIEnabled reports whether the lock accepts API control.
func (d *Device) APIEnabled() bool { return d.apiEnabled }

// Battery returns the battery level in percent.
func (d *Device) Battery() int { return d.battery }

// Session returns the Session this Device sends requests through.
func (d *Device) Session() *Session { return d.session }

// Snapshot returns the current cached state.
func (d *Device) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		DeviceID:   d.id,
		Nickname:   d.nickname,
		IsUnlocked: d.unlocked,
		APIEnabled: d.apiEnabled,
		Battery:    d.battery,
	}
}

func (d *Device) String() string {
	return fmt.Sprintf("Sesame{id: %s, nickname: %s}", d.id, d.nickname)
}

// Lock locks the device. Fails with ErrInvalidTransition if it is already locked.
func (d *Device) Lock(ctx context.Context) error {
	return d.Control(ctx, IntentLock)
}

// Unlock unlocks the device. Fails with ErrInvalidTransition if it is already unlocked.
func (d *Device) Unlock(ctx context.Context) error {
	return d.Control(ctx, IntentUnlock)
}

// Control sends a lock or unlock command.
//
// Parameters:
//   - ctx: Context for cancellation and deadlines
//   - intent: IntentLock or IntentUnlock
//
// Returns:
//   - error: nil on 204; ErrNotAuthenticated before login; *TransitionError when
//     the cached state already matches; *RemoteError with the server message;
//     ErrProtocol for an unreadable error body; ErrTransport on network failure
func (d *Device) Control(ctx context.Context, intent ControlIntent) error {
	if !intent.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidIntent, intent)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.session.Token(); err != nil {
		return err
	}

	target := intent.targetUnlocked()
	if d.unlocked == target {
		return &TransitionError{DeviceID: d.id, Nickname: d.nickname, Intent: intent}
	}

	body, err := json.Marshal(controlRequest{Type: intent.String()})
	if err != nil {
		return fmt.Errorf("encoding control request: %w", err)
	}

	resp, err := d.session.AuthorizedRequest(ctx, http.MethodPost, controlPath(d.id), body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusNoContent {
		return decodeRemoteError(resp.StatusCode, resp.Body)
	}

	d.unlocked = target
	return nil
}

func devicePath(id string) string {
	return sesamesPath + "/" + url.PathEscape(id)
}

func controlPath(id string) string {
	return devicePath(id) + "/control"
}
