package sesame

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func lockedDevice(s *Session) *Device {
	return NewDevice(s, State{DeviceID: "dev-1", Nickname: "Front door", IsUnlocked: false, APIEnabled: true, Battery: 87})
}

func TestDevice_GuardRejectsSameState(t *testing.T) {
	client, stub := loggedInClient(t)
	d := lockedDevice(client.Session())
	calls := stub.calls()

	err := d.Lock(context.Background())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Lock() error = %v, want ErrInvalidTransition", err)
	}
	if !strings.Contains(err.Error(), "dev-1") {
		t.Errorf("error %q should mention device id", err.Error())
	}
	if err.Error() != "Sesame{id: dev-1, nickname: Front door}: already locked" {
		t.Errorf("error = %q", err.Error())
	}
	if stub.calls() != calls {
		t.Error("Lock() on a locked device issued a request")
	}

	stub.on(http.MethodPost, "/sesames/dev-1/control", http.StatusNoContent, "")
	if err := d.Unlock(context.Background()); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if stub.calls() != calls+1 {
		t.Errorf("Unlock() calls = %d, want 1", stub.calls()-calls)
	}
}

func TestDevice_SuccessfulTransition(t *testing.T) {
	client, stub := loggedInClient(t)
	stub.on(http.MethodPost, "/sesames/dev-1/control", http.StatusNoContent, "")
	d := lockedDevice(client.Session())

	if err := d.Unlock(context.Background()); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if !d.IsUnlocked() {
		t.Error("IsUnlocked() = false after successful unlock")
	}

	req := stub.last()
	if req.Method != http.MethodPost || req.URL != testBaseURL+"/sesames/dev-1/control" {
		t.Errorf("control request = %s %s", req.Method, req.URL)
	}
	if got := req.Header.Get("X-Authorization"); got != "T" {
		t.Errorf("X-Authorization = %q, want T", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	var body controlRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decoding control body: %v", err)
	}
	if body.Type != "unlock" {
		t.Errorf("control type = %q, want unlock", body.Type)
	}

	calls := stub.calls()
	if err := d.Unlock(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Unlock() error = %v, want ErrInvalidTransition", err)
	}
	if stub.calls() != calls {
		t.Error("second Unlock() issued a request")
	}

	if err := d.Lock(context.Background()); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if d.IsUnlocked() {
		t.Error("IsUnlocked() = true after successful lock")
	}
}

func TestDevice_FailedTransitionPreservesState(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"server message", http.StatusInternalServerError, `{"message":"device offline"}`, ErrRemoteRejected, "device offline"},
		{"unexpected 200", http.StatusOK, `{"message":"use 204"}`, ErrRemoteRejected, "use 204"},
		{"undecodable body", http.StatusBadGateway, `bad gateway`, ErrProtocol, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, stub := loggedInClient(t)
			stub.on(http.MethodPost, "/sesames/dev-1/control", tt.status, tt.body)
			d := lockedDevice(client.Session())

			err := d.Unlock(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unlock() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("Unlock() error = %q, want %q", err.Error(), tt.wantMsg)
			}
			if d.IsUnlocked() {
				t.Error("IsUnlocked() changed after failed unlock")
			}
		})
	}
}

func TestDevice_TransportFailurePreservesState(t *testing.T) {
	client, stub := loggedInClient(t)
	stub.fail(http.MethodPost, "/sesames/dev-1/control", errConnRefused)
	d := lockedDevice(client.Session())

	if err := d.Unlock(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("Unlock() error = %v, want ErrTransport", err)
	}
	if d.IsUnlocked() {
		t.Error("IsUnlocked() changed after transport failure")
	}
}

func TestDevice_NotLoggedIn(t *testing.T) {
	stub := newStubTransport()
	d := lockedDevice(NewSession(stub, testBaseURL, nil))

	for _, intent := range []ControlIntent{IntentLock, IntentUnlock} {
		if err := d.Control(context.Background(), intent); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("Control(%s) error = %v, want ErrNotAuthenticated", intent, err)
		}
	}
	if stub.calls() != 0 {
		t.Errorf("transport calls = %d, want 0", stub.calls())
	}
}

func TestDevice_InvalidIntent(t *testing.T) {
	client, stub := loggedInClient(t)
	d := lockedDevice(client.Session())
	calls := stub.calls()

	if err := d.Control(context.Background(), ControlIntent(0)); !errors.Is(err, ErrInvalidIntent) {
		t.Errorf("Control(0) error = %v, want ErrInvalidIntent", err)
	}
	if stub.calls() != calls {
		t.Error("invalid intent issued a request")
	}
}

func TestDevice_IDIsPathEscaped(t *testing.T) {
	client, stub := loggedInClient(t)
	d := NewDevice(client.Session(), State{DeviceID: "a/b", Nickname: "Odd", IsUnlocked: true})

	_ = d.Lock(context.Background())
	if got := stub.last().URL; got != testBaseURL+"/sesames/a%2Fb/control" {
		t.Errorf("control URL = %q", got)
	}
}

func TestDevice_SnapshotAndString(t *testing.T) {
	client, _ := loggedInClient(t)
	d := lockedDevice(client.Session())

	want := State{DeviceID: "dev-1", Nickname: "Front door", IsUnlocked: false, APIEnabled: true, Battery: 87}
	if got := d.Snapshot(); got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
	if !d.Snapshot().Locked() {
		t.Error("Locked() = false for locked snapshot")
	}
	if d.String() != "Sesame{id: dev-1, nickname: Front door}" {
		t.Errorf("String() = %q", d.String())
	}
	if d.Session() != client.Session() {
		t.Error("Session() is not the client session")
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in      string
		want    ControlIntent
		wantErr bool
	}{
		{"lock", IntentLock, false},
		{"UNLOCK", IntentUnlock, false},
		{" Lock ", IntentLock, false},
		{"open", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntent(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIntent(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidIntent) {
				t.Errorf("ParseIntent(%q) error = %v, want ErrInvalidIntent", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseIntent(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
