package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-sesame/internal/auth"
	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
)

const testJWTSecret = "test-secret-that-is-at-least-32-characters-long"

// fakeCloud serves one device, dev-1, over the Sesame HTTP API.
type fakeCloud struct {
	mu       sync.Mutex
	unlocked bool
	controls []string
}

func (f *fakeCloud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/accounts/login":
		_, _ = io.WriteString(w, `{"authorization":"cli-token"}`)
	case r.Header.Get("X-Authorization") != "cli-token":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"unauthorized"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/sesames":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sesames": []map[string]any{
				{"device_id": "dev-1", "nickname": "Front", "is_unlocked": f.unlocked, "api_enabled": true, "battery": 77},
			},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/v1/sesames/dev-1":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"nickname": "Front", "is_unlocked": f.unlocked, "api_enabled": true, "battery": 77,
		})
	case r.Method == http.MethodPost && r.URL.Path == "/v1/sesames/dev-1/control":
		var body struct {
			Type string `json:"type"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.controls = append(f.controls, body.Type)
		f.unlocked = body.Type == "unlock"
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"device not found"}`)
	}
}

// setup starts the fake cloud and writes a config pointing at it.
func setup(t *testing.T) (*fakeCloud, string) {
	t.Helper()

	cloud := &fakeCloud{}
	server := httptest.NewServer(cloud)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	configContent := `
sesame:
  email: "owner@example.com"
  password: "hunter2"
  base_url: "` + server.URL + `/v1"
  request_timeout: 5
database:
  path: "` + filepath.Join(dir, "sesame.db") + `"
security:
  jwt:
    secret: "` + testJWTSecret + `"
    access_token_ttl: 60
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return cloud, configPath
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		args     []string
		wantCode int
	}{
		{nil, exitCommandError},
		{[]string{"help"}, exitSuccess},
		{[]string{"version"}, exitSuccess},
		{[]string{"explode"}, exitCommandError},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if code, _, _ := runCmd(t, tt.args...); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestList(t *testing.T) {
	_, configPath := setup(t)

	code, out, errOut := runCmd(t, "list", "-config", configPath)
	if code != exitSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "dev-1") || !strings.Contains(out, "locked") || !strings.Contains(out, "77%") {
		t.Errorf("table output = %q", out)
	}
}

func TestGet_JSON(t *testing.T) {
	_, configPath := setup(t)

	code, out, errOut := runCmd(t, "get", "-config", configPath, "-json", "dev-1")
	if code != exitSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}

	var st sesame.State
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	want := sesame.State{DeviceID: "dev-1", Nickname: "Front", APIEnabled: true, Battery: 77}
	if st != want {
		t.Errorf("state = %+v, want %+v", st, want)
	}
}

func TestGet_UnknownDevice(t *testing.T) {
	_, configPath := setup(t)

	code, _, errOut := runCmd(t, "get", "-config", configPath, "dev-9")
	if code != exitRemoteError {
		t.Errorf("exit code = %d, want %d", code, exitRemoteError)
	}
	if !strings.Contains(errOut, "device not found") {
		t.Errorf("stderr = %q, want server message", errOut)
	}
}

func TestGet_MissingID(t *testing.T) {
	_, configPath := setup(t)

	if code, _, _ := runCmd(t, "get", "-config", configPath); code != exitCommandError {
		t.Errorf("exit code = %d, want %d", code, exitCommandError)
	}
}

func TestUnlockThenLock(t *testing.T) {
	cloud, configPath := setup(t)

	code, out, errOut := runCmd(t, "unlock", "-config", configPath, "-user", "alice", "dev-1")
	if code != exitSuccess {
		t.Fatalf("unlock exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "is now unlocked") {
		t.Errorf("unlock output = %q", out)
	}

	code, _, errOut = runCmd(t, "unlock", "-config", configPath, "dev-1")
	if code != exitRemoteError {
		t.Errorf("second unlock exit code = %d, want %d", code, exitRemoteError)
	}
	if !strings.Contains(errOut, "already unlocked") {
		t.Errorf("stderr = %q, want already unlocked", errOut)
	}

	if code, _, errOut := runCmd(t, "lock", "-config", configPath, "dev-1"); code != exitSuccess {
		t.Fatalf("lock exit code = %d, stderr = %s", code, errOut)
	}

	cloud.mu.Lock()
	defer cloud.mu.Unlock()
	if got := strings.Join(cloud.controls, ","); got != "unlock,lock" {
		t.Errorf("controls sent = %q, want unlock,lock", got)
	}
}

func TestToken(t *testing.T) {
	_, configPath := setup(t)

	code, out, errOut := runCmd(t, "token", "-config", configPath, "-sub", "panel", "-role", "operator")
	if code != exitSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}

	claims, err := auth.ParseToken(strings.TrimSpace(out), testJWTSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "panel" || claims.Role != auth.RoleOperator {
		t.Errorf("claims = %+v", claims)
	}
}

func TestToken_InvalidInput(t *testing.T) {
	_, configPath := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no subject", []string{"token", "-config", configPath}},
		{"bad role", []string{"token", "-config", configPath, "-sub", "x", "-role", "admin"}},
		{"bad flag", []string{"token", "-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCmd(t, tt.args...); code != exitCommandError {
				t.Errorf("exit code = %d, want %d", code, exitCommandError)
			}
		})
	}
}
