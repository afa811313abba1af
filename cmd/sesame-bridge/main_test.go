package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/logging"
)

const testJWTSecret = "test-secret-that-is-at-least-32-characters-long"

// writeConfig writes a config file with every network component disabled
// and the cloud pointed at a closed local port.
func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	configContent := `
sesame:
  email: "owner@example.com"
  password: "hunter2"
  base_url: "http://127.0.0.1:1"
  request_timeout: 2
  poll_interval: 0

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

api:
  enabled: false
  port: 8090

logging:
  level: error
  format: text
  output: stdout

security:
  jwt:
    secret: "` + testJWTSecret + `"
    access_token_ttl: 60
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("SESAME_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingSecrets verifies validation stops startup without credentials.
func TestRun_MissingSecrets(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: error\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("SESAME_CONFIG", configPath)
	t.Setenv("SESAME_PASSWORD", "")
	t.Setenv("SESAME_JWT_SECRET", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail without email, password and jwt secret")
	}
}

// TestRun_OfflineStartupAndShutdown starts with the cloud unreachable: the
// failed login is logged and the daemon still runs until cancelled.
func TestRun_OfflineStartupAndShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sesame.db")
	t.Setenv("SESAME_CONFIG", writeConfig(t, dbPath))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("SESAME_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("SESAME_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestHealthCheck_OptionalClients verifies disabled MQTT and InfluxDB are skipped.
func TestHealthCheck_OptionalClients(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if err := healthCheck(context.Background(), db, nil, nil); err != nil {
		t.Errorf("healthCheck() error: %v", err)
	}
}

// TestNewSesameClient_BaseURL verifies the configured endpoint is used.
func TestNewSesameClient_BaseURL(t *testing.T) {
	cfg := &config.Config{Sesame: config.SesameConfig{BaseURL: "http://127.0.0.1:1", RequestTimeout: 1}}
	client := newSesameClient(cfg, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Login(ctx, "owner@example.com", "pw"); err == nil {
		t.Error("Login() against a closed port should fail")
	}
	if client.IsLoggedIn() {
		t.Error("IsLoggedIn() = true after failed login")
	}
}
