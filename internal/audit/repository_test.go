package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-sesame/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestCreate_FillsDefaults(t *testing.T) {
	repo := newTestRepo(t)
	fixed := time.Date(2026, 10, 19, 8, 30, 15, 500, time.FixedZone("CEST", 2*3600))
	repo.now = func() time.Time { return fixed }

	entry := &AuditLog{Action: ActionUnlock, EntityID: "dev-1", Source: "api", Outcome: OutcomeSuccess}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(entry.ID, "aud-") || len(entry.ID) != len("aud-")+8 {
		t.Errorf("ID = %q, want aud-<8 chars>", entry.ID)
	}
	if entry.EntityType != EntitySesame {
		t.Errorf("EntityType = %q, want %q", entry.EntityType, EntitySesame)
	}
	want := time.Date(2026, 10, 19, 6, 30, 15, 0, time.UTC)
	if !entry.CreatedAt.Equal(want) || entry.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v", entry.CreatedAt, want)
	}
}

func TestCreate_RequiresFields(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Create(context.Background(), &AuditLog{Action: ActionLock})
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Create() error = %v, want ErrInvalidEntry", err)
	}
}

func TestList_RoundTripAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	entries := []*AuditLog{
		{Action: ActionUnlock, EntityID: "dev-1", Source: "api", UserID: "alice", Outcome: OutcomeSuccess, CreatedAt: base},
		{Action: ActionUnlock, EntityID: "dev-1", Source: "mqtt", Outcome: OutcomeInvalidTransition,
			Error: "Sesame{id: dev-1, nickname: Front}: already unlocked", CreatedAt: base.Add(time.Minute)},
		{Action: ActionLock, EntityID: "dev-2", Source: "cli", Outcome: OutcomeRejected, Error: "device offline",
			Details: map[string]any{"status": float64(500)}, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 3 || len(result.Logs) != 3 {
		t.Fatalf("List() total=%d len=%d, want 3/3", result.Total, len(result.Logs))
	}
	if result.Logs[0].EntityID != "dev-2" {
		t.Errorf("newest entry = %q, want dev-2", result.Logs[0].EntityID)
	}

	got := result.Logs[0]
	if got.Error != "device offline" || got.Outcome != OutcomeRejected || got.Source != "cli" {
		t.Errorf("entry = %+v", got)
	}
	if got.Details["status"] != float64(500) {
		t.Errorf("Details = %v", got.Details)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if result.Logs[2].UserID != "alice" {
		t.Errorf("UserID = %q, want alice", result.Logs[2].UserID)
	}
}

func TestList_Filters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, e := range []AuditLog{
		{Action: ActionLock, EntityID: "dev-1", Source: "api", Outcome: OutcomeSuccess},
		{Action: ActionUnlock, EntityID: "dev-1", Source: "api", Outcome: OutcomeError},
		{Action: ActionUnlock, EntityID: "dev-2", Source: "mqtt", Outcome: OutcomeSuccess},
	} {
		e := e
		e.CreatedAt = time.Date(2026, 10, 19, 12, i, 0, 0, time.UTC)
		if err := repo.Create(ctx, &e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by device", Filter{EntityID: "dev-1"}, 2},
		{"by action", Filter{Action: ActionUnlock}, 2},
		{"by source", Filter{Source: "mqtt"}, 1},
		{"by outcome", Filter{Outcome: OutcomeSuccess}, 2},
		{"combined", Filter{EntityID: "dev-1", Outcome: OutcomeError}, 1},
		{"no match", Filter{EntityID: "dev-9"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.want || len(result.Logs) != tt.want {
				t.Errorf("List() total=%d len=%d, want %d", result.Total, len(result.Logs), tt.want)
			}
			if result.Logs == nil {
				t.Error("Logs should be an empty slice, not nil")
			}
		})
	}
}

func TestList_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &AuditLog{Action: ActionLock, EntityID: "dev-1", Source: "api", Outcome: OutcomeSuccess,
			CreatedAt: time.Date(2026, 10, 19, 12, i, 0, 0, time.UTC)}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 5 || len(result.Logs) != 2 {
		t.Fatalf("total=%d len=%d, want 5/2", result.Total, len(result.Logs))
	}
	if result.Logs[0].CreatedAt.Minute() != 2 {
		t.Errorf("first entry on page = minute %d, want 2", result.Logs[0].CreatedAt.Minute())
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 50},
		{0, 50},
		{1, 1},
		{200, 200},
		{201, 200},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
