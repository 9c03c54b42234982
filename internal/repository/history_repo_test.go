package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/timmy/cinematch/internal/config"
)

func newTestHistory(t *testing.T) *HistoryRepository {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "history.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewHistoryRepository(db)
}

func TestHistoryRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestHistory(t)

	base := time.Date(2025, 9, 29, 20, 45, 0, 0, time.UTC)
	for i, title := range []string{"Heat", "Interstellar", "Gravity", "Ronin"} {
		if err := repo.Add(ctx, title, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Add(%q) error = %v", title, err)
		}
	}

	recent, err := repo.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	want := []string{"Ronin", "Gravity", "Interstellar"}
	if len(recent) != len(want) {
		t.Fatalf("Recent() returned %d entries, want %d", len(recent), len(want))
	}
	for i, w := range want {
		if recent[i].Title != w {
			t.Errorf("Recent()[%d] = %q, want %q", i, recent[i].Title, w)
		}
	}
	if !recent[2].SearchedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("SearchedAt = %v, want %v", recent[2].SearchedAt, base.Add(time.Minute))
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 4 {
		t.Errorf("Count() = %d, %v; want 4", count, err)
	}
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	if _, err := InitDB(&config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("InitDB() must reject unknown drivers")
	}
}
