package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/moviemaster/internal/models"
	"github.com/desertthunder/moviemaster/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestKVRepository(t *testing.T) {
	t.Run("Set And Get", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		if err := repo.Set("theme", "light"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		value, err := repo.Get("theme")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if value != "light" {
			t.Errorf("expected light, got %s", value)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		repo.Set("theme", "light")
		if err := repo.Set("theme", "dark"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		value, _ := repo.Get("theme")
		if value != "dark" {
			t.Errorf("expected dark, got %s", value)
		}

		all, err := repo.All()
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected one pair, got %d", len(all))
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		_, err := repo.Get("nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Empty Key", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))
		if err := repo.Set("", "x"); err == nil {
			t.Error("expected error for empty key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		repo.Set("theme", "light")
		if err := repo.Delete("theme"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get("theme"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete("theme"); err != nil {
			t.Errorf("deleting a missing key should succeed: %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewKVRepository(db)
		db.Close()

		if err := repo.Set("theme", "light"); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.Get("theme"); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("expected query error, got %v", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	principal := models.Principal{
		UID:          "uid-1",
		Email:        "ada@example.com",
		DisplayName:  "Ada",
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("Save And Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save(principal); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if loaded.UID != "uid-1" || loaded.RefreshToken != "refresh-token" || loaded.DisplayName != "Ada" {
			t.Errorf("unexpected principal %+v", loaded)
		}
		if !loaded.ExpiresAt.Equal(principal.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", principal.ExpiresAt, loaded.ExpiresAt)
		}
	})

	t.Run("Save Replaces", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		repo.Save(principal)
		next := principal
		next.Email = "grace@example.com"
		if err := repo.Save(next); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		loaded, _ := repo.Load()
		if loaded.Email != "grace@example.com" {
			t.Errorf("expected replaced email, got %s", loaded.Email)
		}
	})

	t.Run("Load Empty", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if _, err := repo.Load(); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Save Requires Tokens", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Save(models.Principal{UID: "x"}); err == nil {
			t.Error("expected error without refresh token")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		repo.Save(principal)

		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if _, err := repo.Load(); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after clear, got %v", err)
		}
	})
}
