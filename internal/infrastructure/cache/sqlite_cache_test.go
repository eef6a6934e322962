package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"ram/internal/infrastructure/persistence/sqlite/model"
)

func setupSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cache.db")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&model.CacheEntry{}); err != nil {
		t.Fatalf("auto migrate cache_entries: %v", err)
	}

	return NewSQLiteCache(db)
}

func TestSQLiteCacheSetGetDelete(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "ancestors:log_record:r-3", `["r-2","r-1"]`, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := cache.Get(ctx, "ancestors:log_record:r-3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatalf("Get() expected found=true")
	}
	if value != `["r-2","r-1"]` {
		t.Fatalf("Get() value = %q", value)
	}

	if err := cache.Set(ctx, "ancestors:log_record:r-3", `["r-2"]`, 0); err != nil {
		t.Fatalf("Set(update) error = %v", err)
	}

	value, found, err = cache.Get(ctx, "ancestors:log_record:r-3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != `["r-2"]` {
		t.Fatalf("Get() after update = %q, found=%v", value, found)
	}

	if err := cache.Delete(ctx, "ancestors:log_record:r-3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, found, err = cache.Get(ctx, "ancestors:log_record:r-3")
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if found {
		t.Fatalf("Get() expected found=false after delete")
	}
}

func TestSQLiteCacheExpiresEntries(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, found, err := cache.Get(ctx, "k"); err != nil || !found {
		t.Fatalf("Get() before expiry found=%v err=%v", found, err)
	}

	now = now.Add(2 * time.Minute)
	if _, found, err := cache.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get() after expiry found=%v err=%v", found, err)
	}
}

func TestSQLiteCacheRejectsEmptyKey(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "", "v", 0); err == nil {
		t.Fatalf("Set() expected error for empty key")
	}
	if _, _, err := cache.Get(ctx, ""); err == nil {
		t.Fatalf("Get() expected error for empty key")
	}
	if err := cache.Delete(ctx, ""); err == nil {
		t.Fatalf("Delete() expected error for empty key")
	}
}

func TestSQLiteCacheDeletePrefix(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	for _, key := range []string{
		"ancestors:log_record:a",
		"ancestors:log_record:b",
		"ancestors:test_run:a",
		"ancestors_log_record:x",
	} {
		if err := cache.Set(ctx, key, `[]`, 0); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	removed, err := cache.DeletePrefix(ctx, "ancestors:log_record:")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("DeletePrefix() removed = %d, want 2", removed)
	}
	for key, want := range map[string]bool{
		"ancestors:log_record:a": false,
		"ancestors:test_run:a":   true,
		"ancestors_log_record:x": true,
	} {
		if _, found, err := cache.Get(ctx, key); err != nil || found != want {
			t.Fatalf("Get(%q) found = %v, err = %v; want found = %v", key, found, err, want)
		}
	}

	// "_" is a LIKE wildcard and must not widen the match.
	if removed, err := cache.DeletePrefix(ctx, "ancestors_"); err != nil || removed != 1 {
		t.Fatalf("DeletePrefix(ancestors_) = %d, %v; want 1", removed, err)
	}
}
