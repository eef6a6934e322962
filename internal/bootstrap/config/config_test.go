package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  dsn: "+filepath.Join(dir, "ram.db")+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Name != "ram" || cfg.Database.Driver != "sqlite" {
		t.Fatalf("Load() app=%+v db=%+v", cfg.App, cfg.Database)
	}
	if cfg.Query.MaxDepth != 256 || cfg.Query.DefaultPageSize != 20 || cfg.Query.MaxPageSize != 500 {
		t.Fatalf("Load() query = %+v", cfg.Query)
	}
	if cfg.Query.StoreTimeout != 10*time.Second || !cfg.Query.CacheAncestors {
		t.Fatalf("Load() query = %+v", cfg.Query)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "database:\n  dsn: " + filepath.Join(dir, "ram.db") + "\nquery:\n  max_depth: 12\n  store_timeout: 250ms\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RAM_QUERY_MAX_PAGE_SIZE", "50")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Query.MaxDepth != 12 || cfg.Query.StoreTimeout != 250*time.Millisecond || cfg.Query.MaxPageSize != 50 {
		t.Fatalf("Load() query = %+v", cfg.Query)
	}
}

func TestLoadRejectsBadQueryBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "database:\n  dsn: x.db\nquery:\n  default_page_size: 50\n  max_page_size: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(context.Background(), path); err == nil {
		t.Fatalf("Load() expected error for max_page_size below default")
	}
}
