package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/fx"

	"ram/internal/infrastructure/persistence/schema"
	"ram/internal/usecase/reporting"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "database:\n  dsn: " + filepath.Join(dir, "state", "ram.db") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestInitSchemaIsRepeatable(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, writeConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	for i := 0; i < 2; i++ {
		if err := app.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema() pass %d error = %v", i, err)
		}
	}

	var meta []schema.ProjectMeta
	if err := app.DB.Where("key = ?", schema.KeySchemaVersion).Find(&meta).Error; err != nil {
		t.Fatalf("read project_meta: %v", err)
	}
	if len(meta) != 1 || meta[0].Value != SchemaVersion {
		t.Fatalf("project_meta = %+v, want one schema_version row", meta)
	}
	version, found, err := schema.GetMeta(ctx, app.DB, schema.KeySchemaVersion)
	if err != nil || !found || version != SchemaVersion {
		t.Fatalf("GetMeta() = %q, %v, %v; want %q", version, found, err, SchemaVersion)
	}
	if !app.DB.Migrator().HasTable("log_records") || !app.DB.Migrator().HasTable("cache_entries") {
		t.Fatalf("InitSchema() did not create the reporting tables")
	}
}

func TestModuleProvidesReportingService(t *testing.T) {
	path := writeConfig(t)
	ctx := context.Background()

	var svc *reporting.Service
	fxApp := fx.New(
		Module,
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		fx.Provide(
			fx.Annotate(
				func() string { return path },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(&svc),
	)
	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx.New() error = %v", err)
	}
	if err := fxApp.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })

	if svc == nil {
		t.Fatalf("reporting service was not populated")
	}
}
