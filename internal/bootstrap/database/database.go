package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ram/internal/bootstrap/config"
	"ram/internal/bootstrap/logging"
	"ram/internal/errs"
)

// sqlitePragmas run once on the opened pool. Overview reads overlap with
// ancestor cache writes, so writers wait instead of failing fast.
var sqlitePragmas = []string{
	"PRAGMA busy_timeout = 5000",
}

// Open connects to the store named by cfg. SQL statements are logged
// through slog at warn level and above; a missing row is not a warning.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.database"))

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver != "sqlite" && driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return openSQLite(logCtx, cfg.DSN)
}

func openSQLite(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dir := sqliteDir(dsn); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrapf(err, "create sqlite directory %q", dir)
		}
	}

	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{Logger: sqlLogger(ctx)})
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite db")
	}
	for _, pragma := range sqlitePragmas {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			return nil, errs.Wrapf(err, "apply %q", pragma)
		}
	}

	logging.Info(ctx, "database opened", slog.String("driver", "sqlite"), slog.String("dsn", dsn))
	return db, nil
}

func sqlLogger(ctx context.Context) gormlogger.Interface {
	return gormlogger.NewSlogLogger(logging.Logger(ctx).With("component", "gorm"), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		LogLevel:                  gormlogger.Warn,
	})
}

// sqliteDir returns the directory a file DSN lives in, or "" when there is
// nothing to create (memory databases, bare file names).
func sqliteDir(dsn string) string {
	path := strings.TrimSpace(dsn)
	if path == "" || path == ":memory:" {
		return ""
	}
	if len(path) >= 5 && strings.EqualFold(path[:5], "file:") {
		path = path[5:]
	}
	path, _, _ = strings.Cut(path, "?")
	if dir := filepath.Dir(path); dir != "." {
		return dir
	}
	return ""
}
