package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"ram/internal/bootstrap"
	"ram/internal/bootstrap/logging"
	"ram/internal/errs"
	"ram/internal/usecase/reporting"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a YAML, TOML or JSON fixture into the store",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		path, _ := cmd.Flags().GetString("file")
		watch, _ := cmd.Flags().GetBool("watch")
		if strings.TrimSpace(path) == "" {
			return errors.New("--file is required")
		}

		load := func(ctx context.Context) error {
			return ingestFile(ctx, cmd.OutOrStdout(), svc, path)
		}
		if err := load(ctx); err != nil {
			logging.Error(ctx, "ingest fixture failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "ingest fixture")
		}
		if !watch {
			return nil
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		logging.Info(ctx, "watching fixture", slog.String("path", path))
		return watchFixture(ctx, path, load)
	}),
}

var fixtureSchemaCmd = &cobra.Command{
	Use:   "fixture-schema",
	Short: "Print the JSON Schema of ingest fixtures",
	RunE: func(cmd *cobra.Command, _ []string) error {
		schema, err := reporting.FixtureSchema()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(schema)); err != nil {
			return errs.Wrap(err, "write fixture schema")
		}
		return nil
	},
}

func ingestFile(ctx context.Context, out io.Writer, svc *reporting.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrapf(err, "read fixture %s", path)
	}
	fixture, err := reporting.DecodeFixture(path, data)
	if err != nil {
		return err
	}
	summary, err := svc.Ingest(ctx, fixture)
	if err != nil {
		return err
	}

	l := newListing("kind", "rows")
	l.row("execution requests", summary.ExecutionRequests)
	l.row("test runs", summary.TestRuns)
	l.row("log records", summary.LogRecords)
	l.row("issues", summary.Issues)
	l.row("root causes", summary.RootCauses)
	l.row("fail patterns", summary.FailPatterns)
	if _, err := fmt.Fprintf(out, "ingested %s\n", path); err != nil {
		return errs.Wrap(err, "write ingest output")
	}
	return l.render(out)
}

// watchFixture calls reload whenever path is written or recreated, until
// ctx is done. A failed reload is logged and the watch goes on.
func watchFixture(ctx context.Context, path string, reload func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create fixture watcher")
	}
	defer watcher.Close()

	// The directory is watched so that replace-on-save still fires.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errs.Wrapf(err, "watch %s", filepath.Dir(target))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := reload(ctx); err != nil {
				logging.Warn(ctx, "reload fixture failed", slog.String("path", path), slog.Any("err", errs.Loggable(err)))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn(ctx, "fixture watcher error", slog.Any("err", errs.Loggable(err)))
		}
	}
}

func init() {
	rootCmd.AddCommand(ingestCmd, fixtureSchemaCmd)

	ingestCmd.Flags().String("file", "", "Fixture file (.yaml, .yml, .toml or .json)")
	ingestCmd.Flags().Bool("watch", false, "Ingest again whenever the file changes")
}
