/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"ram/internal/bootstrap/logging"
	"ram/internal/errs"
)

var cfgFile string

// rootCmd only groups the reporting subcommands; it has no action of its own.
var rootCmd = &cobra.Command{
	Use:   "ram",
	Short: "Inspect test runs, log record trees and failure analytics",
	Long: `ram loads test execution fixtures into a SQLite store and answers
reporting queries over them: log record tree walks, paged searches over
test runs, issues and fail patterns, and execution request overviews.`,
	SilenceUsage: true,
}

// Execute runs the command named on the command line. Logs go to stderr
// as text until a command's config selects another level or format.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logging.SetDefault(slog.New(slog.NewTextHandler(rootCmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	ctx = logging.WithAttrs(ctx, slog.String("app", "ram"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config; without it ./configs/config.yaml, then ./config.yaml, then RAM_* env and defaults")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "Output format: table or markdown")
}
