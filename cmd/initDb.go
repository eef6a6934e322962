/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ram/internal/bootstrap"
	"ram/internal/bootstrap/logging"
	"ram/internal/errs"
	"ram/internal/usecase/reporting"
)

// initDbCmd migrates the store; running it again is harmless.
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the reporting tables and record the schema version",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "start init-db")

		if err := app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		logging.Info(ctx, "init-db finished", slog.String("database_dsn", app.Config.Database.DSN), slog.String("schema_version", bootstrap.SchemaVersion))
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "database schema v%s initialized: %s\n", bootstrap.SchemaVersion, app.Config.Database.DSN); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
