package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"ram/internal/bootstrap"
	"ram/internal/bootstrap/logging"
	"ram/internal/errs"
	"ram/internal/usecase/reporting"
)

// lifecycleTimeout bounds both opening and closing the store.
const lifecycleTimeout = 10 * time.Second

// withApp adapts a reporting command to cobra's RunE. Every invocation gets
// a fresh fx graph built from --config; the store is closed after run
// returns, even on error.
func withApp(run func(cmd *cobra.Command, app *bootstrap.App, svc *reporting.Service) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		var app *bootstrap.App
		var svc *reporting.Service
		fxApp := fx.New(
			bootstrap.Module,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.NopLogger,
			fx.Populate(&app, &svc),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, lifecycleTimeout)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "open reporting store failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "open reporting store")
		}
		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycleTimeout)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Warn(ctx, "close reporting store failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		return run(cmd, app, svc)
	}
}
