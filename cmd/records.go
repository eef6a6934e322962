package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"ram/internal/bootstrap"
	"ram/internal/bootstrap/logging"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/ports"
	"ram/internal/usecase/reporting"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Walk log record trees",
}

var recordsDescendantsCmd = &cobra.Command{
	Use:   "descendants",
	Short: "List the records below a log record",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		rawStatuses, _ := cmd.Flags().GetStringSlice("status")
		rawTypes, _ := cmd.Flags().GetStringSlice("type")
		withDepth, _ := cmd.Flags().GetBool("depth")

		statuses, err := ram.ParseList(rawStatuses, ram.ParseTestingStatus)
		if err != nil {
			return err
		}
		types, err := ram.ParseList(rawTypes, ram.ParseRecordType)
		if err != nil {
			return err
		}

		items, err := svc.DescendantSummaries(ctx, reporting.DescendantsInput{
			RecordID:  id,
			Statuses:  statuses,
			Types:     types,
			WithDepth: withDepth,
		})
		if err != nil {
			logging.Error(ctx, "list descendants failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list descendants")
		}

		l := newListing("depth", "id", "type", "status", "name", "preview")
		for _, item := range items {
			depth := "-"
			if withDepth {
				depth = fmt.Sprint(item.Depth)
			}
			l.row(depth, item.ID, item.Type, item.TestingStatus, indent(item.Name, item.Depth), orDash(item.Preview))
		}
		return l.render(cmd.OutOrStdout())
	}),
}

var recordsAncestorsCmd = &cobra.Command{
	Use:   "ancestors",
	Short: "List the records above a log record, direct parent first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		testRunID, _ := cmd.Flags().GetString("test-run")

		items, err := svc.AncestorChain(ctx, id, testRunID)
		if err != nil {
			logging.Error(ctx, "list ancestors failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list ancestors")
		}
		return renderRecords(cmd, items)
	}),
}

var recordsRootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List the root records of a test run",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		testRunID, _ := cmd.Flags().GetString("test-run")
		failing, _ := cmd.Flags().GetBool("failing")

		items, err := svc.RootRecords(ctx, testRunID, failing)
		if err != nil {
			logging.Error(ctx, "list root records failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list root records")
		}
		return renderRecords(cmd, items)
	}),
}

var recordsTopLevelCmd = &cobra.Command{
	Use:   "top-level",
	Short: "List the orchestrator-level records of a test run",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		testRunID, _ := cmd.Flags().GetString("test-run")
		items, err := svc.TopLevelRecords(ctx, testRunID)
		if err != nil {
			logging.Error(ctx, "list top-level records failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list top-level records")
		}
		return renderRecords(cmd, items)
	}),
}

var recordsIsTopLevelCmd = &cobra.Command{
	Use:   "is-top-level",
	Short: "Tell whether a log record is an orchestrator-level step",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		ok, err := svc.IsTopLevelRecord(ctx, id)
		if err != nil {
			logging.Error(ctx, "classify log record failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "classify log record")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s top-level: %v\n", id, ok); err != nil {
			return errs.Wrap(err, "write is-top-level output")
		}
		return nil
	}),
}

var recordsFailureReasonCmd = &cobra.Command{
	Use:   "failure-reason",
	Short: "Show the deepest failed record of a test run",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		testRunID, _ := cmd.Flags().GetString("test-run")
		reason, found, err := svc.FailureReason(ctx, testRunID)
		if err != nil {
			logging.Error(ctx, "find failure reason failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "find failure reason")
		}
		if !found {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "no failed record in test run %s\n", testRunID)
			return errs.Wrap(err, "write failure-reason output")
		}

		l := newListing("field", "value")
		l.row("record", reason.Record.ID)
		l.row("name", reason.Record.Name)
		l.row("type", reason.Record.Type)
		l.row("depth", reason.Depth)
		l.row("started", formatTime(reason.Record.StartDate))
		l.row("message", orDash(reason.Record.Message))
		l.wrap(2, 100)
		return l.render(cmd.OutOrStdout())
	}),
}

func renderRecords(cmd *cobra.Command, items []ports.LogRecord) error {
	l := newListing("id", "type", "status", "name", "created", "message")
	for _, item := range items {
		l.row(item.ID, item.Type, item.TestingStatus, item.Name, formatTime(item.CreatedDateStamp), orDash(item.Message))
	}
	l.wrap(6, 80)
	return l.render(cmd.OutOrStdout())
}

func indent(name string, depth int) string {
	if depth <= 1 {
		return name
	}
	return strings.Repeat("  ", depth-1) + name
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(
		recordsDescendantsCmd,
		recordsAncestorsCmd,
		recordsRootsCmd,
		recordsTopLevelCmd,
		recordsIsTopLevelCmd,
		recordsFailureReasonCmd,
	)

	recordsDescendantsCmd.Flags().String("id", "", "Log record id")
	recordsDescendantsCmd.Flags().StringSlice("status", nil, "Keep only branches with these testing statuses")
	recordsDescendantsCmd.Flags().StringSlice("type", nil, "Keep only branches with these record types")
	recordsDescendantsCmd.Flags().Bool("depth", false, "Report the depth of each record")

	recordsAncestorsCmd.Flags().String("id", "", "Log record id")
	recordsAncestorsCmd.Flags().String("test-run", "", "Stop at the first ancestor of another test run")

	recordsRootsCmd.Flags().String("test-run", "", "Test run id")
	recordsRootsCmd.Flags().Bool("failing", false, "Only roots with a FAILED record below them")

	recordsTopLevelCmd.Flags().String("test-run", "", "Test run id")
	recordsIsTopLevelCmd.Flags().String("id", "", "Log record id")
	recordsFailureReasonCmd.Flags().String("test-run", "", "Test run id")
}
