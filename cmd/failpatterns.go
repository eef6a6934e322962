package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"ram/internal/bootstrap"
	"ram/internal/bootstrap/logging"
	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/ports"
	"ram/internal/usecase/reporting"
)

var failPatternsCmd = &cobra.Command{
	Use:   "failpatterns",
	Short: "Search fail patterns and match them against messages",
}

var failPatternsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the fail patterns of a project",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		project, _ := cmd.Flags().GetString("project")
		ids, _ := cmd.Flags().GetStringSlice("id")
		name, _ := cmd.Flags().GetString("name")
		rawPriorities, _ := cmd.Flags().GetStringSlice("priority")
		rootCauses, _ := cmd.Flags().GetStringSlice("root-cause")
		tickets, _ := cmd.Flags().GetStringSlice("ticket")

		priorities, err := ram.ParseList(rawPriorities, ram.ParsePriority)
		if err != nil {
			return err
		}
		sorts, err := sortsFromFlags(cmd)
		if err != nil {
			return err
		}

		page, err := svc.SearchFailPatterns(ctx, query.FailPatternSearch{
			ProjectID:    project,
			IDs:          ids,
			NameContains: name,
			Priorities:   priorities,
			RootCauseIDs: rootCauses,
			Tickets:      tickets,
		}, sorts, pageFromFlags(cmd))
		if err != nil {
			logging.Error(ctx, "search fail patterns failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "search fail patterns")
		}

		if err := renderFailPatterns(cmd, page.Items); err != nil {
			return err
		}
		return writePageFooter(cmd.OutOrStdout(), page)
	}),
}

var failPatternsMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "List the fail patterns whose rule matches a message",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		project, _ := cmd.Flags().GetString("project")
		message, _ := cmd.Flags().GetString("message")

		items, err := svc.MatchFailPatterns(ctx, project, message)
		if err != nil {
			logging.Error(ctx, "match fail patterns failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "match fail patterns")
		}
		return renderFailPatterns(cmd, items)
	}),
}

func renderFailPatterns(cmd *cobra.Command, items []ports.FailPattern) error {
	l := newListing("id", "name", "priority", "rule", "root cause", "tickets")
	for _, p := range items {
		l.row(p.ID, p.Name, p.Priority, p.Rule, orDash(p.RootCauseID), orDash(strings.Join(p.JiraTickets, "\n")))
	}
	l.wrap(4, 60)
	return l.render(cmd.OutOrStdout())
}

func init() {
	rootCmd.AddCommand(failPatternsCmd)
	failPatternsCmd.AddCommand(failPatternsSearchCmd, failPatternsMatchCmd)

	f := failPatternsSearchCmd.Flags()
	f.String("project", "", "Project id (required)")
	f.StringSlice("id", nil, "Fail pattern ids")
	f.String("name", "", "Case-insensitive name substring")
	f.StringSlice("priority", nil, "Priorities")
	f.StringSlice("root-cause", nil, "Root cause ids")
	f.StringSlice("ticket", nil, "Ticket URLs")
	addSortFlag(failPatternsSearchCmd, []query.SortKey{
		query.SortName, query.SortMessage, query.SortPriority, query.SortRootCause, query.SortTicket,
	})
	addPageFlags(failPatternsSearchCmd)

	failPatternsMatchCmd.Flags().String("project", "", "Project id")
	failPatternsMatchCmd.Flags().String("message", "", "Log record message to classify")
}
