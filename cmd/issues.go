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
	"ram/internal/usecase/reporting"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Search the issues of an execution request",
}

var issuesSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search issues with filters, sorting and paging",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		search, err := issueSearchFromFlags(cmd)
		if err != nil {
			return err
		}
		sorts, err := sortsFromFlags(cmd)
		if err != nil {
			return err
		}

		page, err := svc.SearchIssues(ctx, search, sorts, pageFromFlags(cmd))
		if err != nil {
			logging.Error(ctx, "search issues failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "search issues")
		}

		l := newListing("id", "priority", "message", "fail pattern", "tickets", "records")
		for _, issue := range page.Items {
			l.row(issue.ID, issue.Priority, issue.Message, orDash(issue.FailPatternID), orDash(strings.Join(issue.JiraTickets, "\n")), len(issue.LogRecordIDs))
		}
		l.wrap(3, 60)
		if err := l.render(cmd.OutOrStdout()); err != nil {
			return err
		}
		return writePageFooter(cmd.OutOrStdout(), page)
	}),
}

var issuesTicketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Page the distinct tickets of the matching issues",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		search, err := issueSearchFromFlags(cmd)
		if err != nil {
			return err
		}
		page, err := svc.IssueTickets(ctx, search, pageFromFlags(cmd))
		if err != nil {
			logging.Error(ctx, "list issue tickets failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list issue tickets")
		}

		l := newListing("ticket", "key")
		for _, ticket := range page.Items {
			l.row(ticket, orDash(ram.TicketSegment(ticket)))
		}
		if err := l.render(cmd.OutOrStdout()); err != nil {
			return err
		}
		return writePageFooter(cmd.OutOrStdout(), page)
	}),
}

var issuesFailedRunsCmd = &cobra.Command{
	Use:   "failed-runs",
	Short: "List the failed test runs behind an issue",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		runs, err := svc.IssueFailedTestRuns(ctx, id)
		if err != nil {
			logging.Error(ctx, "list failed test runs failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list failed test runs")
		}

		l := newListing("id", "name", "status", "started")
		for _, run := range runs {
			l.row(run.ID, run.Name, run.TestingStatus, formatTime(run.StartDate))
		}
		return l.render(cmd.OutOrStdout())
	}),
}

func issueSearchFromFlags(cmd *cobra.Command) (query.IssueSearch, error) {
	request, _ := cmd.Flags().GetString("execution-request")
	ids, _ := cmd.Flags().GetStringSlice("id")
	message, _ := cmd.Flags().GetString("message")
	rawPriorities, _ := cmd.Flags().GetStringSlice("priority")
	failPatterns, _ := cmd.Flags().GetStringSlice("fail-pattern")
	tickets, _ := cmd.Flags().GetStringSlice("ticket")
	records, _ := cmd.Flags().GetStringSlice("log-record")

	priorities, err := ram.ParseList(rawPriorities, ram.ParsePriority)
	if err != nil {
		return query.IssueSearch{}, err
	}
	return query.IssueSearch{
		ExecutionRequestID: request,
		IDs:                ids,
		MessageContains:    message,
		Priorities:         priorities,
		FailPatternIDs:     failPatterns,
		HasFailPattern:     optionalBool(cmd, "has-fail-pattern"),
		Tickets:            tickets,
		LogRecordIDs:       records,
	}, nil
}

func addIssueFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("execution-request", "", "Execution request id (required)")
	f.StringSlice("id", nil, "Issue ids")
	f.String("message", "", "Case-insensitive message substring")
	f.StringSlice("priority", nil, "Priorities")
	f.StringSlice("fail-pattern", nil, "Fail pattern ids")
	f.Bool("has-fail-pattern", false, "Require (true) or exclude (false) a fail pattern")
	f.StringSlice("ticket", nil, "Ticket URLs")
	f.StringSlice("log-record", nil, "Log record ids")
}

func init() {
	rootCmd.AddCommand(issuesCmd)
	issuesCmd.AddCommand(issuesSearchCmd, issuesTicketsCmd, issuesFailedRunsCmd)

	addIssueFilterFlags(issuesSearchCmd)
	addSortFlag(issuesSearchCmd, []query.SortKey{query.SortMessage, query.SortPriority, query.SortFailPattern, query.SortTicket})
	addPageFlags(issuesSearchCmd)

	addIssueFilterFlags(issuesTicketsCmd)
	addPageFlags(issuesTicketsCmd)

	issuesFailedRunsCmd.Flags().String("id", "", "Issue id")
}
