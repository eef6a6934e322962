package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ram/internal/bootstrap"
	"ram/internal/bootstrap/logging"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/usecase/reporting"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summaries over an execution request",
}

var reportOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Status counts, rates, top issues and tickets of an execution request",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("execution-request")
		top, _ := cmd.Flags().GetInt("top")

		ov, err := svc.Overview(ctx, id, top)
		if err != nil {
			return errs.Wrap(err, "build overview")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "%s (%s) project %s\n", ov.Request.Name, ov.Request.ID, orDash(ov.Request.ProjectID)); err != nil {
			return errs.Wrap(err, "write overview header")
		}

		statuses := newListing("status", "test runs")
		for _, status := range ram.TestingStatusOrder {
			if n := ov.StatusCounts[status]; n > 0 {
				statuses.row(status, n)
			}
		}
		statuses.row("passed rate", fmt.Sprintf("%.2f%%", ov.Rates.Passed))
		statuses.row("failed rate", fmt.Sprintf("%.2f%%", ov.Rates.Failed))
		statuses.row("warning rate", fmt.Sprintf("%.2f%%", ov.Rates.Warning))
		if err := statuses.render(out); err != nil {
			return err
		}

		issues := newListing("issue", "priority", "message")
		for _, issue := range ov.TopIssues.Items {
			issues.row(issue.ID, issue.Priority, issue.Message)
		}
		issues.wrap(3, 60)
		if err := issues.render(out); err != nil {
			return err
		}

		tickets := newListing("ticket")
		for _, t := range ov.Tickets.Items {
			tickets.row(t)
		}
		if err := tickets.render(out); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%d issues, %d distinct tickets\n", ov.TopIssues.TotalCount, ov.Tickets.TotalCount)
		return errs.Wrap(err, "write overview footer")
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportOverviewCmd)

	reportOverviewCmd.Flags().String("execution-request", "", "Execution request id")
	reportOverviewCmd.Flags().Int("top", 0, "Number of issues and tickets to show; 0 or less uses the default page size")
}
