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

var testRunsCmd = &cobra.Command{
	Use:   "testruns",
	Short: "Search test runs and walk nested runs",
}

var testRunsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search test runs with filters, sorting and paging",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		search, err := testRunSearchFromFlags(cmd)
		if err != nil {
			return err
		}
		sorts, err := sortsFromFlags(cmd)
		if err != nil {
			return err
		}

		page, err := svc.SearchTestRuns(ctx, search, sorts, pageFromFlags(cmd))
		if err != nil {
			logging.Error(ctx, "search test runs failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "search test runs")
		}

		l := newListing("id", "name", "status", "execution", "started", "duration", "root cause", "labels")
		for _, run := range page.Items {
			l.row(run.ID, run.Name, run.TestingStatus, run.ExecutionStatus, formatTime(run.StartDate), run.Duration, orDash(run.RootCauseID), orDash(strings.Join(run.LabelIDs, ",")))
		}
		if err := l.render(cmd.OutOrStdout()); err != nil {
			return err
		}
		return writePageFooter(cmd.OutOrStdout(), page)
	}),
}

var testRunsTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show a test run and its nested runs",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *reporting.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		nodes, err := svc.TestRunTree(ctx, id)
		if err != nil {
			logging.Error(ctx, "walk test run tree failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "walk test run tree")
		}

		l := newListing("depth", "id", "name", "status", "started")
		for _, n := range nodes {
			l.row(n.Depth, n.Run.ID, strings.Repeat("  ", n.Depth)+n.Run.Name, n.Run.TestingStatus, formatTime(n.Run.StartDate))
		}
		return l.render(cmd.OutOrStdout())
	}),
}

func testRunSearchFromFlags(cmd *cobra.Command) (query.TestRunSearch, error) {
	requests, _ := cmd.Flags().GetStringSlice("execution-request")
	ids, _ := cmd.Flags().GetStringSlice("id")
	name, _ := cmd.Flags().GetString("name")
	rawStatuses, _ := cmd.Flags().GetStringSlice("status")
	rawExecution, _ := cmd.Flags().GetStringSlice("execution-status")
	rootCauses, _ := cmd.Flags().GetStringSlice("root-cause")
	labels, _ := cmd.Flags().GetStringSlice("label")
	parent, _ := cmd.Flags().GetString("parent")
	rootsOnly, _ := cmd.Flags().GetBool("roots-only")

	statuses, err := ram.ParseList(rawStatuses, ram.ParseTestingStatus)
	if err != nil {
		return query.TestRunSearch{}, err
	}
	execution, err := ram.ParseList(rawExecution, ram.ParseExecutionStatus)
	if err != nil {
		return query.TestRunSearch{}, err
	}
	from, err := timeFlag(cmd, "started-from")
	if err != nil {
		return query.TestRunSearch{}, err
	}
	to, err := timeFlag(cmd, "started-to")
	if err != nil {
		return query.TestRunSearch{}, err
	}

	return query.TestRunSearch{
		ExecutionRequestIDs: requests,
		IDs:                 ids,
		NameContains:        name,
		TestingStatuses:     statuses,
		ExecutionStatuses:   execution,
		RootCauseIDs:        rootCauses,
		HasRootCause:        optionalBool(cmd, "has-root-cause"),
		LabelIDs:            labels,
		ParentTestRunID:     parent,
		RootsOnly:           rootsOnly,
		Started:             query.DateRange{From: from, To: to},
	}, nil
}

func addTestRunSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("execution-request", nil, "Execution request ids")
	f.StringSlice("id", nil, "Test run ids")
	f.String("name", "", "Case-insensitive name substring")
	f.StringSlice("status", nil, "Testing statuses")
	f.StringSlice("execution-status", nil, "Execution statuses")
	f.StringSlice("root-cause", nil, "Root cause ids")
	f.Bool("has-root-cause", false, "Require (true) or exclude (false) a root cause")
	f.StringSlice("label", nil, "Label ids")
	f.String("parent", "", "Parent test run id")
	f.Bool("roots-only", false, "Only test runs without a parent")
	f.String("started-from", "", "Earliest start date (RFC3339)")
	f.String("started-to", "", "Latest start date (RFC3339)")
	addSortFlag(cmd, []query.SortKey{
		query.SortName, query.SortStartDate, query.SortFinishDate, query.SortDuration,
		query.SortTestCase, query.SortTestingStatus, query.SortRootCause,
	})
}

func init() {
	rootCmd.AddCommand(testRunsCmd)
	testRunsCmd.AddCommand(testRunsSearchCmd, testRunsTreeCmd)

	addTestRunSearchFlags(testRunsSearchCmd)
	addPageFlags(testRunsSearchCmd)

	testRunsTreeCmd.Flags().String("id", "", "Test run id")
}
