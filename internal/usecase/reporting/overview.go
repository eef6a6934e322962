package reporting

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"ram/internal/bootstrap/logging"
	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/ports"
)

// Overview summarizes one execution request. Rates are recomputed from the
// test run counts rather than read from the stored request.
type Overview struct {
	Request      ports.ExecutionRequest
	StatusCounts map[ram.TestingStatus]int64
	Rates        ram.StatusRates
	TopIssues    query.Page[ports.Issue]
	Tickets      query.Page[string]
}

// Overview gathers the parts of an execution request summary concurrently.
// The first failing read cancels the others.
func (s *Service) Overview(ctx context.Context, executionRequestID string, topN int) (Overview, error) {
	if strings.TrimSpace(executionRequestID) == "" {
		return Overview{}, errIDRequired
	}
	ctx = opContext(ctx, "overview")
	// topN is a display hint: anything below 1 means the default page.
	page, err := s.page(query.PageRequest{Size: max(topN, 0)})
	if err != nil {
		return Overview{}, err
	}
	issues := query.IssueSearch{ExecutionRequestID: executionRequestID}
	where, err := issues.Criterion()
	if err != nil {
		return Overview{}, errs.Staged(errs.StageFilterBuild, err)
	}
	bySeverity := []query.Sort{{Key: query.SortPriority}}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		req, err := s.analytics.GetExecutionRequest(gctx, executionRequestID)
		if err != nil {
			return errs.Wrapf(err, "get execution request %s", executionRequestID)
		}
		out.Request = req
		return nil
	})
	g.Go(func() error {
		counts, err := s.testRuns.CountTestRunsByStatus(gctx, executionRequestID)
		if err != nil {
			return errs.Wrap(err, "count test runs")
		}
		out.StatusCounts = counts
		return nil
	})
	g.Go(func() error {
		top, err := s.analytics.SearchIssues(gctx, where, bySeverity, page)
		if err != nil {
			return errs.Wrap(err, "top issues")
		}
		out.TopIssues = top
		return nil
	})
	g.Go(func() error {
		tickets, err := s.analytics.DistinctIssueTickets(gctx, where, page)
		if err != nil {
			return errs.Wrap(err, "issue tickets")
		}
		out.Tickets = tickets
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.Error(ctx, "overview failed",
			slog.String("execution_request_id", executionRequestID),
			slog.Any("err", errs.Loggable(err)),
		)
		return Overview{}, err
	}

	out.Rates = ram.ComputeRates(out.StatusCounts)
	return out, nil
}
