package reporting

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"ram/internal/bootstrap/logging"
	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/ports"
)

func (s *Service) SearchTestRuns(ctx context.Context, search query.TestRunSearch, sorts []query.Sort, page query.PageRequest) (query.Page[ports.TestRun], error) {
	where, err := search.Criterion()
	if err != nil {
		return query.Page[ports.TestRun]{}, errs.Staged(errs.StageFilterBuild, err)
	}
	page, err = s.page(page)
	if err != nil {
		return query.Page[ports.TestRun]{}, err
	}
	result, err := s.testRuns.SearchTestRuns(ctx, where, sorts, page)
	if err != nil {
		return query.Page[ports.TestRun]{}, errs.Wrap(err, "search test runs")
	}
	return result, nil
}

func (s *Service) SearchIssues(ctx context.Context, search query.IssueSearch, sorts []query.Sort, page query.PageRequest) (query.Page[ports.Issue], error) {
	where, err := search.Criterion()
	if err != nil {
		return query.Page[ports.Issue]{}, errs.Staged(errs.StageFilterBuild, err)
	}
	page, err = s.page(page)
	if err != nil {
		return query.Page[ports.Issue]{}, err
	}
	result, err := s.analytics.SearchIssues(ctx, where, sorts, page)
	if err != nil {
		return query.Page[ports.Issue]{}, errs.Wrap(err, "search issues")
	}
	return result, nil
}

// IssueTickets pages the distinct ticket URLs attached to the issues
// matching search.
func (s *Service) IssueTickets(ctx context.Context, search query.IssueSearch, page query.PageRequest) (query.Page[string], error) {
	where, err := search.Criterion()
	if err != nil {
		return query.Page[string]{}, errs.Staged(errs.StageFilterBuild, err)
	}
	page, err = s.page(page)
	if err != nil {
		return query.Page[string]{}, err
	}
	result, err := s.analytics.DistinctIssueTickets(ctx, where, page)
	if err != nil {
		return query.Page[string]{}, errs.Wrap(err, "list issue tickets")
	}
	return result, nil
}

func (s *Service) SearchFailPatterns(ctx context.Context, search query.FailPatternSearch, sorts []query.Sort, page query.PageRequest) (query.Page[ports.FailPattern], error) {
	where, err := search.Criterion()
	if err != nil {
		return query.Page[ports.FailPattern]{}, errs.Staged(errs.StageFilterBuild, err)
	}
	page, err = s.page(page)
	if err != nil {
		return query.Page[ports.FailPattern]{}, err
	}
	result, err := s.analytics.SearchFailPatterns(ctx, where, sorts, page)
	if err != nil {
		return query.Page[ports.FailPattern]{}, errs.Wrap(err, "search fail patterns")
	}
	return result, nil
}

// IssueFailedTestRuns returns the FAILED test runs owning the log records
// of an issue, each run once.
func (s *Service) IssueFailedTestRuns(ctx context.Context, issueID string) ([]ports.TestRun, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, errIDRequired
	}
	issue, err := s.analytics.GetIssue(ctx, issueID)
	if err != nil {
		return nil, errs.Wrapf(err, "get issue %s", issueID)
	}

	records, err := s.records.ListLogRecordsByIDs(ctx, issue.LogRecordIDs)
	if err != nil {
		return nil, errs.Wrapf(err, "load log records of issue %s", issueID)
	}
	seen := make(map[string]struct{}, len(records))
	runIDs := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.TestRunID]; ok || r.TestRunID == "" {
			continue
		}
		seen[r.TestRunID] = struct{}{}
		runIDs = append(runIDs, r.TestRunID)
	}

	runs, err := s.testRuns.ListTestRunsByIDs(ctx, runIDs)
	if err != nil {
		return nil, errs.Wrapf(err, "load test runs of issue %s", issueID)
	}
	failed := query.Eq(query.FieldTestingStatus, string(ram.TestingStatusFailed))
	out := make([]ports.TestRun, 0, len(runs))
	for _, run := range runs {
		ok, err := query.Match(failed, run)
		if err != nil {
			return nil, errs.Staged(errs.StageFilterBuild, err)
		}
		if ok {
			out = append(out, run)
		}
	}
	return out, nil
}

// MatchFailPatterns returns the fail patterns of a project whose rule
// matches message. A rule that does not compile is skipped with a warning.
func (s *Service) MatchFailPatterns(ctx context.Context, projectID, message string) ([]ports.FailPattern, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errIDRequired
	}
	ctx = opContext(ctx, "match_fail_patterns")

	patterns, err := s.analytics.ListFailPatterns(ctx, projectID)
	if err != nil {
		return nil, errs.Wrapf(err, "list fail patterns of project %s", projectID)
	}

	var out []ports.FailPattern
	for _, p := range patterns {
		re, err := regexp.Compile(p.Rule)
		if err != nil {
			logging.Warn(ctx, "skip fail pattern with invalid rule",
				slog.String("fail_pattern_id", p.ID),
				slog.Any("err", errs.Loggable(err)),
			)
			continue
		}
		if re.MatchString(message) {
			out = append(out, p)
		}
	}
	return out, nil
}
