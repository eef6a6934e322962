package ports

import (
	"context"

	"ram/internal/domain/query"
	"ram/internal/domain/ram"
)

// LogRecordRepository reads the log record tree. Children and roots come
// back in store order: created date stamp, then id.
type LogRecordRepository interface {
	GetLogRecord(ctx context.Context, id string) (LogRecord, error)
	ListLogRecordsByIDs(ctx context.Context, ids []string) ([]LogRecord, error)
	// ListChildRecords returns the direct children of every parent id that
	// satisfy restrict. A zero restrict matches every child.
	ListChildRecords(ctx context.Context, parentIDs []string, restrict query.Criterion) ([]LogRecord, error)
	ListRootRecords(ctx context.Context, testRunID string, where query.Criterion) ([]LogRecord, error)
}

type TestRunRepository interface {
	GetTestRun(ctx context.Context, id string) (TestRun, error)
	ListTestRunsByIDs(ctx context.Context, ids []string) ([]TestRun, error)
	ListChildTestRuns(ctx context.Context, parentIDs []string, restrict query.Criterion) ([]TestRun, error)
	SearchTestRuns(ctx context.Context, where query.Criterion, sorts []query.Sort, page query.PageRequest) (query.Page[TestRun], error)
	CountTestRunsByStatus(ctx context.Context, executionRequestID string) (map[ram.TestingStatus]int64, error)
}

type AnalyticsRepository interface {
	GetExecutionRequest(ctx context.Context, id string) (ExecutionRequest, error)
	GetIssue(ctx context.Context, id string) (Issue, error)
	SearchIssues(ctx context.Context, where query.Criterion, sorts []query.Sort, page query.PageRequest) (query.Page[Issue], error)
	// DistinctIssueTickets pages the distinct ticket URLs of the issues
	// matching where, ordered by URL.
	DistinctIssueTickets(ctx context.Context, where query.Criterion, page query.PageRequest) (query.Page[string], error)
	SearchFailPatterns(ctx context.Context, where query.Criterion, sorts []query.Sort, page query.PageRequest) (query.Page[FailPattern], error)
	ListFailPatterns(ctx context.Context, projectID string) ([]FailPattern, error)
	ListRootCauses(ctx context.Context, projectID string) ([]RootCause, error)
}

// IngestRepository upserts by id. Callers group the writes of one fixture
// in a UnitOfWork.
type IngestRepository interface {
	SaveExecutionRequests(ctx context.Context, items []ExecutionRequest) error
	SaveTestRuns(ctx context.Context, items []TestRun) error
	SaveLogRecords(ctx context.Context, items []LogRecord) error
	SaveRootCauses(ctx context.Context, items []RootCause) error
	SaveFailPatterns(ctx context.Context, items []FailPattern) error
	SaveIssues(ctx context.Context, items []Issue) error
}
