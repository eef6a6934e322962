// Package reporting answers the read queries of the reporting backend and
// loads fixture data into the store.
package reporting

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"ram/internal/bootstrap/logging"
	"ram/internal/domain/query"
	"ram/internal/errs"
	"ram/internal/hierarchy"
	"ram/internal/ports"
)

type Settings struct {
	DefaultPageSize int
	MaxPageSize     int
}

type Deps struct {
	Records   ports.LogRecordRepository
	TestRuns  ports.TestRunRepository
	Analytics ports.AnalyticsRepository
	Ingest    ports.IngestRepository
	UoW       ports.UnitOfWork
	Cache     ports.Cache
	Walk      hierarchy.Options
	Settings  Settings
}

type Service struct {
	records   ports.LogRecordRepository
	testRuns  ports.TestRunRepository
	analytics ports.AnalyticsRepository
	ingest    ports.IngestRepository
	uow       ports.UnitOfWork

	recordTree  *hierarchy.Walker[ports.LogRecord]
	testRunTree *hierarchy.Walker[ports.TestRun]

	settings Settings
	newID    func() string
}

func NewService(deps Deps) *Service {
	walk := deps.Walk
	walk.Cache = deps.Cache
	if deps.Settings.DefaultPageSize <= 0 {
		deps.Settings.DefaultPageSize = 20
	}
	return &Service{
		records:     deps.Records,
		testRuns:    deps.TestRuns,
		analytics:   deps.Analytics,
		ingest:      deps.Ingest,
		uow:         deps.UoW,
		recordTree:  NewRecordWalker(deps.Records, walk),
		testRunTree: NewTestRunWalker(deps.TestRuns, walk),
		settings:    deps.Settings,
		newID:       newID,
	}
}

func NewRecordWalker(repo ports.LogRecordRepository, opts hierarchy.Options) *hierarchy.Walker[ports.LogRecord] {
	return hierarchy.NewWalker(hierarchy.Source[ports.LogRecord]{
		Kind:     "log_record",
		Get:      repo.GetLogRecord,
		GetMany:  repo.ListLogRecordsByIDs,
		Children: repo.ListChildRecords,
	}, opts)
}

func NewTestRunWalker(repo ports.TestRunRepository, opts hierarchy.Options) *hierarchy.Walker[ports.TestRun] {
	return hierarchy.NewWalker(hierarchy.Source[ports.TestRun]{
		Kind:     "test_run",
		Get:      repo.GetTestRun,
		GetMany:  repo.ListTestRunsByIDs,
		Children: repo.ListChildTestRuns,
	}, opts)
}

func (s *Service) page(p query.PageRequest) (query.PageRequest, error) {
	normalized, err := p.Normalize(s.settings.DefaultPageSize, s.settings.MaxPageSize)
	if err != nil {
		return query.PageRequest{}, errs.Staged(errs.StagePagination, err)
	}
	return normalized, nil
}

func opContext(ctx context.Context, operation string) context.Context {
	ctx = logging.WithAttrs(ctx, slog.String("component", "usecase.reporting"))
	return logging.WithOperation(ctx, operation)
}

// newID returns a time-ordered UUID, falling back to a random one.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
