package reporting

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ram/internal/bootstrap/logging"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/ports"
)

type IngestSummary struct {
	ExecutionRequests int
	TestRuns          int
	LogRecords        int
	Issues            int
	RootCauses        int
	FailPatterns      int
}

// Ingest writes a fixture in one transaction. Blank ids are generated,
// blank enums take their neutral value and records without created_at are
// stamped in document order so that sibling order survives the round trip.
// Execution request rates are computed from the statuses of their runs.
func (s *Service) Ingest(ctx context.Context, f Fixture) (IngestSummary, error) {
	ctx = opContext(ctx, "ingest")

	b := batch{newID: s.newID, stamp: time.Now().UTC()}
	if err := b.flatten(f); err != nil {
		return IngestSummary{}, err
	}

	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ingest.SaveRootCauses(ctx, b.rootCauses); err != nil {
			return err
		}
		if err := s.ingest.SaveFailPatterns(ctx, b.failPatterns); err != nil {
			return err
		}
		if err := s.ingest.SaveExecutionRequests(ctx, b.requests); err != nil {
			return err
		}
		if err := s.ingest.SaveTestRuns(ctx, b.testRuns); err != nil {
			return err
		}
		if err := s.ingest.SaveLogRecords(ctx, b.records); err != nil {
			return err
		}
		if err := s.ingest.SaveIssues(ctx, b.issues); err != nil {
			return err
		}
		// Upserts may move existing nodes under a new parent.
		if err := s.recordTree.InvalidateAncestors(ctx); err != nil {
			return err
		}
		return s.testRunTree.InvalidateAncestors(ctx)
	})
	if err != nil {
		logging.Error(ctx, "ingest failed", slog.Any("err", errs.Loggable(err)))
		return IngestSummary{}, errs.Wrap(err, "ingest fixture")
	}

	summary := IngestSummary{
		ExecutionRequests: len(b.requests),
		TestRuns:          len(b.testRuns),
		LogRecords:        len(b.records),
		Issues:            len(b.issues),
		RootCauses:        len(b.rootCauses),
		FailPatterns:      len(b.failPatterns),
	}
	logging.Info(ctx, "fixture ingested",
		slog.Int("execution_requests", summary.ExecutionRequests),
		slog.Int("test_runs", summary.TestRuns),
		slog.Int("log_records", summary.LogRecords),
		slog.Int("issues", summary.Issues),
	)
	return summary, nil
}

// batch accumulates the flat rows of a fixture.
type batch struct {
	newID func() string
	stamp time.Time
	seq   int

	requests     []ports.ExecutionRequest
	testRuns     []ports.TestRun
	records      []ports.LogRecord
	issues       []ports.Issue
	rootCauses   []ports.RootCause
	failPatterns []ports.FailPattern
}

func (b *batch) id(given string) string {
	if given != "" {
		return given
	}
	return b.newID()
}

// nextStamp returns a strictly increasing creation time.
func (b *batch) nextStamp() time.Time {
	b.seq++
	return b.stamp.Add(time.Duration(b.seq) * time.Millisecond)
}

func (b *batch) flatten(f Fixture) error {
	for _, rc := range f.RootCauses {
		typ := ram.RootCauseType(rc.Type)
		if typ == "" {
			typ = ram.RootCauseTypeProject
		}
		b.rootCauses = append(b.rootCauses, ports.RootCause{
			ID:        b.id(rc.ID),
			ProjectID: rc.ProjectID,
			ParentID:  rc.ParentID,
			Name:      rc.Name,
			Type:      typ,
			Disabled:  rc.Disabled,
		})
	}

	for _, fp := range f.FailPatterns {
		priority, err := parsePriority(fp.Priority)
		if err != nil {
			return errs.Wrapf(err, "fail pattern %q", fp.Name)
		}
		b.failPatterns = append(b.failPatterns, ports.FailPattern{
			ID:          b.id(fp.ID),
			ProjectID:   fp.ProjectID,
			Name:        fp.Name,
			Rule:        fp.Rule,
			Message:     fp.Message,
			Priority:    priority,
			RootCauseID: fp.RootCauseID,
			JiraTickets: fp.JiraTickets,
		})
	}

	for _, er := range f.ExecutionRequests {
		if err := b.addExecutionRequest(er); err != nil {
			return errs.Wrapf(err, "execution request %q", er.Name)
		}
	}
	return nil
}

func (b *batch) addExecutionRequest(er FixtureExecutionRequest) error {
	id := b.id(er.ID)
	first := len(b.testRuns)
	for _, tr := range er.TestRuns {
		if err := b.addTestRun(id, "", tr); err != nil {
			return err
		}
	}

	counts := make(map[ram.TestingStatus]int64)
	for _, tr := range b.testRuns[first:] {
		counts[tr.TestingStatus]++
	}
	rates := ram.ComputeRates(counts)
	b.requests = append(b.requests, ports.ExecutionRequest{
		ID:            id,
		Name:          er.Name,
		ProjectID:     er.ProjectID,
		EnvironmentID: er.EnvironmentID,
		ExecutorID:    er.ExecutorID,
		PassedRate:    rates.Passed,
		FailedRate:    rates.Failed,
		WarningRate:   rates.Warning,
		AnalyzedByQA:  er.AnalyzedByQA,
		StartDate:     deref(er.StartDate),
		FinishDate:    deref(er.FinishDate),
	})

	for _, is := range er.Issues {
		priority, err := parsePriority(is.Priority)
		if err != nil {
			return errs.Wrapf(err, "issue %q", is.Message)
		}
		b.issues = append(b.issues, ports.Issue{
			ID:                 b.id(is.ID),
			ExecutionRequestID: id,
			Message:            is.Message,
			FailPatternID:      is.FailPatternID,
			Priority:           priority,
			JiraTickets:        is.JiraTickets,
			LogRecordIDs:       is.LogRecordIDs,
		})
	}
	return nil
}

func (b *batch) addTestRun(requestID, parentID string, tr FixtureTestRun) error {
	testing, err := parseTestingStatus(tr.TestingStatus)
	if err != nil {
		return errs.Wrapf(err, "test run %q", tr.Name)
	}
	execution, err := parseExecutionStatus(tr.ExecutionStatus)
	if err != nil {
		return errs.Wrapf(err, "test run %q", tr.Name)
	}
	id := b.id(tr.ID)
	b.testRuns = append(b.testRuns, ports.TestRun{
		ID:                 id,
		ExecutionRequestID: requestID,
		ParentTestRunID:    parentID,
		Name:               tr.Name,
		TestCaseID:         tr.TestCaseID,
		TestCaseName:       tr.TestCaseName,
		TestingStatus:      testing,
		ExecutionStatus:    execution,
		StartDate:          deref(tr.StartDate),
		FinishDate:         deref(tr.FinishDate),
		Duration:           tr.Duration,
		RootCauseID:        tr.RootCauseID,
		LabelIDs:           tr.Labels,
		Comment:            tr.Comment,
	})

	for _, rec := range tr.Records {
		if err := b.addRecord(id, "", rec); err != nil {
			return errs.Wrapf(err, "test run %q", tr.Name)
		}
	}
	for _, child := range tr.TestRuns {
		if err := b.addTestRun(requestID, id, child); err != nil {
			return err
		}
	}
	return nil
}

func (b *batch) addRecord(testRunID, parentID string, rec FixtureLogRecord) error {
	typ, err := parseRecordType(rec.Type)
	if err != nil {
		return errs.Wrapf(err, "log record %q", rec.Name)
	}
	testing, err := parseTestingStatus(rec.TestingStatus)
	if err != nil {
		return errs.Wrapf(err, "log record %q", rec.Name)
	}
	execution, err := parseExecutionStatus(rec.ExecutionStatus)
	if err != nil {
		return errs.Wrapf(err, "log record %q", rec.Name)
	}
	var table json.RawMessage
	if len(rec.ValidationTable) > 0 {
		table, err = json.Marshal(rec.ValidationTable)
		if err != nil {
			return errs.Wrapf(err, "encode validation table of %q", rec.Name)
		}
	}
	created := b.nextStamp()
	if rec.CreatedAt != nil {
		created = rec.CreatedAt.UTC()
	}

	id := b.id(rec.ID)
	b.records = append(b.records, ports.LogRecord{
		ID:               id,
		TestRunID:        testRunID,
		ParentRecordID:   parentID,
		Name:             rec.Name,
		Message:          rec.Message,
		Type:             typ,
		TestingStatus:    testing,
		ExecutionStatus:  execution,
		CreatedDateStamp: created,
		LastUpdated:      created,
		StartDate:        deref(rec.StartDate),
		EndDate:          deref(rec.EndDate),
		Preview:          rec.Preview,
		FileMetadata:     ports.FileMetadata{Type: rec.FileType, Name: rec.FileName},
		ValidationLabels: rec.ValidationLabels,
		ValidationTable:  table,
	})

	for _, child := range rec.Children {
		if err := b.addRecord(testRunID, id, child); err != nil {
			return err
		}
	}
	return nil
}

func parseRecordType(v string) (ram.RecordType, error) {
	if v == "" {
		return ram.RecordTypeDefault, nil
	}
	return ram.ParseRecordType(v)
}

func parseTestingStatus(v string) (ram.TestingStatus, error) {
	if v == "" {
		return ram.TestingStatusUnknown, nil
	}
	return ram.ParseTestingStatus(v)
}

func parseExecutionStatus(v string) (ram.ExecutionStatus, error) {
	if v == "" {
		return ram.ExecutionStatusNotStarted, nil
	}
	return ram.ParseExecutionStatus(v)
}

func parsePriority(v string) (ram.Priority, error) {
	if v == "" {
		return ram.PriorityNormal, nil
	}
	return ram.ParsePriority(v)
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
