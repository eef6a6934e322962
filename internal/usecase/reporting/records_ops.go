package reporting

import (
	"context"
	"errors"
	"strings"

	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/hierarchy"
	"ram/internal/ports"
)

var errIDRequired = errors.New("id is required")

type DescendantsInput struct {
	RecordID  string
	Statuses  []ram.TestingStatus
	Types     []ram.RecordType
	WithDepth bool
}

// RecordSummary is the light view of a log record used by tree listings.
// Depth is zero unless it was requested.
type RecordSummary struct {
	ID            string
	Name          string
	Preview       string
	Type          ram.RecordType
	TestingStatus ram.TestingStatus
	Depth         int
}

// DescendantSummaries lists every record below RecordID. A record outside
// Statuses or Types is dropped together with everything below it.
func (s *Service) DescendantSummaries(ctx context.Context, in DescendantsInput) ([]RecordSummary, error) {
	if strings.TrimSpace(in.RecordID) == "" {
		return nil, errIDRequired
	}
	restrict := query.RecordRestriction{TestingStatuses: in.Statuses, Types: in.Types}.Criterion()

	visits, err := s.recordTree.Descendants(ctx, in.RecordID, hierarchy.DescendantQuery{Restrict: restrict})
	if err != nil {
		return nil, errs.Wrapf(err, "descendants of log record %s", in.RecordID)
	}

	out := make([]RecordSummary, 0, len(visits))
	for _, v := range visits {
		summary := RecordSummary{
			ID:            v.Node.ID,
			Name:          v.Node.Name,
			Preview:       v.Node.Preview,
			Type:          v.Node.Type,
			TestingStatus: v.Node.TestingStatus,
		}
		if in.WithDepth {
			summary.Depth = v.Depth
		}
		out = append(out, summary)
	}
	return out, nil
}

// AncestorChain returns the records above recordID, direct parent first.
// With testRunID set the chain stops at the first record of another run.
func (s *Service) AncestorChain(ctx context.Context, recordID, testRunID string) ([]ports.LogRecord, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, errIDRequired
	}
	var within query.Criterion
	if testRunID != "" {
		within = query.Eq(query.FieldTestRunID, testRunID)
	}

	visits, err := s.recordTree.Ancestors(ctx, recordID, hierarchy.AncestorQuery{Within: within})
	if err != nil {
		return nil, errs.Wrapf(err, "ancestors of log record %s", recordID)
	}
	return nodes(visits), nil
}

// RootRecords lists the records of a test run that have no parent. With
// onlyFailing set, only roots with a FAILED record somewhere below them
// are kept.
func (s *Service) RootRecords(ctx context.Context, testRunID string, onlyFailing bool) ([]ports.LogRecord, error) {
	if strings.TrimSpace(testRunID) == "" {
		return nil, errIDRequired
	}
	roots, err := s.records.ListRootRecords(ctx, testRunID, query.All())
	if err != nil {
		return nil, errs.Staged(errs.StageTraversal, errs.Wrapf(err, "roots of test run %s", testRunID))
	}
	if !onlyFailing {
		return roots, nil
	}

	failed := query.Eq(query.FieldTestingStatus, string(ram.TestingStatusFailed))
	kept := make([]ports.LogRecord, 0, len(roots))
	for _, root := range roots {
		ok, err := s.recordTree.HasDescendantMatching(ctx, root.ID, failed)
		if err != nil {
			return nil, errs.Wrapf(err, "scan below log record %s", root.ID)
		}
		if ok {
			kept = append(kept, root)
		}
	}
	return kept, nil
}

// TopLevelRecords lists the orchestrator-level steps of a test run: records
// that are not COMPOUND themselves and sit only below COMPOUND records.
func (s *Service) TopLevelRecords(ctx context.Context, testRunID string) ([]ports.LogRecord, error) {
	if strings.TrimSpace(testRunID) == "" {
		return nil, errIDRequired
	}
	roots, err := s.records.ListRootRecords(ctx, testRunID, query.All())
	if err != nil {
		return nil, errs.Staged(errs.StageTraversal, errs.Wrapf(err, "roots of test run %s", testRunID))
	}

	var out []ports.LogRecord
	for _, root := range roots {
		if root.Type != ram.RecordTypeCompound {
			out = append(out, root)
			continue
		}
		visits, err := s.recordTree.Descendants(ctx, root.ID, hierarchy.DescendantQuery{})
		if err != nil {
			return nil, errs.Wrapf(err, "descendants of log record %s", root.ID)
		}
		types := map[string]ram.RecordType{root.ID: root.Type}
		parents := map[string]string{}
		for _, v := range visits {
			types[v.Node.ID] = v.Node.Type
			parents[v.Node.ID] = v.Node.ParentRecordID
		}
		for _, v := range visits {
			if ram.IsTopLevelRecord(v.Node.Type, ancestorTypes(v.Node.ID, parents, types)) {
				out = append(out, v.Node)
			}
		}
	}
	return out, nil
}

// IsTopLevelRecord reports whether a single record is an orchestrator-level
// step.
func (s *Service) IsTopLevelRecord(ctx context.Context, recordID string) (bool, error) {
	if strings.TrimSpace(recordID) == "" {
		return false, errIDRequired
	}
	record, err := s.records.GetLogRecord(ctx, recordID)
	if err != nil {
		return false, errs.Staged(errs.StageTraversal, errs.Wrapf(err, "get log record %s", recordID))
	}
	if record.Type == ram.RecordTypeCompound {
		return false, nil
	}
	ok, err := s.recordTree.AllAncestorsSatisfy(ctx, recordID, query.Eq(query.FieldType, string(ram.RecordTypeCompound)))
	if err != nil {
		return false, errs.Wrapf(err, "ancestors of log record %s", recordID)
	}
	return ok, nil
}

type FailureReason struct {
	Record ports.LogRecord
	Depth  int
}

// FailureReason finds the deepest FAILED record of a test run. found is
// false when no record failed.
func (s *Service) FailureReason(ctx context.Context, testRunID string) (FailureReason, bool, error) {
	if strings.TrimSpace(testRunID) == "" {
		return FailureReason{}, false, errIDRequired
	}
	roots, err := s.records.ListRootRecords(ctx, testRunID, query.All())
	if err != nil {
		return FailureReason{}, false, errs.Staged(errs.StageTraversal, errs.Wrapf(err, "roots of test run %s", testRunID))
	}

	failed := query.Eq(query.FieldTestingStatus, string(ram.TestingStatusFailed))
	var (
		best  hierarchy.Visit[ports.LogRecord]
		found bool
	)
	for _, root := range roots {
		v, ok, err := s.recordTree.DeepestDescendant(ctx, root.ID, hierarchy.DescendantQuery{IncludeStart: true}, failed)
		if err != nil {
			return FailureReason{}, false, errs.Wrapf(err, "scan below log record %s", root.ID)
		}
		if !ok {
			continue
		}
		if !found || v.Depth > best.Depth || (v.Depth == best.Depth && startedBefore(v.Node, best.Node)) {
			best, found = v, true
		}
	}
	if !found {
		return FailureReason{}, false, nil
	}
	return FailureReason{Record: best.Node, Depth: best.Depth}, true, nil
}

type TestRunNode struct {
	Run   ports.TestRun
	Depth int
}

// TestRunTree returns a test run and its nested runs, breadth first.
func (s *Service) TestRunTree(ctx context.Context, testRunID string) ([]TestRunNode, error) {
	if strings.TrimSpace(testRunID) == "" {
		return nil, errIDRequired
	}
	visits, err := s.testRunTree.Descendants(ctx, testRunID, hierarchy.DescendantQuery{IncludeStart: true})
	if err != nil {
		return nil, errs.Wrapf(err, "tree of test run %s", testRunID)
	}
	out := make([]TestRunNode, 0, len(visits))
	for _, v := range visits {
		out = append(out, TestRunNode{Run: v.Node, Depth: v.Depth})
	}
	return out, nil
}

func nodes[N hierarchy.Node](visits []hierarchy.Visit[N]) []N {
	out := make([]N, 0, len(visits))
	for _, v := range visits {
		out = append(out, v.Node)
	}
	return out
}

func ancestorTypes(id string, parents map[string]string, types map[string]ram.RecordType) []ram.RecordType {
	var out []ram.RecordType
	for p := parents[id]; p != ""; p = parents[p] {
		t, ok := types[p]
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out
}

func startedBefore(a, b ports.LogRecord) bool {
	if a.StartDate.IsZero() {
		return false
	}
	return b.StartDate.IsZero() || a.StartDate.Before(b.StartDate)
}
