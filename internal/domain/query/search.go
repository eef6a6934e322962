package query

import (
	"strings"
	"time"

	"ram/internal/domain/ram"
)

// DateRange bounds a timestamp; a nil end is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) IsZero() bool { return r.From == nil && r.To == nil }

func (r DateRange) criterion(field Field) Criterion {
	if r.IsZero() {
		return All()
	}
	return Between(field, r.From, r.To)
}

// TestRunSearch lists the optional test run filters. Unset fields do not
// constrain the result; at least one field must be set.
type TestRunSearch struct {
	ExecutionRequestIDs []string
	IDs                 []string
	NameContains        string
	TestingStatuses     []ram.TestingStatus
	ExecutionStatuses   []ram.ExecutionStatus
	RootCauseIDs        []string
	HasRootCause        *bool
	LabelIDs            []string
	ParentTestRunID     string
	RootsOnly           bool
	Started             DateRange
}

func (s TestRunSearch) Criterion() (Criterion, error) {
	var parent Criterion
	switch {
	case s.ParentTestRunID != "":
		parent = Eq(FieldParentID, s.ParentTestRunID)
	case s.RootsOnly:
		parent = Missing(FieldParentID)
	}
	return AndRequired("test run search",
		inOrAll(FieldExecutionRequestID, s.ExecutionRequestIDs),
		inOrAll(FieldID, s.IDs),
		containsOrAll(FieldName, s.NameContains),
		inOrAll(FieldTestingStatus, Strings(s.TestingStatuses)),
		inOrAll(FieldExecutionStatus, Strings(s.ExecutionStatuses)),
		inOrAll(FieldRootCauseID, s.RootCauseIDs),
		presence(FieldRootCauseID, s.HasRootCause),
		inOrAll(FieldLabel, s.LabelIDs),
		parent,
		s.Started.criterion(FieldStartDate),
	)
}

// IssueSearch filters issues of one execution request.
type IssueSearch struct {
	ExecutionRequestID string
	IDs                []string
	MessageContains    string
	Priorities         []ram.Priority
	FailPatternIDs     []string
	HasFailPattern     *bool
	Tickets            []string
	LogRecordIDs       []string
}

func (s IssueSearch) Criterion() (Criterion, error) {
	if strings.TrimSpace(s.ExecutionRequestID) == "" {
		return AndRequired("issue search")
	}
	return AndRequired("issue search",
		Eq(FieldExecutionRequestID, s.ExecutionRequestID),
		inOrAll(FieldID, s.IDs),
		containsOrAll(FieldMessage, s.MessageContains),
		inOrAll(FieldPriority, Strings(s.Priorities)),
		inOrAll(FieldFailPatternID, s.FailPatternIDs),
		presence(FieldFailPatternID, s.HasFailPattern),
		inOrAll(FieldTicket, s.Tickets),
		inOrAll(FieldLogRecordID, s.LogRecordIDs),
	)
}

// FailPatternSearch filters the fail patterns of one project.
type FailPatternSearch struct {
	ProjectID    string
	IDs          []string
	NameContains string
	Priorities   []ram.Priority
	RootCauseIDs []string
	Tickets      []string
}

func (s FailPatternSearch) Criterion() (Criterion, error) {
	if strings.TrimSpace(s.ProjectID) == "" {
		return AndRequired("fail pattern search")
	}
	return AndRequired("fail pattern search",
		Eq(FieldProjectID, s.ProjectID),
		inOrAll(FieldID, s.IDs),
		containsOrAll(FieldName, s.NameContains),
		inOrAll(FieldPriority, Strings(s.Priorities)),
		inOrAll(FieldRootCauseID, s.RootCauseIDs),
		inOrAll(FieldTicket, s.Tickets),
	)
}

// RecordRestriction prunes a log record walk: a record outside the given
// statuses or types is dropped along with its whole subtree.
type RecordRestriction struct {
	TestingStatuses []ram.TestingStatus
	Types           []ram.RecordType
}

func (r RecordRestriction) Criterion() Criterion {
	return AndOptional(
		inOrAll(FieldTestingStatus, Strings(r.TestingStatuses)),
		inOrAll(FieldType, Strings(r.Types)),
	)
}

func inOrAll(field Field, values []string) Criterion {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return All()
	}
	return In(field, kept...)
}

func containsOrAll(field Field, substr string) Criterion {
	if strings.TrimSpace(substr) == "" {
		return All()
	}
	return Contains(field, substr)
}

func presence(field Field, want *bool) Criterion {
	switch {
	case want == nil:
		return All()
	case *want:
		return Exists(field)
	default:
		return Missing(field)
	}
}
