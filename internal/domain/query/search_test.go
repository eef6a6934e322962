package query

import (
	"errors"
	"testing"

	"ram/internal/domain/ram"
)

func TestTestRunSearchRequiresCriterion(t *testing.T) {
	if _, err := (TestRunSearch{}).Criterion(); !errors.Is(err, ram.ErrInvalidFilter) {
		t.Fatalf("Criterion() error = %v, want ErrInvalidFilter", err)
	}

	yes := true
	c, err := TestRunSearch{
		ExecutionRequestIDs: []string{"er-1", " "},
		NameContains:        "login",
		TestingStatuses:     []ram.TestingStatus{ram.TestingStatusFailed},
		HasRootCause:        &yes,
		RootsOnly:           true,
	}.Criterion()
	if err != nil {
		t.Fatalf("Criterion() error = %v", err)
	}
	if c.Op != OpAnd || len(c.Children) != 5 {
		t.Fatalf("Criterion() = %s", c)
	}
	if c.Children[0].Field != FieldExecutionRequestID || len(c.Children[0].Values) != 1 {
		t.Fatalf("execution request criterion = %s", c.Children[0])
	}
}

func TestIssueSearchNeedsExecutionRequest(t *testing.T) {
	if _, err := (IssueSearch{MessageContains: "timeout"}).Criterion(); !errors.Is(err, ram.ErrInvalidFilter) {
		t.Fatalf("Criterion() error = %v, want ErrInvalidFilter", err)
	}

	c, err := IssueSearch{ExecutionRequestID: "er-1"}.Criterion()
	if err != nil {
		t.Fatalf("Criterion() error = %v", err)
	}
	if c.Op != OpEq || c.Field != FieldExecutionRequestID {
		t.Fatalf("Criterion() = %s", c)
	}
}

func TestFailPatternSearchNeedsProject(t *testing.T) {
	if _, err := (FailPatternSearch{}).Criterion(); !errors.Is(err, ram.ErrInvalidFilter) {
		t.Fatalf("Criterion() error = %v, want ErrInvalidFilter", err)
	}
}

func TestRecordRestriction(t *testing.T) {
	if !(RecordRestriction{}).Criterion().IsZero() {
		t.Fatalf("empty restriction should match all")
	}
	c := RecordRestriction{
		TestingStatuses: []ram.TestingStatus{ram.TestingStatusFailed},
		Types:           []ram.RecordType{ram.RecordTypeUI, ram.RecordTypeCompound},
	}.Criterion()
	if c.Op != OpAnd || len(c.Children) != 2 {
		t.Fatalf("Criterion() = %s", c)
	}
}
