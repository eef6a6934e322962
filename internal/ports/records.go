package ports

import (
	"encoding/json"
	"time"

	"ram/internal/domain/query"
	"ram/internal/domain/ram"
)

type FileMetadata struct {
	Type string
	Name string
}

type LogRecord struct {
	ID               string
	TestRunID        string
	ParentRecordID   string
	Name             string
	Message          string
	Type             ram.RecordType
	TestingStatus    ram.TestingStatus
	ExecutionStatus  ram.ExecutionStatus
	CreatedDateStamp time.Time
	LastUpdated      time.Time
	StartDate        time.Time
	EndDate          time.Time
	Preview          string
	FileMetadata     FileMetadata
	ValidationLabels []string
	ValidationTable  json.RawMessage
}

func (r LogRecord) NodeID() string       { return r.ID }
func (r LogRecord) ParentNodeID() string { return r.ParentRecordID }

func (r LogRecord) Value(field query.Field) (any, bool) {
	switch field {
	case query.FieldID:
		return r.ID, true
	case query.FieldParentID:
		return r.ParentRecordID, true
	case query.FieldTestRunID:
		return r.TestRunID, true
	case query.FieldName:
		return r.Name, true
	case query.FieldMessage:
		return r.Message, true
	case query.FieldType:
		return string(r.Type), true
	case query.FieldTestingStatus:
		return string(r.TestingStatus), true
	case query.FieldExecutionStatus:
		return string(r.ExecutionStatus), true
	case query.FieldStartDate:
		return r.StartDate, true
	case query.FieldCreatedAt:
		return r.CreatedDateStamp, true
	case query.FieldFileType:
		return r.FileMetadata.Type, true
	case query.FieldLabel:
		return r.ValidationLabels, true
	default:
		return nil, false
	}
}

type TestRun struct {
	ID                 string
	ExecutionRequestID string
	ParentTestRunID    string
	Name               string
	TestCaseID         string
	TestCaseName       string
	TestingStatus      ram.TestingStatus
	ExecutionStatus    ram.ExecutionStatus
	StartDate          time.Time
	FinishDate         time.Time
	Duration           int64
	RootCauseID        string
	LabelIDs           []string
	Comment            string
}

func (r TestRun) NodeID() string       { return r.ID }
func (r TestRun) ParentNodeID() string { return r.ParentTestRunID }

func (r TestRun) Value(field query.Field) (any, bool) {
	switch field {
	case query.FieldID:
		return r.ID, true
	case query.FieldParentID:
		return r.ParentTestRunID, true
	case query.FieldExecutionRequestID:
		return r.ExecutionRequestID, true
	case query.FieldName:
		return r.Name, true
	case query.FieldTestCaseID:
		return r.TestCaseID, true
	case query.FieldTestingStatus:
		return string(r.TestingStatus), true
	case query.FieldExecutionStatus:
		return string(r.ExecutionStatus), true
	case query.FieldStartDate:
		return r.StartDate, true
	case query.FieldRootCauseID:
		return r.RootCauseID, true
	case query.FieldLabel:
		return r.LabelIDs, true
	default:
		return nil, false
	}
}

type ExecutionRequest struct {
	ID            string
	Name          string
	ProjectID     string
	EnvironmentID string
	ExecutorID    string
	PassedRate    float64
	FailedRate    float64
	WarningRate   float64
	AnalyzedByQA  bool
	StartDate     time.Time
	FinishDate    time.Time
}

type Issue struct {
	ID                 string
	ExecutionRequestID string
	Message            string
	FailPatternID      string
	Priority           ram.Priority
	JiraTickets        []string
	LogRecordIDs       []string
}

func (i Issue) Value(field query.Field) (any, bool) {
	switch field {
	case query.FieldID:
		return i.ID, true
	case query.FieldExecutionRequestID:
		return i.ExecutionRequestID, true
	case query.FieldMessage:
		return i.Message, true
	case query.FieldFailPatternID:
		return i.FailPatternID, true
	case query.FieldPriority:
		return string(i.Priority), true
	case query.FieldTicket:
		return i.JiraTickets, true
	case query.FieldLogRecordID:
		return i.LogRecordIDs, true
	default:
		return nil, false
	}
}

type FailPattern struct {
	ID          string
	ProjectID   string
	Name        string
	Rule        string
	Message     string
	Priority    ram.Priority
	RootCauseID string
	JiraTickets []string
}

func (p FailPattern) Value(field query.Field) (any, bool) {
	switch field {
	case query.FieldID:
		return p.ID, true
	case query.FieldProjectID:
		return p.ProjectID, true
	case query.FieldName:
		return p.Name, true
	case query.FieldMessage:
		return p.Message, true
	case query.FieldPriority:
		return string(p.Priority), true
	case query.FieldRootCauseID:
		return p.RootCauseID, true
	case query.FieldTicket:
		return p.JiraTickets, true
	default:
		return nil, false
	}
}

type RootCause struct {
	ID        string
	ProjectID string
	ParentID  string
	Name      string
	Type      ram.RootCauseType
	Disabled  bool
}
