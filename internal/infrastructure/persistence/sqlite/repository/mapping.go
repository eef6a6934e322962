package repository

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"ram/internal/domain/ram"
	"ram/internal/infrastructure/persistence/sqlite/model"
	"ram/internal/ports"
)

func mapLogRecord(row model.LogRecord, labels []string) ports.LogRecord {
	return ports.LogRecord{
		ID:               row.ID,
		TestRunID:        row.TestRunID,
		ParentRecordID:   row.ParentRecordID,
		Name:             row.Name,
		Message:          row.Message,
		Type:             ram.RecordType(row.Type),
		TestingStatus:    ram.TestingStatus(row.TestingStatus),
		ExecutionStatus:  ram.ExecutionStatus(row.ExecutionStatus),
		CreatedDateStamp: row.CreatedDateStamp.UTC(),
		LastUpdated:      fromPtr(row.LastUpdated),
		StartDate:        fromPtr(row.StartDate),
		EndDate:          fromPtr(row.EndDate),
		Preview:          row.Preview,
		FileMetadata:     ports.FileMetadata{Type: row.FileType, Name: row.FileName},
		ValidationLabels: labels,
		ValidationTable:  json.RawMessage(row.ValidationTable),
	}
}

func toLogRecordModel(item ports.LogRecord) model.LogRecord {
	created := item.CreatedDateStamp
	if created.IsZero() {
		created = time.Now()
	}
	var table datatypes.JSON
	if len(item.ValidationTable) > 0 {
		table = datatypes.JSON(item.ValidationTable)
	}
	return model.LogRecord{
		ID:               item.ID,
		TestRunID:        item.TestRunID,
		ParentRecordID:   item.ParentRecordID,
		Name:             item.Name,
		Message:          item.Message,
		Type:             string(item.Type),
		TestingStatus:    string(item.TestingStatus),
		ExecutionStatus:  string(item.ExecutionStatus),
		CreatedDateStamp: created.UTC(),
		LastUpdated:      toPtr(item.LastUpdated),
		StartDate:        toPtr(item.StartDate),
		EndDate:          toPtr(item.EndDate),
		Preview:          item.Preview,
		FileType:         item.FileMetadata.Type,
		FileName:         item.FileMetadata.Name,
		ValidationTable:  table,
	}
}

func mapTestRun(row model.TestRun, labels []string) ports.TestRun {
	return ports.TestRun{
		ID:                 row.ID,
		ExecutionRequestID: row.ExecutionRequestID,
		ParentTestRunID:    row.ParentTestRunID,
		Name:               row.Name,
		TestCaseID:         row.TestCaseID,
		TestCaseName:       row.TestCaseName,
		TestingStatus:      ram.TestingStatus(row.TestingStatus),
		ExecutionStatus:    ram.ExecutionStatus(row.ExecutionStatus),
		StartDate:          fromPtr(row.StartDate),
		FinishDate:         fromPtr(row.FinishDate),
		Duration:           row.Duration,
		RootCauseID:        row.RootCauseID,
		LabelIDs:           labels,
		Comment:            row.Comment,
	}
}

func toTestRunModel(item ports.TestRun) model.TestRun {
	return model.TestRun{
		ID:                 item.ID,
		ExecutionRequestID: item.ExecutionRequestID,
		ParentTestRunID:    item.ParentTestRunID,
		Name:               item.Name,
		TestCaseID:         item.TestCaseID,
		TestCaseName:       item.TestCaseName,
		TestingStatus:      string(item.TestingStatus),
		ExecutionStatus:    string(item.ExecutionStatus),
		StartDate:          toPtr(item.StartDate),
		FinishDate:         toPtr(item.FinishDate),
		Duration:           item.Duration,
		RootCauseID:        item.RootCauseID,
		Comment:            item.Comment,
	}
}

func mapExecutionRequest(row model.ExecutionRequest) ports.ExecutionRequest {
	return ports.ExecutionRequest{
		ID:            row.ID,
		Name:          row.Name,
		ProjectID:     row.ProjectID,
		EnvironmentID: row.EnvironmentID,
		ExecutorID:    row.ExecutorID,
		PassedRate:    row.PassedRate,
		FailedRate:    row.FailedRate,
		WarningRate:   row.WarningRate,
		AnalyzedByQA:  row.AnalyzedByQA,
		StartDate:     fromPtr(row.StartDate),
		FinishDate:    fromPtr(row.FinishDate),
	}
}

func toExecutionRequestModel(item ports.ExecutionRequest) model.ExecutionRequest {
	return model.ExecutionRequest{
		ID:            item.ID,
		Name:          item.Name,
		ProjectID:     item.ProjectID,
		EnvironmentID: item.EnvironmentID,
		ExecutorID:    item.ExecutorID,
		PassedRate:    item.PassedRate,
		FailedRate:    item.FailedRate,
		WarningRate:   item.WarningRate,
		AnalyzedByQA:  item.AnalyzedByQA,
		StartDate:     toPtr(item.StartDate),
		FinishDate:    toPtr(item.FinishDate),
	}
}

func mapIssue(row model.Issue, tickets, logRecordIDs []string) ports.Issue {
	return ports.Issue{
		ID:                 row.ID,
		ExecutionRequestID: row.ExecutionRequestID,
		Message:            row.Message,
		FailPatternID:      row.FailPatternID,
		Priority:           ram.Priority(row.Priority),
		JiraTickets:        tickets,
		LogRecordIDs:       logRecordIDs,
	}
}

func mapFailPattern(row model.FailPattern, tickets []string) ports.FailPattern {
	return ports.FailPattern{
		ID:          row.ID,
		ProjectID:   row.ProjectID,
		Name:        row.Name,
		Rule:        row.Rule,
		Message:     row.Message,
		Priority:    ram.Priority(row.Priority),
		RootCauseID: row.RootCauseID,
		JiraTickets: tickets,
	}
}

func mapRootCause(row model.RootCause) ports.RootCause {
	return ports.RootCause{
		ID:        row.ID,
		ProjectID: row.ProjectID,
		ParentID:  row.ParentID,
		Name:      row.Name,
		Type:      ram.RootCauseType(row.Type),
		Disabled:  row.Disabled,
	}
}

func toPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func fromPtr(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
