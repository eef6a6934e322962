package ram

import (
	"fmt"
	"strings"
)

type RecordType string

const (
	RecordTypeUI        RecordType = "UI"
	RecordTypeCompound  RecordType = "COMPOUND"
	RecordTypeREST      RecordType = "REST"
	RecordTypeSQL       RecordType = "SQL"
	RecordTypeSSH       RecordType = "SSH"
	RecordTypeTechnical RecordType = "TECHNICAL"
	RecordTypeBV        RecordType = "BV"
	RecordTypeITF       RecordType = "ITF"
	RecordTypeDefault   RecordType = "DEFAULT"
)

var recordTypes = []RecordType{
	RecordTypeUI,
	RecordTypeCompound,
	RecordTypeREST,
	RecordTypeSQL,
	RecordTypeSSH,
	RecordTypeTechnical,
	RecordTypeBV,
	RecordTypeITF,
	RecordTypeDefault,
}

type TestingStatus string

const (
	TestingStatusPassed     TestingStatus = "PASSED"
	TestingStatusFailed     TestingStatus = "FAILED"
	TestingStatusWarning    TestingStatus = "WARNING"
	TestingStatusSkipped    TestingStatus = "SKIPPED"
	TestingStatusStopped    TestingStatus = "STOPPED"
	TestingStatusBlocked    TestingStatus = "BLOCKED"
	TestingStatusNotStarted TestingStatus = "NOT_STARTED"
	TestingStatusUnknown    TestingStatus = "UNKNOWN"
)

// TestingStatusOrder ranks statuses from most to least severe. Sorting by
// testing status follows this order rather than the alphabet.
var TestingStatusOrder = []TestingStatus{
	TestingStatusFailed,
	TestingStatusWarning,
	TestingStatusBlocked,
	TestingStatusStopped,
	TestingStatusSkipped,
	TestingStatusPassed,
	TestingStatusNotStarted,
	TestingStatusUnknown,
}

type ExecutionStatus string

const (
	ExecutionStatusNotStarted ExecutionStatus = "NOT_STARTED"
	ExecutionStatusInProgress ExecutionStatus = "IN_PROGRESS"
	ExecutionStatusFinished   ExecutionStatus = "FINISHED"
	ExecutionStatusStopped    ExecutionStatus = "STOPPED"
	ExecutionStatusTerminated ExecutionStatus = "TERMINATED"
	ExecutionStatusSuspended  ExecutionStatus = "SUSPENDED"
)

var executionStatuses = []ExecutionStatus{
	ExecutionStatusNotStarted,
	ExecutionStatusInProgress,
	ExecutionStatusFinished,
	ExecutionStatusStopped,
	ExecutionStatusTerminated,
	ExecutionStatusSuspended,
}

type Priority string

const (
	PriorityBlocker  Priority = "BLOCKER"
	PriorityCritical Priority = "CRITICAL"
	PriorityMajor    Priority = "MAJOR"
	PriorityNormal   Priority = "NORMAL"
	PriorityMinor    Priority = "MINOR"
	PriorityLow      Priority = "LOW"
)

// PriorityOrder lists priorities from most to least severe.
var PriorityOrder = []Priority{
	PriorityBlocker,
	PriorityCritical,
	PriorityMajor,
	PriorityNormal,
	PriorityMinor,
	PriorityLow,
}

type RootCauseType string

const (
	RootCauseTypeGlobal  RootCauseType = "GLOBAL"
	RootCauseTypeProject RootCauseType = "PROJECT"
)

func ParseRecordType(value string) (RecordType, error) {
	return parseEnum(value, recordTypes, ErrInvalidRecordType)
}

func ParseTestingStatus(value string) (TestingStatus, error) {
	return parseEnum(value, TestingStatusOrder, ErrInvalidTestingStatus)
}

func ParseExecutionStatus(value string) (ExecutionStatus, error) {
	return parseEnum(value, executionStatuses, ErrInvalidExecutionStatus)
}

func ParsePriority(value string) (Priority, error) {
	return parseEnum(value, PriorityOrder, ErrInvalidPriority)
}

// ParseList parses a list of enum values with parse, skipping blanks.
func ParseList[T ~string](values []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := parse(value)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

func parseEnum[T ~string](value string, allowed []T, sentinel error) (T, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, candidate := range allowed {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", sentinel, value)
}
