package model

// All lists every table of the schema in migration order.
func All() []any {
	return []any{
		&ExecutionRequest{},
		&TestRun{},
		&TestRunLabel{},
		&LogRecord{},
		&LogRecordLabel{},
		&Issue{},
		&IssueLogRecord{},
		&IssueTicket{},
		&FailPattern{},
		&FailPatternTicket{},
		&RootCause{},
		&CacheEntry{},
	}
}
