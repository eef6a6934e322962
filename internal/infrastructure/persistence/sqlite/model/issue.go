package model

type Issue struct {
	ID                 string `gorm:"column:id;type:text;primaryKey"`
	ExecutionRequestID string `gorm:"column:execution_request_id;type:text;not null;index"`
	Message            string `gorm:"column:message;type:text;not null"`
	FailPatternID      string `gorm:"column:fail_pattern_id;type:text;not null;default:''"`
	Priority           string `gorm:"column:priority;type:text;not null"`
}

func (Issue) TableName() string {
	return "issues"
}

type IssueLogRecord struct {
	IssueID     string `gorm:"column:issue_id;type:text;not null;primaryKey"`
	LogRecordID string `gorm:"column:log_record_id;type:text;not null;primaryKey;index"`
}

func (IssueLogRecord) TableName() string {
	return "issue_log_records"
}

type IssueTicket struct {
	IssueID   string `gorm:"column:issue_id;type:text;not null;primaryKey"`
	TicketURL string `gorm:"column:ticket_url;type:text;not null;primaryKey;index"`
}

func (IssueTicket) TableName() string {
	return "issue_tickets"
}
