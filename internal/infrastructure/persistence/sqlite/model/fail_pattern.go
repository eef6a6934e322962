package model

type FailPattern struct {
	ID          string `gorm:"column:id;type:text;primaryKey"`
	ProjectID   string `gorm:"column:project_id;type:text;not null;index"`
	Name        string `gorm:"column:name;type:text;not null"`
	Rule        string `gorm:"column:rule;type:text;not null"`
	Message     string `gorm:"column:message;type:text;not null;default:''"`
	Priority    string `gorm:"column:priority;type:text;not null"`
	RootCauseID string `gorm:"column:root_cause_id;type:text;not null;default:''"`
}

func (FailPattern) TableName() string {
	return "fail_patterns"
}

type FailPatternTicket struct {
	FailPatternID string `gorm:"column:fail_pattern_id;type:text;not null;primaryKey"`
	TicketURL     string `gorm:"column:ticket_url;type:text;not null;primaryKey"`
}

func (FailPatternTicket) TableName() string {
	return "fail_pattern_tickets"
}
