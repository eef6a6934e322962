package model

import (
	"time"

	"gorm.io/datatypes"
)

type LogRecord struct {
	ID               string         `gorm:"column:id;type:text;primaryKey"`
	TestRunID        string         `gorm:"column:test_run_id;type:text;not null;index"`
	ParentRecordID   string         `gorm:"column:parent_record_id;type:text;not null;default:'';index"`
	Name             string         `gorm:"column:name;type:text;not null"`
	Message          string         `gorm:"column:message;type:text;not null;default:''"`
	Type             string         `gorm:"column:type;type:text;not null"`
	TestingStatus    string         `gorm:"column:testing_status;type:text;not null"`
	ExecutionStatus  string         `gorm:"column:execution_status;type:text;not null;default:''"`
	CreatedDateStamp time.Time      `gorm:"column:created_date_stamp;not null"`
	LastUpdated      *time.Time     `gorm:"column:last_updated"`
	StartDate        *time.Time     `gorm:"column:start_date"`
	EndDate          *time.Time     `gorm:"column:end_date"`
	Preview          string         `gorm:"column:preview;type:text;not null;default:''"`
	FileType         string         `gorm:"column:file_type;type:text;not null;default:''"`
	FileName         string         `gorm:"column:file_name;type:text;not null;default:''"`
	ValidationTable  datatypes.JSON `gorm:"column:validation_table"`
}

func (LogRecord) TableName() string {
	return "log_records"
}

type LogRecordLabel struct {
	LogRecordID string `gorm:"column:log_record_id;type:text;not null;primaryKey"`
	Label       string `gorm:"column:label;type:text;not null;primaryKey"`
}

func (LogRecordLabel) TableName() string {
	return "log_record_labels"
}
