package model

import "time"

type TestRun struct {
	ID                 string     `gorm:"column:id;type:text;primaryKey"`
	ExecutionRequestID string     `gorm:"column:execution_request_id;type:text;not null;index"`
	ParentTestRunID    string     `gorm:"column:parent_test_run_id;type:text;not null;default:'';index"`
	Name               string     `gorm:"column:name;type:text;not null"`
	TestCaseID         string     `gorm:"column:test_case_id;type:text;not null;default:''"`
	TestCaseName       string     `gorm:"column:test_case_name;type:text;not null;default:''"`
	TestingStatus      string     `gorm:"column:testing_status;type:text;not null;index"`
	ExecutionStatus    string     `gorm:"column:execution_status;type:text;not null"`
	StartDate          *time.Time `gorm:"column:start_date"`
	FinishDate         *time.Time `gorm:"column:finish_date"`
	Duration           int64      `gorm:"column:duration;not null;default:0"`
	RootCauseID        string     `gorm:"column:root_cause_id;type:text;not null;default:''"`
	Comment            string     `gorm:"column:comment;type:text;not null;default:''"`
}

func (TestRun) TableName() string {
	return "test_runs"
}

type TestRunLabel struct {
	TestRunID string `gorm:"column:test_run_id;type:text;not null;primaryKey"`
	LabelID   string `gorm:"column:label_id;type:text;not null;primaryKey"`
}

func (TestRunLabel) TableName() string {
	return "test_run_labels"
}
