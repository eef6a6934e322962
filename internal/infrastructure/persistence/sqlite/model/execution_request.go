package model

import "time"

type ExecutionRequest struct {
	ID            string     `gorm:"column:id;type:text;primaryKey"`
	Name          string     `gorm:"column:name;type:text;not null"`
	ProjectID     string     `gorm:"column:project_id;type:text;not null;index"`
	EnvironmentID string     `gorm:"column:environment_id;type:text;not null;default:''"`
	ExecutorID    string     `gorm:"column:executor_id;type:text;not null;default:''"`
	PassedRate    float64    `gorm:"column:passed_rate;not null;default:0"`
	FailedRate    float64    `gorm:"column:failed_rate;not null;default:0"`
	WarningRate   float64    `gorm:"column:warning_rate;not null;default:0"`
	AnalyzedByQA  bool       `gorm:"column:analyzed_by_qa;not null;default:0"`
	StartDate     *time.Time `gorm:"column:start_date"`
	FinishDate    *time.Time `gorm:"column:finish_date"`
}

func (ExecutionRequest) TableName() string {
	return "execution_requests"
}
