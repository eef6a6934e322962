package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ram/internal/domain/query"
	"ram/internal/errs"
	"ram/internal/infrastructure/persistence/sqlite/model"
	"ram/internal/ports"
)

// IngestRepository upserts fixture data. List fields replace whatever the
// row held before.
type IngestRepository struct {
	base
}

var _ ports.IngestRepository = (*IngestRepository)(nil)

func NewIngestRepository(db *gorm.DB, settings Settings) *IngestRepository {
	return &IngestRepository{base: base{db: db, settings: settings}}
}

var upsertByID = clause.OnConflict{
	Columns:   []clause.Column{{Name: "id"}},
	UpdateAll: true,
}

func (r *IngestRepository) SaveExecutionRequests(ctx context.Context, items []ports.ExecutionRequest) error {
	return r.save(ctx, "execution requests", func(db *gorm.DB) error {
		for _, item := range items {
			row := toExecutionRequestModel(item)
			if err := db.Clauses(upsertByID).Create(&row).Error; err != nil {
				return storeError(db, err, "upsert execution request")
			}
		}
		return nil
	})
}

func (r *IngestRepository) SaveTestRuns(ctx context.Context, items []ports.TestRun) error {
	return r.save(ctx, "test runs", func(db *gorm.DB) error {
		for _, item := range items {
			row := toTestRunModel(item)
			if err := db.Clauses(upsertByID).Create(&row).Error; err != nil {
				return storeError(db, err, "upsert test run")
			}
			if err := replaceJoined(db, testRunFields.joins[query.FieldLabel], item.ID, item.LabelIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *IngestRepository) SaveLogRecords(ctx context.Context, items []ports.LogRecord) error {
	return r.save(ctx, "log records", func(db *gorm.DB) error {
		for _, item := range items {
			row := toLogRecordModel(item)
			if err := db.Clauses(upsertByID).Create(&row).Error; err != nil {
				return storeError(db, err, "upsert log record")
			}
			if err := replaceJoined(db, logRecordFields.joins[query.FieldLabel], item.ID, item.ValidationLabels); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *IngestRepository) SaveRootCauses(ctx context.Context, items []ports.RootCause) error {
	return r.save(ctx, "root causes", func(db *gorm.DB) error {
		for _, item := range items {
			row := model.RootCause{
				ID:        item.ID,
				ProjectID: item.ProjectID,
				ParentID:  item.ParentID,
				Name:      item.Name,
				Type:      string(item.Type),
				Disabled:  item.Disabled,
			}
			if err := db.Clauses(upsertByID).Create(&row).Error; err != nil {
				return storeError(db, err, "upsert root cause")
			}
		}
		return nil
	})
}

func (r *IngestRepository) SaveFailPatterns(ctx context.Context, items []ports.FailPattern) error {
	return r.save(ctx, "fail patterns", func(db *gorm.DB) error {
		for _, item := range items {
			row := model.FailPattern{
				ID:          item.ID,
				ProjectID:   item.ProjectID,
				Name:        item.Name,
				Rule:        item.Rule,
				Message:     item.Message,
				Priority:    string(item.Priority),
				RootCauseID: item.RootCauseID,
			}
			if err := db.Clauses(upsertByID).Create(&row).Error; err != nil {
				return storeError(db, err, "upsert fail pattern")
			}
			if err := replaceJoined(db, failPatternFields.joins[query.FieldTicket], item.ID, item.JiraTickets); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *IngestRepository) SaveIssues(ctx context.Context, items []ports.Issue) error {
	return r.save(ctx, "issues", func(db *gorm.DB) error {
		for _, item := range items {
			row := model.Issue{
				ID:                 item.ID,
				ExecutionRequestID: item.ExecutionRequestID,
				Message:            item.Message,
				FailPatternID:      item.FailPatternID,
				Priority:           string(item.Priority),
			}
			if err := db.Clauses(upsertByID).Create(&row).Error; err != nil {
				return storeError(db, err, "upsert issue")
			}
			if err := replaceJoined(db, issueFields.joins[query.FieldTicket], item.ID, item.JiraTickets); err != nil {
				return err
			}
			if err := replaceJoined(db, issueFields.joins[query.FieldLogRecordID], item.ID, item.LogRecordIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *IngestRepository) save(ctx context.Context, what string, fn func(db *gorm.DB) error) error {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}
	defer done()

	return errs.Wrap(fn(db), "save "+what)
}
