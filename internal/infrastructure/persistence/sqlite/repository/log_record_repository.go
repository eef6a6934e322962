package repository

import (
	"context"
	"slices"
	"strings"

	"gorm.io/gorm"

	"ram/internal/domain/query"
	"ram/internal/infrastructure/persistence/sqlite/model"
	"ram/internal/ports"
)

const logRecordOrder = "log_records.created_date_stamp asc, log_records.id asc"

type LogRecordRepository struct {
	base
}

var _ ports.LogRecordRepository = (*LogRecordRepository)(nil)

func NewLogRecordRepository(db *gorm.DB, settings Settings) *LogRecordRepository {
	return &LogRecordRepository{base: base{db: db, settings: settings}}
}

func (r *LogRecordRepository) GetLogRecord(ctx context.Context, id string) (ports.LogRecord, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.LogRecord{}, err
	}
	defer done()

	var row model.LogRecord
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return ports.LogRecord{}, notFound(db, err, "log record", id)
	}
	items, err := r.withLabels(db, []model.LogRecord{row})
	if err != nil {
		return ports.LogRecord{}, err
	}
	return items[0], nil
}

func (r *LogRecordRepository) ListLogRecordsByIDs(ctx context.Context, ids []string) ([]ports.LogRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var rows []model.LogRecord
	err = inBatches(ids, func(batch []string) error {
		var part []model.LogRecord
		if err := db.Where("id IN ?", batch).Order(logRecordOrder).Find(&part).Error; err != nil {
			return storeError(db, err, "query log records by id")
		}
		rows = append(rows, part...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortLogRecords(rows, len(ids))
	return r.withLabels(db, rows)
}

func (r *LogRecordRepository) ListChildRecords(ctx context.Context, parentIDs []string, restrict query.Criterion) ([]ports.LogRecord, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var rows []model.LogRecord
	err = inBatches(parentIDs, func(batch []string) error {
		scoped, err := logRecordFields.where(db.Model(&model.LogRecord{}).Where("log_records.parent_record_id IN ?", batch), restrict)
		if err != nil {
			return err
		}
		var part []model.LogRecord
		if err := scoped.Order(logRecordOrder).Find(&part).Error; err != nil {
			return storeError(db, err, "query child log records")
		}
		rows = append(rows, part...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortLogRecords(rows, len(parentIDs))
	return r.withLabels(db, rows)
}

func (r *LogRecordRepository) ListRootRecords(ctx context.Context, testRunID string, where query.Criterion) ([]ports.LogRecord, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	scoped := db.Model(&model.LogRecord{}).
		Where("log_records.test_run_id = ?", testRunID).
		Where("(log_records.parent_record_id IS NULL OR log_records.parent_record_id = '')")
	scoped, err = logRecordFields.where(scoped, where)
	if err != nil {
		return nil, err
	}

	var rows []model.LogRecord
	if err := scoped.Order(logRecordOrder).Find(&rows).Error; err != nil {
		return nil, storeError(db, err, "query root log records")
	}
	return r.withLabels(db, rows)
}

func (r *LogRecordRepository) withLabels(db *gorm.DB, rows []model.LogRecord) ([]ports.LogRecord, error) {
	labels, err := loadJoined(db, logRecordFields.joins[query.FieldLabel], idsOf(rows, func(m model.LogRecord) string { return m.ID }))
	if err != nil {
		return nil, err
	}
	items := make([]ports.LogRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapLogRecord(row, labels[row.ID]))
	}
	return items, nil
}

// sortLogRecords restores logRecordOrder across batches.
func sortLogRecords(rows []model.LogRecord, boundIDs int) {
	if boundIDs <= idBatchSize {
		return
	}
	slices.SortStableFunc(rows, func(a, b model.LogRecord) int {
		if c := a.CreatedDateStamp.Compare(b.CreatedDateStamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
