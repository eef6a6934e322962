package repository

import (
	"context"
	"slices"
	"strings"

	"gorm.io/gorm"

	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/infrastructure/persistence/sqlite/model"
	"ram/internal/ports"
)

const testRunOrder = "test_runs.start_date asc, test_runs.id asc"

type TestRunRepository struct {
	base
}

var _ ports.TestRunRepository = (*TestRunRepository)(nil)

func NewTestRunRepository(db *gorm.DB, settings Settings) *TestRunRepository {
	return &TestRunRepository{base: base{db: db, settings: settings}}
}

func (r *TestRunRepository) GetTestRun(ctx context.Context, id string) (ports.TestRun, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.TestRun{}, err
	}
	defer done()

	var row model.TestRun
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return ports.TestRun{}, notFound(db, err, "test run", id)
	}
	items, err := r.withLabels(db, []model.TestRun{row})
	if err != nil {
		return ports.TestRun{}, err
	}
	return items[0], nil
}

func (r *TestRunRepository) ListTestRunsByIDs(ctx context.Context, ids []string) ([]ports.TestRun, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var rows []model.TestRun
	err = inBatches(ids, func(batch []string) error {
		var part []model.TestRun
		if err := db.Where("id IN ?", batch).Order(testRunOrder).Find(&part).Error; err != nil {
			return storeError(db, err, "query test runs by id")
		}
		rows = append(rows, part...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortTestRuns(rows, len(ids))
	return r.withLabels(db, rows)
}

func (r *TestRunRepository) ListChildTestRuns(ctx context.Context, parentIDs []string, restrict query.Criterion) ([]ports.TestRun, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var rows []model.TestRun
	err = inBatches(parentIDs, func(batch []string) error {
		scoped, err := testRunFields.where(db.Model(&model.TestRun{}).Where("test_runs.parent_test_run_id IN ?", batch), restrict)
		if err != nil {
			return err
		}
		var part []model.TestRun
		if err := scoped.Order(testRunOrder).Find(&part).Error; err != nil {
			return storeError(db, err, "query child test runs")
		}
		rows = append(rows, part...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortTestRuns(rows, len(parentIDs))
	return r.withLabels(db, rows)
}

func (r *TestRunRepository) SearchTestRuns(ctx context.Context, where query.Criterion, sorts []query.Sort, page query.PageRequest) (query.Page[ports.TestRun], error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return query.Page[ports.TestRun]{}, err
	}
	defer done()

	order, err := orderBy(testRunFields.table, testRunSorts, sorts)
	if err != nil {
		return query.Page[ports.TestRun]{}, err
	}
	scoped, err := testRunFields.where(db.Model(&model.TestRun{}), where)
	if err != nil {
		return query.Page[ports.TestRun]{}, err
	}

	rows, total, err := paginate[model.TestRun](scoped, order, page)
	if err != nil {
		return query.Page[ports.TestRun]{}, err
	}
	items, err := r.withLabels(db, rows)
	if err != nil {
		return query.Page[ports.TestRun]{}, errs.Staged(errs.StagePagination, err)
	}
	return pageOf(items, total, page), nil
}

type statusCount struct {
	TestingStatus string
	Total         int64
}

func (r *TestRunRepository) CountTestRunsByStatus(ctx context.Context, executionRequestID string) (map[ram.TestingStatus]int64, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var rows []statusCount
	if err := db.Model(&model.TestRun{}).
		Select("testing_status, COUNT(*) AS total").
		Where("execution_request_id = ?", executionRequestID).
		Group("testing_status").
		Scan(&rows).Error; err != nil {
		return nil, storeError(db, err, "count test runs by status")
	}

	out := make(map[ram.TestingStatus]int64, len(rows))
	for _, row := range rows {
		out[ram.TestingStatus(row.TestingStatus)] = row.Total
	}
	return out, nil
}

func (r *TestRunRepository) withLabels(db *gorm.DB, rows []model.TestRun) ([]ports.TestRun, error) {
	labels, err := loadJoined(db, testRunFields.joins[query.FieldLabel], idsOf(rows, func(m model.TestRun) string { return m.ID }))
	if err != nil {
		return nil, err
	}
	items := make([]ports.TestRun, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapTestRun(row, labels[row.ID]))
	}
	return items, nil
}

// sortTestRuns restores testRunOrder across batches. sqlite sorts a missing
// start date first.
func sortTestRuns(rows []model.TestRun, boundIDs int) {
	if boundIDs <= idBatchSize {
		return
	}
	slices.SortStableFunc(rows, func(a, b model.TestRun) int {
		switch {
		case a.StartDate == nil && b.StartDate != nil:
			return -1
		case a.StartDate != nil && b.StartDate == nil:
			return 1
		case a.StartDate != nil:
			if c := a.StartDate.Compare(*b.StartDate); c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID, b.ID)
	})
}
