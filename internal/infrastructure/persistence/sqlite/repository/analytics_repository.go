package repository

import (
	"context"

	"gorm.io/gorm"

	"ram/internal/domain/query"
	"ram/internal/errs"
	"ram/internal/infrastructure/persistence/sqlite/model"
	"ram/internal/ports"
)

// AnalyticsRepository reads execution requests and the analysis attached
// to them: issues, fail patterns and root causes.
type AnalyticsRepository struct {
	base
}

var _ ports.AnalyticsRepository = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(db *gorm.DB, settings Settings) *AnalyticsRepository {
	return &AnalyticsRepository{base: base{db: db, settings: settings}}
}

func (r *AnalyticsRepository) GetExecutionRequest(ctx context.Context, id string) (ports.ExecutionRequest, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ExecutionRequest{}, err
	}
	defer done()

	var row model.ExecutionRequest
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return ports.ExecutionRequest{}, notFound(db, err, "execution request", id)
	}
	return mapExecutionRequest(row), nil
}

func (r *AnalyticsRepository) GetIssue(ctx context.Context, id string) (ports.Issue, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Issue{}, err
	}
	defer done()

	var row model.Issue
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return ports.Issue{}, notFound(db, err, "issue", id)
	}
	items, err := r.issueDetails(db, []model.Issue{row})
	if err != nil {
		return ports.Issue{}, err
	}
	return items[0], nil
}

func (r *AnalyticsRepository) SearchIssues(ctx context.Context, where query.Criterion, sorts []query.Sort, page query.PageRequest) (query.Page[ports.Issue], error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return query.Page[ports.Issue]{}, err
	}
	defer done()

	order, err := orderBy(issueFields.table, issueSorts, sorts)
	if err != nil {
		return query.Page[ports.Issue]{}, err
	}
	scoped, err := issueFields.where(db.Model(&model.Issue{}), where)
	if err != nil {
		return query.Page[ports.Issue]{}, err
	}

	rows, total, err := paginate[model.Issue](scoped, order, page)
	if err != nil {
		return query.Page[ports.Issue]{}, err
	}
	items, err := r.issueDetails(db, rows)
	if err != nil {
		return query.Page[ports.Issue]{}, errs.Staged(errs.StagePagination, err)
	}
	return pageOf(items, total, page), nil
}

func (r *AnalyticsRepository) DistinctIssueTickets(ctx context.Context, where query.Criterion, page query.PageRequest) (query.Page[string], error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return query.Page[string]{}, err
	}
	defer done()

	const ticketColumn = "issue_tickets.ticket_url"
	grouped := func() (*gorm.DB, error) {
		scoped := db.Model(&model.IssueTicket{}).
			Joins("JOIN issues ON issues.id = issue_tickets.issue_id")
		scoped, err := issueFields.where(scoped, where)
		if err != nil {
			return nil, err
		}
		return scoped.Group(ticketColumn), nil
	}

	countSource, err := grouped()
	if err != nil {
		return query.Page[string]{}, err
	}
	var total int64
	if err := db.Table("(?) AS grouped", countSource.Select(ticketColumn)).Count(&total).Error; err != nil {
		return query.Page[string]{}, errs.Staged(errs.StagePagination, storeError(db, err, "count distinct tickets"))
	}

	urls := []string{}
	if total > int64(page.Offset()) {
		pageSource, err := grouped()
		if err != nil {
			return query.Page[string]{}, err
		}
		if err := pageSource.
			Order(ticketColumn + " asc").
			Offset(page.Offset()).
			Limit(page.Size).
			Pluck(ticketColumn, &urls).Error; err != nil {
			return query.Page[string]{}, errs.Staged(errs.StagePagination, storeError(db, err, "load distinct tickets"))
		}
	}
	return pageOf(urls, total, page), nil
}

func (r *AnalyticsRepository) SearchFailPatterns(ctx context.Context, where query.Criterion, sorts []query.Sort, page query.PageRequest) (query.Page[ports.FailPattern], error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return query.Page[ports.FailPattern]{}, err
	}
	defer done()

	order, err := orderBy(failPatternFields.table, failPatternSorts, sorts)
	if err != nil {
		return query.Page[ports.FailPattern]{}, err
	}
	scoped, err := failPatternFields.where(db.Model(&model.FailPattern{}), where)
	if err != nil {
		return query.Page[ports.FailPattern]{}, err
	}

	rows, total, err := paginate[model.FailPattern](scoped, order, page)
	if err != nil {
		return query.Page[ports.FailPattern]{}, err
	}
	items, err := r.failPatternDetails(db, rows)
	if err != nil {
		return query.Page[ports.FailPattern]{}, errs.Staged(errs.StagePagination, err)
	}
	return pageOf(items, total, page), nil
}

func (r *AnalyticsRepository) ListFailPatterns(ctx context.Context, projectID string) ([]ports.FailPattern, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var rows []model.FailPattern
	if err := db.Where("project_id = ?", projectID).Order("name asc, id asc").Find(&rows).Error; err != nil {
		return nil, storeError(db, err, "query fail patterns")
	}
	return r.failPatternDetails(db, rows)
}

func (r *AnalyticsRepository) ListRootCauses(ctx context.Context, projectID string) ([]ports.RootCause, error) {
	db, done, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var rows []model.RootCause
	if err := db.
		Where("project_id = ? OR type = ?", projectID, "GLOBAL").
		Order("name asc, id asc").
		Find(&rows).Error; err != nil {
		return nil, storeError(db, err, "query root causes")
	}

	items := make([]ports.RootCause, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRootCause(row))
	}
	return items, nil
}

func (r *AnalyticsRepository) issueDetails(db *gorm.DB, rows []model.Issue) ([]ports.Issue, error) {
	issueIDs := idsOf(rows, func(m model.Issue) string { return m.ID })
	tickets, err := loadJoined(db, issueFields.joins[query.FieldTicket], issueIDs)
	if err != nil {
		return nil, err
	}
	records, err := loadJoined(db, issueFields.joins[query.FieldLogRecordID], issueIDs)
	if err != nil {
		return nil, err
	}

	items := make([]ports.Issue, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapIssue(row, tickets[row.ID], records[row.ID]))
	}
	return items, nil
}

func (r *AnalyticsRepository) failPatternDetails(db *gorm.DB, rows []model.FailPattern) ([]ports.FailPattern, error) {
	tickets, err := loadJoined(db, failPatternFields.joins[query.FieldTicket], idsOf(rows, func(m model.FailPattern) string { return m.ID }))
	if err != nil {
		return nil, err
	}
	items := make([]ports.FailPattern, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapFailPattern(row, tickets[row.ID]))
	}
	return items, nil
}
