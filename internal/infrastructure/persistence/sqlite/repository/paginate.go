package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ram/internal/domain/query"
	"ram/internal/errs"
)

// paginate counts the rows of scoped, then loads the requested page of
// them in order. Both statements share the same conditions, so the total
// is the size of the filtered set the page was cut from.
func paginate[M any](scoped *gorm.DB, order clause.OrderBy, page query.PageRequest) ([]M, int64, error) {
	scoped = scoped.Session(&gorm.Session{})

	var total int64
	if err := scoped.Count(&total).Error; err != nil {
		return nil, 0, errs.Staged(errs.StagePagination, storeError(scoped, err, "count rows"))
	}

	var rows []M
	if total <= int64(page.Offset()) {
		return rows, total, nil
	}
	if err := scoped.Clauses(order).Offset(page.Offset()).Limit(page.Size).Find(&rows).Error; err != nil {
		return nil, 0, errs.Staged(errs.StagePagination, storeError(scoped, err, "load page"))
	}
	return rows, total, nil
}

func pageOf[T any](items []T, total int64, page query.PageRequest) query.Page[T] {
	if items == nil {
		items = []T{}
	}
	return query.Page[T]{
		Items:      items,
		TotalCount: total,
		Number:     page.Number,
		Size:       page.Size,
	}
}
