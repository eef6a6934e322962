package query

import (
	"fmt"

	"ram/internal/domain/ram"
)

// PageRequest selects a zero-based page of Size items.
type PageRequest struct {
	Number int
	Size   int
}

// Normalize fills in the default size and validates bounds.
func (p PageRequest) Normalize(defaultSize, maxSize int) (PageRequest, error) {
	if p.Number < 0 {
		return PageRequest{}, fmt.Errorf("%w: page %d is negative", ram.ErrInvalidPage, p.Number)
	}
	if p.Size == 0 {
		p.Size = defaultSize
	}
	if p.Size < 1 {
		return PageRequest{}, fmt.Errorf("%w: size %d must be positive", ram.ErrInvalidPage, p.Size)
	}
	if maxSize > 0 && p.Size > maxSize {
		return PageRequest{}, fmt.Errorf("%w: size %d exceeds %d", ram.ErrInvalidPage, p.Size, maxSize)
	}
	return p, nil
}

func (p PageRequest) Offset() int { return p.Number * p.Size }

// Page is one slice of a filtered result set plus the size of the whole set.
type Page[T any] struct {
	Items      []T
	TotalCount int64
	Number     int
	Size       int
}

func (p Page[T]) IsLastPage() bool {
	return IsLastPage(p.Number, p.Size, len(p.Items), p.TotalCount)
}

// IsLastPage reports whether the page holding countOnPage items at index
// page reaches the end of total.
func IsLastPage(page, size, countOnPage int, total int64) bool {
	return int64(page)*int64(size)+int64(countOnPage) >= total
}

// MapPage converts the items of a page, keeping its counters.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = fn(item)
	}
	return Page[U]{
		Items:      items,
		TotalCount: p.TotalCount,
		Number:     p.Number,
		Size:       p.Size,
	}
}
