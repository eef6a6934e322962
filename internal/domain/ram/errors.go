package ram

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrCorruptHierarchy = errors.New("corrupt hierarchy")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrInvalidPage      = errors.New("invalid page request")
	ErrInvalidSortKey   = errors.New("invalid sort key")
	ErrStoreTimeout     = errors.New("store timeout")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidRecordType      = errors.New("invalid log record type")
	ErrInvalidTestingStatus   = errors.New("invalid testing status")
	ErrInvalidExecutionStatus = errors.New("invalid execution status")
	ErrInvalidPriority        = errors.New("invalid priority")
)

// IsTransient reports whether a caller may reasonably retry err.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreTimeout) || errors.Is(err, ErrStoreUnavailable)
}

// IsCallerError reports whether err is caused by bad input rather than a server fault.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidSortKey)
}
