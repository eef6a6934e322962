package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	sqlite3 "modernc.org/sqlite/lib"

	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/ports"
)

// Settings bounds every store call a repository makes.
type Settings struct {
	// Timeout applies per store round trip. Zero leaves the caller's
	// deadline as the only bound.
	Timeout time.Duration
}

type base struct {
	db       *gorm.DB
	settings Settings
}

// dbFromContext picks the transaction carried by ctx, or the root handle,
// bound to a context that carries the store timeout. done releases the
// timeout and must be called once the query finished.
func (b base) dbFromContext(ctx context.Context) (*gorm.DB, func(), error) {
	if ctx == nil {
		return nil, nil, errors.New("context is required")
	}

	done := func() {}
	if b.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.settings.Timeout)
		done = func() { cancel() }
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return b.db.WithContext(ctx), done, nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		done()
		return nil, nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), done, nil
}

// storeError wraps a failed store call with msg and classifies it as a
// timeout or an unavailable store when it is one.
func storeError(db *gorm.DB, err error, msg string) error {
	if err == nil {
		return nil
	}
	switch {
	case isTimeout(db, err):
		return fmt.Errorf("%s: %w: %w", msg, ram.ErrStoreTimeout, err)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", msg, ram.ErrStoreUnavailable, err)
	default:
		return errs.Wrap(err, msg)
	}
}

func isTimeout(db *gorm.DB, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return errors.Is(db.Statement.Context.Err(), context.DeadlineExceeded)
	}
	return false
}

// sqliteError is the shape of driver errors carrying a sqlite result code.
type sqliteError interface {
	Code() int
}

var unavailableCodes = map[int]bool{
	sqlite3.SQLITE_BUSY:     true,
	sqlite3.SQLITE_LOCKED:   true,
	sqlite3.SQLITE_CANTOPEN: true,
	sqlite3.SQLITE_IOERR:    true,
	sqlite3.SQLITE_READONLY: true,
	sqlite3.SQLITE_NOTADB:   true,
}

var unavailableMessages = []string{
	"database is closed",
	"database is locked",
	"unable to open database",
	"disk i/o error",
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var se sqliteError
	// Extended result codes keep the primary code in the low byte.
	if errors.As(err, &se) && unavailableCodes[se.Code()&0xff] {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range unavailableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// notFound maps gorm.ErrRecordNotFound to ram.ErrNotFound.
func notFound(db *gorm.DB, err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %q: %w", what, id, ram.ErrNotFound)
	}
	return storeError(db, err, "query "+what)
}
