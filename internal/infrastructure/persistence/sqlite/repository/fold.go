package repository

import (
	"database/sql/driver"

	sqlitedriver "github.com/glebarez/go-sqlite"

	"ram/internal/domain/query"
)

// foldFunc is the SQL name of query.FoldCase. sqlite's LOWER only folds
// ASCII.
const foldFunc = "fold_case"

// Registered on the driver, so every connection opened afterwards has it.
func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldCase)
}

func foldCase(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return query.FoldCase(v), nil
	case []byte:
		return query.FoldCase(string(v)), nil
	default:
		return v, nil
	}
}
