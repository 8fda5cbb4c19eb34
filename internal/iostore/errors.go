package iostore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// OpenError is returned when the store cannot be opened.
func OpenError(driver, location string, err error) error {
	msg := `Cannot open <em>%s</em> store at <em>%s</em>

<em>How to fix:</em>
  Check <em>store</em> section of ~/.config/gnabcd/config.yaml
  or GNABCD_STORE_* environment variables`
	return &gn.Error{
		Code: errcode.StoreOpenError,
		Msg:  msg,
		Vars: []any{driver, location},
		Err:  fmt.Errorf("open %s store %s: %w", driver, location, err),
	}
}

// WriteError is returned when changes of a dataset cannot be saved.
// Nothing is changed in the store in this case. Constraint violations
// get ConstraintError code, they fail the same way on every attempt.
func WriteError(datasetID string, err error) error {
	code := errcode.WriteError
	if constraintViolation(err) {
		code = errcode.ConstraintError
	}
	return &gn.Error{
		Code: code,
		Msg:  "Cannot save dataset <em>%s</em>",
		Vars: []any{datasetID},
		Err:  fmt.Errorf("write dataset %s: %w", datasetID, err),
	}
}

// CommitConflictError is returned when the dataset was changed since
// its snapshot was read.
func CommitConflictError(datasetID, expected, found string) error {
	return &gn.Error{
		Code: errcode.CommitConflictError,
		Msg:  "Dataset <em>%s</em> was changed by another writer",
		Vars: []any{datasetID},
		Err: fmt.Errorf("dataset %s: expected version %q, found %q",
			datasetID, expected, found),
	}
}

// SnapshotReadError is returned when stored data cannot be read.
func SnapshotReadError(datasetID string, err error) error {
	return &gn.Error{
		Code: errcode.SnapshotReadError,
		Msg:  "Cannot read stored data of <em>%s</em>",
		Vars: []any{datasetID},
		Err:  fmt.Errorf("read dataset %s: %w", datasetID, err),
	}
}

// constraintViolation detects integrity constraint errors of PostgreSQL
// (class 23) and SQLite (SQLITE_CONSTRAINT with extended codes).
func constraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
