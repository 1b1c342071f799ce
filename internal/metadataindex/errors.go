package metadataindex

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/contentvault/resourcestore/internal/restype"
)

// errNoRows lets call sites that expect at most one row use errors.Is
// instead of repeating the sql.ErrNoRows check everywhere.
var errNoRows = sql.ErrNoRows

// wrapDBError folds a raw database/sql error into an Io-kind StoreError
// with operation context, mirroring the teacher's wrapDBError. Callers
// that need to distinguish sql.ErrNoRows or a unique-constraint failure
// into a specific store error kind (NoSuchResource, AlreadyExists) check
// for those with errors.Is/isUniqueConstraint before falling back to
// wrapDBError for everything else.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	return restype.IOError(fmt.Errorf("%s: %w", op, err))
}

// isUniqueConstraint reports whether err is a SQLite UNIQUE constraint
// failure, by message sniffing: the ncruces driver surfaces these as
// plain *sqlite3.Error values whose message contains this SQLite-defined
// substring, and matching on it keeps this package decoupled from the
// exact error type the driver happens to use.
func isUniqueConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNoRows(err error) bool {
	return errors.Is(err, errNoRows)
}
