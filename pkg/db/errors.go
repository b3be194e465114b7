package db

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsReadOnly reports whether err came from a write attempted through a
// connection opened with mode=ro.
func IsReadOnly(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrReadonly
}
