package dberrors

import (
	"errors"
	"strings"

	sqlite "modernc.org/sqlite"
)

// SQLite extended result codes for constraint violations.
const (
	codeConstraintUnique     = 2067
	codeConstraintForeignKey = 787
)

// IsUniqueConstraintError checks if the error is a SQLite unique violation
// on the given column (e.g. "Users.Username").
func IsUniqueConstraintError(err error, column string) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == codeConstraintUnique {
		return column == "" || strings.Contains(sqliteErr.Error(), column)
	}
	// The driver sometimes surfaces constraint failures as plain strings
	// when they happen inside a multi-statement exec.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// IsForeignKeyError checks if the error is a SQLite foreign key violation.
func IsForeignKeyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == codeConstraintForeignKey
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
