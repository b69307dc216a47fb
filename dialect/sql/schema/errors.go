package schema

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx, and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes (Class 42).
const (
	pgDuplicateTable = "42P07"
	pgUndefinedTable = "42P01"
)

// MySQL error numbers.
const (
	mysqlTableExists  = 1050
	mysqlUnknownTable = 1051 // DROP TABLE without IF EXISTS
	mysqlNoSuchTable  = 1146
)

// IsTableExistsError reports if the error resulted from creating a table
// that already exists.
func IsTableExistsError(err error) bool {
	if err == nil {
		return false
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlTableExists
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == pgDuplicateTable
	}

	// Check for SQLSTATE code (pgx)
	if e, ok := asError[sqlStateError](err); ok {
		if e.SQLState() == pgDuplicateTable {
			return true
		}
	}

	// Fallback to string matching for drivers that don't expose codes
	return containsAny(err.Error(),
		"Error 1050",     // MySQL
		"already exists", // Postgres, SQLite
	)
}

// IsTableNotFoundError reports if the error resulted from reading or
// dropping a table that does not exist, typically a monthly table that
// was never created.
func IsTableNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoSuchTable || me.Number == mysqlUnknownTable
	}

	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == pgUndefinedTable
	}

	// Check for SQLSTATE code (pgx)
	if e, ok := asError[sqlStateError](err); ok {
		if e.SQLState() == pgUndefinedTable {
			return true
		}
	}

	// Fallback to string matching for drivers that don't expose codes
	return containsAny(err.Error(),
		"Error 1146",     // MySQL
		"doesn't exist",  // MySQL
		"does not exist", // Postgres
		"no such table",  // SQLite
	)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
