package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"

	"github.com/luffluo/ormsupport/dialect"
)

// maxIdentifierLen bounds table and column names.
const maxIdentifierLen = 128

// identRe matches plain and schema qualified identifiers, such as
// orders_202401 or shop.orders_202401.
var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= maxIdentifierLen && identRe.MatchString(s)
}

// IsValidIdentifier reports whether s can be used as a table or column
// name without quoting issues.
func IsValidIdentifier(s string) bool {
	return isValidIdentifier(s)
}

// Driver implements dialect.Driver over a database/sql pool.
type Driver struct {
	Conn
	dialect string
}

// Open opens a database/sql pool for the named driver. Driver names are
// mapped to a dialect with dialect.Normalize, so "sqlite3" and "pgx"
// pools build SQLite and Postgres queries.
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(driverName, db), nil
}

// OpenDB wraps an opened pool.
func OpenDB(driverName string, db *sql.DB) *Driver {
	d := dialect.Normalize(driverName)
	return &Driver{Conn: Conn{ExecQuerier: db, dialect: d}, dialect: d}
}

// DB returns the underlying pool.
func (d *Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements dialect.Driver.
func (d *Driver) Dialect() string {
	return d.dialect
}

// Tx implements dialect.Driver.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with the given options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sql: begin transaction: %w", err)
	}
	return &Tx{Conn: Conn{ExecQuerier: tx, dialect: d.dialect}, Tx: tx}, nil
}

// Close implements dialect.Driver.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier is the part of *sql.DB and *sql.Tx a Conn runs on.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn adapts an ExecQuerier to dialect.ExecQuerier. Arguments are
// passed as []any, the form Selector.Query returns them in.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements dialect.ExecQuerier. v is nil or a *Result.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	res, ok := v.(*Result)
	if !ok && v != nil {
		return fmt.Errorf("sql: exec destination %T, want *sql.Result", v)
	}
	argv, err := argsOf(args)
	if err != nil {
		return err
	}
	r, err := c.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("sql: exec: %w", err)
	}
	if res != nil {
		*res = r
	}
	return nil
}

// Query implements dialect.ExecQuerier. v must be a *Rows.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	rows, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("sql: query destination %T, want *sql.Rows", v)
	}
	argv, err := argsOf(args)
	if err != nil {
		return err
	}
	rs, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("sql: query: %w", err)
	}
	*rows = Rows{rs}
	return nil
}

func argsOf(args any) ([]any, error) {
	switch args := args.(type) {
	case nil:
		return nil, nil
	case []any:
		return args, nil
	default:
		return nil, fmt.Errorf("sql: arguments %T, want []any", args)
	}
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the *sql.Rows of a query.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions is an alias to sql.TxOptions.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the subset of *sql.Rows used for scanning.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// ScanStrings scans the first column of every row, such as the names
// returned by SHOW TABLES, and closes rows.
func ScanStrings(rows ColumnScanner) ([]string, error) {
	defer rows.Close()
	var vs []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}
