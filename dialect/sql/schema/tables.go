package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/luffluo/ormsupport"
	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql"
	"github.com/luffluo/ormsupport/shard"
)

// Tables creates, drops and lists the physical tables of monthly
// sharded entities.
type Tables struct {
	drv       dialect.Driver
	dialect   string
	prefix    string
	drop      bool
	workers   int
	tableFunc shard.TableFunc
	logger    *slog.Logger
}

// TablesOption allows for managing table creation using functional options.
type TablesOption func(*Tables) error

// WithPrefix sets a prefix added to every table name.
func WithPrefix(prefix string) TablesOption {
	return func(t *Tables) error {
		if prefix != "" && !sql.IsValidIdentifier(prefix) {
			return ormsupport.NewArgumentError("prefix", prefix, "invalid table prefix")
		}
		t.prefix = prefix
		return nil
	}
}

// WithDrop makes CreateLike drop an existing table before creating it.
func WithDrop(drop bool) TablesOption {
	return func(t *Tables) error {
		t.drop = drop
		return nil
	}
}

// WithWorkers bounds the number of concurrent statements run by
// CreateMonths. Default is 4.
func WithWorkers(n int) TablesOption {
	return func(t *Tables) error {
		if n < 1 {
			return ormsupport.NewArgumentError("workers", n, "must be positive")
		}
		t.workers = n
		return nil
	}
}

// WithTableFunc sets how monthly table names are derived. Default is
// shard.DefaultTable.
func WithTableFunc(f shard.TableFunc) TablesOption {
	return func(t *Tables) error {
		if f == nil {
			return ormsupport.NewArgumentError("table func", nil, "must not be nil")
		}
		t.tableFunc = f
		return nil
	}
}

// WithLogger sets the logger receiving one debug record per statement.
func WithLogger(logger *slog.Logger) TablesOption {
	return func(t *Tables) error {
		if logger == nil {
			return ormsupport.NewArgumentError("logger", nil, "must not be nil")
		}
		t.logger = logger
		return nil
	}
}

// NewTables returns a table manager running its statements on drv.
func NewTables(drv dialect.Driver, opts ...TablesOption) (*Tables, error) {
	if drv == nil {
		return nil, ormsupport.NewArgumentError("driver", nil, "must not be nil")
	}
	t := &Tables{
		drv:       drv,
		dialect:   dialect.Normalize(drv.Dialect()),
		workers:   4,
		tableFunc: shard.DefaultTable,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	switch t.dialect {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
	default:
		return nil, ormsupport.NewArgumentError("dialect", t.dialect, "unsupported dialect")
	}
	return t, nil
}

// Dialect returns the dialect of the underlying driver.
func (t *Tables) Dialect() string {
	return t.dialect
}

// Name returns the physical name of table, including the prefix.
func (t *Tables) Name(table string) string {
	return t.prefix + table
}

// MonthlyName returns the physical name of base for month m.
func (t *Tables) MonthlyName(base string, m shard.Month) string {
	return t.Name(t.tableFunc(base, m))
}

func (t *Tables) exec(ctx context.Context, b *sql.Builder) error {
	query := b.String()
	t.logger.DebugContext(ctx, "exec", "dialect", t.dialect, "sql", query)
	return t.drv.Exec(ctx, query, []any{}, nil)
}

func (t *Tables) builder() *sql.Builder {
	b := &sql.Builder{}
	b.SetDialect(t.dialect)
	return b
}

func checkName(name, table string) error {
	if !sql.IsValidIdentifier(table) {
		return ormsupport.NewArgumentError(name, table, "invalid table name")
	}
	return nil
}

// CreateLike creates table with the structure of from. An empty from
// means table itself, which makes the call a no-op when the table
// exists. When drop is enabled, table is dropped first.
func (t *Tables) CreateLike(ctx context.Context, table, from string) error {
	if from == "" {
		from = table
	}
	if err := checkName("table", table); err != nil {
		return err
	}
	if err := checkName("from", from); err != nil {
		return err
	}
	if t.drop && table == from {
		return ormsupport.NewArgumentError("from", from, "cannot drop and recreate the source table")
	}
	name, source := t.Name(table), t.Name(from)
	if t.drop {
		if err := t.Drop(ctx, table); err != nil {
			return err
		}
	}
	b := t.builder().WriteString("CREATE TABLE IF NOT EXISTS ").Ident(name)
	switch t.dialect {
	case dialect.Postgres:
		b.WriteString(" (LIKE ").Ident(source).WriteString(" INCLUDING ALL)")
	case dialect.SQLite:
		b.WriteString(" AS SELECT * FROM ").Ident(source).WriteString(" WHERE 0")
	default:
		b.WriteString(" LIKE ").Ident(source)
	}
	if err := t.exec(ctx, b); err != nil {
		return fmt.Errorf("schema: create table %q like %q: %w", name, source, err)
	}
	return nil
}

// CreateMonthly creates base+suffix with the structure of base+fromSuffix.
//
//	tables.CreateMonthly(ctx, "orders", "_202402", "_202401")
func (t *Tables) CreateMonthly(ctx context.Context, base, suffix, fromSuffix string) error {
	return t.CreateLike(ctx, base+suffix, base+fromSuffix)
}

// CreateMonths creates the monthly tables of base for every month with
// the structure of template. Statements run concurrently, bounded by
// WithWorkers. The first failure cancels the statements not yet started.
func (t *Tables) CreateMonths(ctx context.Context, base, template string, months []shard.Month) error {
	if len(months) == 0 {
		return ormsupport.NewArgumentError("months", months, "at least one month is required")
	}
	if template == "" {
		return ormsupport.NewArgumentError("template", template, "a template table is required")
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for _, m := range months {
		table := t.tableFunc(base, m)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return t.CreateLike(ctx, table, template)
		})
	}
	return g.Wait()
}

// Drop drops table if it exists.
func (t *Tables) Drop(ctx context.Context, table string) error {
	if err := checkName("table", table); err != nil {
		return err
	}
	name := t.Name(table)
	if err := t.exec(ctx, t.builder().WriteString("DROP TABLE IF EXISTS ").Ident(name)); err != nil {
		return fmt.Errorf("schema: drop table %q: %w", name, err)
	}
	return nil
}

// DropMonths drops the monthly tables of base for every month.
func (t *Tables) DropMonths(ctx context.Context, base string, months []shard.Month) error {
	for _, m := range months {
		if err := t.Drop(ctx, t.tableFunc(base, m)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tables) listQuery() string {
	switch t.dialect {
	case dialect.Postgres:
		return "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = current_schema()"
	case dialect.SQLite:
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'"
	default:
		return "SHOW TABLES"
	}
}

// List returns the sorted names of all tables in the current database.
// When like is not empty, only names containing it are returned.
func (t *Tables) List(ctx context.Context, like string) ([]string, error) {
	query := t.listQuery()
	t.logger.DebugContext(ctx, "query", "dialect", t.dialect, "sql", query)
	rows := &sql.Rows{}
	if err := t.drv.Query(ctx, query, []any{}, rows); err != nil {
		return nil, fmt.Errorf("schema: list tables: %w", err)
	}
	names, err := sql.ScanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("schema: scan tables: %w", err)
	}
	if like != "" {
		names = slices.DeleteFunc(names, func(n string) bool {
			return !strings.Contains(n, like)
		})
	}
	slices.Sort(names)
	return names, nil
}

// Exists reports whether table exists.
func (t *Tables) Exists(ctx context.Context, table string) (bool, error) {
	name := t.Name(table)
	names, err := t.List(ctx, name)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// FilterSQL collapses runs of whitespace, including newlines, into a
// single space so a statement fits on one log line.
func FilterSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
