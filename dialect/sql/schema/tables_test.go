package schema

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luffluo/ormsupport"
	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql"
	"github.com/luffluo/ormsupport/shard"

	_ "modernc.org/sqlite"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func(d string) *sql.Driver) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, func(d string) *sql.Driver { return sql.OpenDB(d, db) }
}

func TestTables_CreateLike(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		opts    []TablesOption
		want    []string
	}{
		{
			name:    "mysql",
			dialect: dialect.MySQL,
			want:    []string{"CREATE TABLE IF NOT EXISTS `orders_202402` LIKE `orders_202401`"},
		},
		{
			name:    "postgres",
			dialect: dialect.Postgres,
			want:    []string{`CREATE TABLE IF NOT EXISTS "orders_202402" (LIKE "orders_202401" INCLUDING ALL)`},
		},
		{
			name:    "sqlite",
			dialect: dialect.SQLite,
			want:    []string{"CREATE TABLE IF NOT EXISTS `orders_202402` AS SELECT * FROM `orders_202401` WHERE 0"},
		},
		{
			name:    "prefix and drop",
			dialect: dialect.MySQL,
			opts:    []TablesOption{WithPrefix("shop_"), WithDrop(true)},
			want: []string{
				"DROP TABLE IF EXISTS `shop_orders_202402`",
				"CREATE TABLE IF NOT EXISTS `shop_orders_202402` LIKE `shop_orders_202401`",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, open := newMock(t)
			tables, err := NewTables(open(tt.dialect), tt.opts...)
			require.NoError(t, err)
			for _, stmt := range tt.want {
				mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
			}
			require.NoError(t, tables.CreateMonthly(context.Background(), "orders", "_202402", "_202401"))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTables_CreateLikeSameTable(t *testing.T) {
	mock, open := newMock(t)
	tables, err := NewTables(open(dialect.MySQL))
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `orders` LIKE `orders`").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, tables.CreateLike(context.Background(), "orders", ""))
	require.NoError(t, mock.ExpectationsWereMet())

	tables, err = NewTables(open(dialect.MySQL), WithDrop(true))
	require.NoError(t, err)
	err = tables.CreateLike(context.Background(), "orders", "")
	assert.True(t, ormsupport.IsInvalidArgument(err))
}

func TestTables_InvalidNames(t *testing.T) {
	_, open := newMock(t)
	tables, err := NewTables(open(dialect.MySQL))
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, ormsupport.IsInvalidArgument(tables.CreateLike(ctx, "orders; DROP TABLE users", "orders")))
	assert.True(t, ormsupport.IsInvalidArgument(tables.CreateLike(ctx, "orders_202401", "bad name")))
	assert.True(t, ormsupport.IsInvalidArgument(tables.Drop(ctx, "")))
	assert.True(t, ormsupport.IsInvalidArgument(tables.CreateMonths(ctx, "orders", "orders", nil)))
	assert.True(t, ormsupport.IsInvalidArgument(tables.CreateMonths(ctx, "orders", "", []shard.Month{{Year: 2024, Month: time.January}})))
	_, err = tables.ValidateMonths(ctx, "orders", nil)
	assert.True(t, ormsupport.IsInvalidArgument(err))
}

func TestTables_ExecError(t *testing.T) {
	mock, open := newMock(t)
	tables, err := NewTables(open(dialect.MySQL))
	require.NoError(t, err)

	mock.ExpectExec("DROP TABLE IF EXISTS `orders_202401`").WillReturnError(errors.New("Error 1142: DROP command denied"))
	err = tables.Drop(context.Background(), "orders_202401")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema: drop table "orders_202401"`)
	assert.Contains(t, err.Error(), "DROP command denied")
}

func TestTables_CreateMonths(t *testing.T) {
	mock, open := newMock(t)
	mock.MatchExpectationsInOrder(false)
	tables, err := NewTables(open(dialect.MySQL), WithWorkers(1), WithTableFunc(shard.Separator("")))
	require.NoError(t, err)

	months := []shard.Month{{Year: 2023, Month: time.December}, {Year: 2024, Month: time.January}, {Year: 2024, Month: time.February}}
	for _, m := range months {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS `orders" + m.String() + "` LIKE `orders`").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, tables.CreateMonths(context.Background(), "orders", "orders", months))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTables_List(t *testing.T) {
	mock, open := newMock(t)
	tables, err := NewTables(open(dialect.MySQL))
	require.NoError(t, err)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"Tables_in_shop"}).
			AddRow("orders_202402").
			AddRow("users").
			AddRow("orders_202401")
	}
	mock.ExpectQuery("SHOW TABLES").WillReturnRows(rows())
	mock.ExpectQuery("SHOW TABLES").WillReturnRows(rows())
	mock.ExpectQuery("SHOW TABLES").WillReturnError(errors.New("connection refused"))

	names, err := tables.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders_202401", "orders_202402", "users"}, names)

	names, err = tables.List(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders_202401", "orders_202402"}, names)

	_, err = tables.List(context.Background(), "")
	assert.ErrorContains(t, err, "schema: list tables")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTables_ListQueries(t *testing.T) {
	tests := []struct {
		dialect string
		query   string
	}{
		{dialect.MySQL, "SHOW TABLES"},
		{dialect.Postgres, "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = current_schema()"},
		{dialect.SQLite, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			mock, open := newMock(t)
			tables, err := NewTables(open(tt.dialect))
			require.NoError(t, err)
			mock.ExpectQuery(tt.query).WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("orders_202401"))
			ok, err := tables.Exists(context.Background(), "orders_202401")
			require.NoError(t, err)
			assert.True(t, ok)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNewTables_Errors(t *testing.T) {
	_, err := NewTables(nil)
	assert.True(t, ormsupport.IsInvalidArgument(err))

	_, open := newMock(t)
	_, err = NewTables(open("oracle"))
	assert.True(t, ormsupport.IsInvalidArgument(err))

	for _, opt := range []TablesOption{WithWorkers(0), WithPrefix("shop-"), WithTableFunc(nil), WithLogger(nil)} {
		_, err = NewTables(open(dialect.MySQL), opt)
		assert.True(t, ormsupport.IsInvalidArgument(err))
	}

	tables, err := NewTables(open("sqlite3"))
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, tables.Dialect())
}

func TestTables_Logger(t *testing.T) {
	mock, open := newMock(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tables, err := NewTables(open(dialect.MySQL), WithLogger(logger))
	require.NoError(t, err)

	mock.ExpectExec("DROP TABLE IF EXISTS `orders_202401`").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, tables.Drop(context.Background(), "orders_202401"))
	assert.Contains(t, buf.String(), "msg=exec")
	assert.Contains(t, buf.String(), "DROP TABLE IF EXISTS `orders_202401`")
}

func TestTables_SQLite(t *testing.T) {
	ctx := context.Background()
	drv, err := sql.Open(dialect.SQLite, "file:tables?mode=memory")
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	tables, err := NewTables(drv)
	require.NoError(t, err)
	require.NoError(t, drv.Exec(ctx, "CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT NOT NULL)", []any{}, nil))

	months := []shard.Month{{Year: 2024, Month: time.January}, {Year: 2024, Month: time.February}, {Year: 2024, Month: time.March}}
	require.NoError(t, tables.CreateMonths(ctx, "orders", "orders", months))
	// Creating again is a no-op.
	require.NoError(t, tables.CreateMonths(ctx, "orders", "orders", months))

	names, err := tables.List(ctx, "orders_")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders_202401", "orders_202402", "orders_202403"}, names)

	require.NoError(t, drv.Exec(ctx, "INSERT INTO orders_202402 (id, status) VALUES (?, ?)", []any{1, "paid"}, nil))

	result, err := tables.ValidateMonths(ctx, "orders", append(months, shard.Month{Year: 2024, Month: time.April}, months[0]))
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
	assert.Equal(t, []string{"orders_202404"}, result.Missing())
	assert.Contains(t, result.String(), "orders_202404 (202404): table does not exist")
	assert.Contains(t, result.String(), "orders_202401 (202401): month requested more than once")

	require.NoError(t, tables.DropMonths(ctx, "orders", months[1:2]))
	ok, err := tables.Exists(ctx, "orders_202402")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = tables.Exists(ctx, "orders_202403")
	require.NoError(t, err)
	assert.True(t, ok)

	err = drv.Exec(ctx, "CREATE TABLE orders_202401 (id INTEGER)", []any{}, nil)
	assert.True(t, IsTableExistsError(err))
	rows := &sql.Rows{}
	err = drv.Query(ctx, "SELECT * FROM orders_202402", []any{}, rows)
	assert.True(t, IsTableNotFoundError(err))

	result, err = tables.ValidateMonths(ctx, "orders", []shard.Month{months[0], months[2]})
	require.NoError(t, err)
	assert.False(t, result.HasErrors())
	assert.Equal(t, "No issues found", result.String())
}

func TestFilterSQL(t *testing.T) {
	query := `
		SELECT *
		FROM   orders_202401
		WHERE  status = ?`
	assert.Equal(t, "SELECT * FROM orders_202401 WHERE status = ?", FilterSQL(query))
	assert.Equal(t, "", FilterSQL(" \n\t"))
}
