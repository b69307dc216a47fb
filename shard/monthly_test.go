package shard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luffluo/ormsupport"
	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql"

	_ "modernc.org/sqlite"
)

func newTestMonthly(t *testing.T, now time.Time, opts ...Option) *Monthly {
	t.Helper()
	m, err := NewMonthly("Order", append([]Option{WithNow(now)}, opts...)...)
	require.NoError(t, err)
	return m
}

func TestNewMonthly(t *testing.T) {
	m, err := NewMonthly("OrderItem")
	require.NoError(t, err)
	assert.Equal(t, "order_items", m.BaseTable())
	assert.Equal(t, time.Monday, m.Resolver().WeekStart())

	m, err = NewMonthly("Order", WithTable("sales"))
	require.NoError(t, err)
	assert.Equal(t, "sales", m.BaseTable())

	m, err = NewMonthly("", WithTable("sales"))
	require.NoError(t, err)
	assert.Equal(t, "sales", m.BaseTable())

	_, err = NewMonthly("")
	assert.True(t, ormsupport.IsInvalidArgument(err))

	for _, opt := range []Option{
		WithTable("bad name"),
		WithTableFunc(nil),
		WithDialect("oracle"),
		WithBranchFactory(nil),
	} {
		_, err = NewMonthly("Order", opt)
		assert.True(t, ormsupport.IsInvalidArgument(err))
	}
}

func TestMonthly_Tables(t *testing.T) {
	m := newTestMonthly(t, time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, "orders_202403", m.Table())
	assert.Equal(t, "orders_202403", m.TableForYesterday())
	assert.Equal(t, "orders_202402", m.TableForLastMonth())
	assert.Equal(t, "orders_202307", m.TableForDate(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC)))

	table, err := m.TableForLastMonths(3)
	require.NoError(t, err)
	assert.Equal(t, "orders_202312", table)
	_, err = m.TableForLastMonths(0)
	assert.True(t, ormsupport.IsInvalidArgument(err))

	table, err = m.TableForYearMonth("2023-07")
	require.NoError(t, err)
	assert.Equal(t, "orders_202307", table)
	_, err = m.TableForYearMonth("July")
	assert.True(t, ormsupport.IsInvalidArgument(err))

	assert.Equal(t, []string{"orders_202312", "orders_202401"}, m.Tables(months("202312", "202401")))

	m = newTestMonthly(t, time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC), WithSeparator(""))
	assert.Equal(t, "orders202403", m.Table())
}

func TestMonthly_Queries(t *testing.T) {
	now := time.Date(2024, 2, 7, 12, 0, 0, 0, time.UTC)
	m := newTestMonthly(t, now)

	tests := []struct {
		name  string
		query func() (*ComposedQuery, error)
		want  []string
	}{
		{"current", m.Query, []string{"orders_202402"}},
		{"yesterday", m.QueryForYesterday, []string{"orders_202402"}},
		{"last week", m.QueryForLastWeek, []string{"orders_202401", "orders_202402"}},
		{"last weeks", func() (*ComposedQuery, error) { return m.QueryForLastWeeks(1) }, []string{"orders_202401", "orders_202402"}},
		{"last month", m.QueryForLastMonth, []string{"orders_202401"}},
		{"last months", func() (*ComposedQuery, error) { return m.QueryForLastMonths(3) }, []string{"orders_202311"}},
		{"year month", func() (*ComposedQuery, error) { return m.QueryForYearMonth("202312") }, []string{"orders_202312"}},
		{"date", func() (*ComposedQuery, error) { return m.QueryForDate(time.Date(2023, 5, 5, 0, 0, 0, 0, time.UTC)) }, []string{"orders_202305"}},
		{
			"period",
			func() (*ComposedQuery, error) {
				return m.QueryForPeriod(time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
			},
			[]string{"orders_202311", "orders_202312", "orders_202401"},
		},
		{
			"parsed period",
			func() (*ComposedQuery, error) { return m.QueryForParsedPeriod("2023-12", "2024-01-31") },
			[]string{"orders_202312", "orders_202401"},
		},
		{
			"since",
			func() (*ComposedQuery, error) { return m.QueryForSince(time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)) },
			[]string{"orders_202312", "orders_202401", "orders_202402"},
		},
		{"months", func() (*ComposedQuery, error) { return m.QueryForMonths(months("202401", "202403")) }, []string{"orders_202401", "orders_202403"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.query()
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Tables())
			assert.Equal(t, "orders", q.Base())
		})
	}
}

func TestMonthly_QueryErrors(t *testing.T) {
	m := newTestMonthly(t, time.Date(2024, 2, 7, 12, 0, 0, 0, time.UTC))

	_, err := m.QueryForPeriod(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ormsupport.IsInvalidRange(err))
	_, err = m.QueryForSince(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ormsupport.IsInvalidRange(err))
	_, err = m.QueryForLastWeeks(0)
	assert.True(t, ormsupport.IsInvalidArgument(err))
	_, err = m.QueryForLastMonths(-2)
	assert.True(t, ormsupport.IsInvalidArgument(err))
	_, err = m.QueryForYearMonth("soon")
	assert.True(t, ormsupport.IsInvalidArgument(err))
	_, err = m.QueryForMonths(nil)
	assert.True(t, ormsupport.IsInvalidArgument(err))
}

func TestMonthly_Dialect(t *testing.T) {
	m := newTestMonthly(t, time.Date(2024, 2, 7, 12, 0, 0, 0, time.UTC), WithDialect("postgresql"))
	q, err := m.QueryForLastWeek()
	require.NoError(t, err)
	require.NoError(t, q.Where("status", "=", "paid"))

	query, args, err := q.Query()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "orders_202401" WHERE "status" = $1 UNION ALL SELECT * FROM "orders_202402" WHERE "status" = $2`, query)
	assert.Equal(t, []any{"paid", "paid"}, args)
}

func TestMonthly_SQLite(t *testing.T) {
	ctx := context.Background()
	drv, err := sql.Open(dialect.SQLite, "file:monthly?mode=memory")
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	type order struct {
		id     int
		status string
		region string
	}
	data := map[string][]order{
		"orders_202401": {{1, "paid", "EU"}, {2, "paid", "APAC"}, {3, "open", "US"}},
		"orders_202402": {{4, "paid", "US"}, {5, "refunded", "EU"}},
		"orders_202403": {{6, "paid", "EU"}, {7, "paid", "US"}},
		"orders_202404": {{8, "paid", "EU"}},
	}
	for table, rows := range data {
		require.NoError(t, drv.Exec(ctx, fmt.Sprintf("CREATE TABLE `%s` (id INTEGER PRIMARY KEY, status TEXT, region TEXT)", table), []any{}, nil))
		for _, o := range rows {
			require.NoError(t, drv.Exec(ctx, fmt.Sprintf("INSERT INTO `%s` (id, status, region) VALUES (?, ?, ?)", table), []any{o.id, o.status, o.region}, nil))
		}
	}

	m := newTestMonthly(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), WithDialect(dialect.SQLite))
	q, err := m.QueryForParsedPeriod("2024-01-15", "2024-03-02")
	require.NoError(t, err)
	require.NoError(t, q.Select("id"))
	require.NoError(t, q.Where("status", "=", "paid"))
	require.NoError(t, q.In("region", "EU", "US"))
	s, ok := q.Selector()
	require.True(t, ok)
	s.OrderBy("id")

	ids, err := q.Strings(ctx, drv)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "6", "7"}, ids)

	// A month without a table fails at execution time.
	q, err = m.QueryForMonths(months("202404", "202405"))
	require.NoError(t, err)
	_, err = q.Rows(ctx, drv)
	require.Error(t, err)
	assert.True(t, ormsupport.IsQueryError(err))
}
