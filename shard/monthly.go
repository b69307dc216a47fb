package shard

import (
	"time"

	"github.com/luffluo/ormsupport"
)

// Monthly is the monthly sharding strategy of one entity. It names the
// physical table of each month and builds composed queries over the
// months of a named period.
//
//	orders, err := shard.NewMonthly("Order", shard.WithDialect(dialect.Postgres))
//	if err != nil {
//		return err
//	}
//	q, err := orders.QueryForPeriod(start, end)
//	if err != nil {
//		return err
//	}
//	if err := q.Where("status", "=", "paid"); err != nil {
//		return err
//	}
//	rows, err := q.Rows(ctx, drv)
type Monthly struct {
	table    string
	tableFor TableFunc
	resolver *Resolver
	composer *Composer
}

// NewMonthly returns the strategy for entity. The base table is derived
// with TableName unless WithTable is given.
func NewMonthly(entity string, opts ...Option) (*Monthly, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	table := cfg.table
	if table == "" {
		table = TableName(entity)
	}
	if table == "" {
		return nil, ormsupport.NewArgumentError("entity", entity, "an entity name or WithTable is required")
	}
	return &Monthly{
		table:    table,
		tableFor: cfg.tableFunc,
		resolver: newResolver(cfg),
		composer: NewComposer(cfg.tableFunc, cfg.newBranch),
	}, nil
}

// BaseTable returns the base table name.
func (m *Monthly) BaseTable() string {
	return m.table
}

// Resolver returns the resolver used for named periods.
func (m *Monthly) Resolver() *Resolver {
	return m.resolver
}

// TableFor returns the physical table of the given month.
func (m *Monthly) TableFor(month Month) string {
	return m.tableFor(m.table, month)
}

// Tables returns the physical table of every month, in order.
func (m *Monthly) Tables(months []Month) []string {
	tables := make([]string, len(months))
	for i, month := range months {
		tables[i] = m.TableFor(month)
	}
	return tables
}

// Table returns the table of the current month.
func (m *Monthly) Table() string {
	return m.TableFor(MonthOf(m.resolver.Today()))
}

// TableForYesterday returns the table of the month containing yesterday.
func (m *Monthly) TableForYesterday() string {
	return m.TableFor(m.resolver.Yesterday()[0])
}

// TableForLastMonths returns the table of the month n months ago.
func (m *Monthly) TableForLastMonths(n int) (string, error) {
	months, err := m.resolver.LastMonths(n)
	if err != nil {
		return "", err
	}
	return m.TableFor(months[0]), nil
}

// TableForLastMonth returns the table of the previous month.
func (m *Monthly) TableForLastMonth() string {
	return m.TableFor(m.resolver.LastMonth()[0])
}

// TableForYearMonth returns the table of the month parsed from value.
func (m *Monthly) TableForYearMonth(value string) (string, error) {
	month, err := ParseMonth(value)
	if err != nil {
		return "", err
	}
	return m.TableFor(month), nil
}

// TableForDate returns the table of the month containing t.
func (m *Monthly) TableForDate(t time.Time) string {
	return m.TableFor(MonthOf(t))
}

// QueryForMonths composes a query over the given months.
func (m *Monthly) QueryForMonths(months []Month) (*ComposedQuery, error) {
	return m.composer.Compose(m.table, months)
}

func (m *Monthly) queryFor(months []Month, err error) (*ComposedQuery, error) {
	if err != nil {
		return nil, err
	}
	return m.QueryForMonths(months)
}

// Query composes a query over the current month.
func (m *Monthly) Query() (*ComposedQuery, error) {
	return m.QueryForMonths(m.resolver.Current())
}

// QueryForYesterday composes a query over the month containing yesterday.
func (m *Monthly) QueryForYesterday() (*ComposedQuery, error) {
	return m.QueryForMonths(m.resolver.Yesterday())
}

// QueryForLastWeeks composes a query over the months touched by the week
// n weeks ago.
func (m *Monthly) QueryForLastWeeks(n int) (*ComposedQuery, error) {
	return m.queryFor(m.resolver.LastWeeks(n))
}

// QueryForLastWeek composes a query over the months of the previous week.
func (m *Monthly) QueryForLastWeek() (*ComposedQuery, error) {
	return m.QueryForMonths(m.resolver.LastWeek())
}

// QueryForLastMonths composes a query over the month n months ago.
func (m *Monthly) QueryForLastMonths(n int) (*ComposedQuery, error) {
	return m.queryFor(m.resolver.LastMonths(n))
}

// QueryForLastMonth composes a query over the previous month.
func (m *Monthly) QueryForLastMonth() (*ComposedQuery, error) {
	return m.QueryForMonths(m.resolver.LastMonth())
}

// QueryForYearMonth composes a query over the month parsed from value.
func (m *Monthly) QueryForYearMonth(value string) (*ComposedQuery, error) {
	return m.queryFor(m.resolver.YearMonth(value))
}

// QueryForDate composes a query over the month containing t.
func (m *Monthly) QueryForDate(t time.Time) (*ComposedQuery, error) {
	return m.QueryForMonths(m.resolver.Date(t))
}

// QueryForPeriod composes a query over every month from start to end.
func (m *Monthly) QueryForPeriod(start, end time.Time) (*ComposedQuery, error) {
	return m.queryFor(m.resolver.Period(start, end))
}

// QueryForParsedPeriod is like QueryForPeriod with bounds parsed by ParseTime.
func (m *Monthly) QueryForParsedPeriod(start, end string) (*ComposedQuery, error) {
	return m.queryFor(m.resolver.ParsePeriod(start, end))
}

// QueryForSince composes a query over every month from start to now.
func (m *Monthly) QueryForSince(start time.Time) (*ComposedQuery, error) {
	return m.queryFor(m.resolver.Since(start))
}
