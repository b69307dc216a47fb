package shard

import (
	"time"

	"github.com/luffluo/ormsupport"
	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql"
)

// Option configures a Resolver or a Monthly strategy.
type Option func(*config) error

// config holds the options shared by NewResolver and NewMonthly.
// Resolver ignores the table and branch settings.
type config struct {
	clock     Clock
	weekStart time.Weekday
	loc       *time.Location
	table     string
	tableFunc TableFunc
	newBranch func() Branch
	dialect   string
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		clock:     SystemClock(),
		weekStart: time.Monday,
		tableFunc: DefaultTable,
		dialect:   dialect.MySQL,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.newBranch == nil {
		d := cfg.dialect
		cfg.newBranch = func() Branch { return NewSelectorBranch(d) }
	}
	return cfg, nil
}

// WithClock sets the clock used to resolve relative periods.
func WithClock(c Clock) Option {
	return func(cfg *config) error {
		if c == nil {
			return ormsupport.NewArgumentError("clock", nil, "must not be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithNow pins the clock to t.
func WithNow(t time.Time) Option {
	return WithClock(FixedClock(t))
}

// WithWeekStart sets the first day of the week. Default is Monday.
func WithWeekStart(d time.Weekday) Option {
	return func(cfg *config) error {
		if d < time.Sunday || d > time.Saturday {
			return ormsupport.NewArgumentError("week start", int(d), "must be between Sunday and Saturday")
		}
		cfg.weekStart = d
		return nil
	}
}

// WithLocation sets the location "today" is computed in. By default the
// clock's own location is used.
func WithLocation(loc *time.Location) Option {
	return func(cfg *config) error {
		if loc == nil {
			return ormsupport.NewArgumentError("location", nil, "must not be nil")
		}
		cfg.loc = loc
		return nil
	}
}

// WithTable sets the base table name, bypassing derivation from the
// entity name.
func WithTable(name string) Option {
	return func(cfg *config) error {
		if !sql.IsValidIdentifier(name) {
			return ormsupport.NewArgumentError("table", name, "invalid table name")
		}
		cfg.table = name
		return nil
	}
}

// WithTableFunc sets how monthly table names are derived. Default is
// DefaultTable.
func WithTableFunc(f TableFunc) Option {
	return func(cfg *config) error {
		if f == nil {
			return ormsupport.NewArgumentError("table func", nil, "must not be nil")
		}
		cfg.tableFunc = f
		return nil
	}
}

// WithSeparator is shorthand for WithTableFunc(Separator(sep)).
func WithSeparator(sep string) Option {
	return WithTableFunc(Separator(sep))
}

// WithDialect sets the SQL dialect of the default SelectorBranch factory.
func WithDialect(name string) Option {
	return func(cfg *config) error {
		d := dialect.Normalize(name)
		switch d {
		case dialect.MySQL, dialect.SQLite, dialect.Postgres:
		default:
			return ormsupport.NewArgumentError("dialect", name, "unsupported dialect")
		}
		cfg.dialect = d
		return nil
	}
}

// WithBranchFactory sets the function creating a fresh query branch.
// It overrides WithDialect.
func WithBranchFactory(f func() Branch) Option {
	return func(cfg *config) error {
		if f == nil {
			return ormsupport.NewArgumentError("branch factory", nil, "must not be nil")
		}
		cfg.newBranch = f
		return nil
	}
}
