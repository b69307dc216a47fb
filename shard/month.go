package shard

import (
	"fmt"
	"strings"
	"time"

	"github.com/luffluo/ormsupport"
)

// Month is a calendar year and month. It never represents a day; dates
// are truncated to their containing month by MonthOf.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth returns the month for the given year and month number.
func NewMonth(year int, month time.Month) (Month, error) {
	if year < 1 || year > 9999 {
		return Month{}, ormsupport.NewArgumentError("year", year, "must be between 1 and 9999")
	}
	if month < time.January || month > time.December {
		return Month{}, ormsupport.NewArgumentError("month", int(month), "must be between 1 and 12")
	}
	return Month{Year: year, Month: month}, nil
}

// MonthOf returns the month containing t, in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a compact "YYYYMM", a hyphenated "YYYY-MM" or a full
// date, which is truncated to its month.
func ParseMonth(s string) (Month, error) {
	t, err := ParseTime(s, time.UTC)
	if err != nil {
		return Month{}, err
	}
	return MonthOf(t), nil
}

// MustParseMonth is like ParseMonth but panics if the value cannot be parsed.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the canonical "YYYYMM" form.
func (m Month) String() string {
	return fmt.Sprintf("%04d%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m == Month{}
}

// AddMonths returns the month n months after m. n may be negative and
// the year wraps as needed.
func (m Month) AddMonths(n int) Month {
	idx := m.index() + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Compare returns -1, 0 or +1 depending on whether m is before, equal to
// or after o.
func (m Month) Compare(o Month) int {
	switch a, b := m.index(), o.index(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether m is before o.
func (m Month) Before(o Month) bool {
	return m.Compare(o) < 0
}

// After reports whether m is after o.
func (m Month) After(o Month) bool {
	return m.Compare(o) > 0
}

// Start returns the first instant of the month in loc.
func (m Month) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// End returns the last instant of the month in loc.
func (m Month) End(loc *time.Location) time.Time {
	return m.AddMonths(1).Start(loc).Add(-time.Nanosecond)
}

func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(text []byte) error {
	v, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Strings returns the "YYYYMM" form of every month.
func Strings(months []Month) []string {
	s := make([]string, len(months))
	for i, m := range months {
		s[i] = m.String()
	}
	return s
}

// TableFunc returns the physical table name of base for the given month.
// A TableFunc must never return the same name for two different months.
type TableFunc func(base string, m Month) string

// DefaultTable names monthly tables "<base>_YYYYMM".
func DefaultTable(base string, m Month) string {
	return Separator("_")(base, m)
}

// Separator returns a TableFunc that joins base and month with sep.
// A base that already ends with sep does not get it twice.
func Separator(sep string) TableFunc {
	return func(base string, m Month) string {
		for sep != "" && strings.HasSuffix(base, sep) {
			base = strings.TrimSuffix(base, sep)
		}
		return base + sep + m.String()
	}
}
