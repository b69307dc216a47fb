package shard

import (
	"time"

	"github.com/luffluo/ormsupport"
)

// Resolver turns named periods into the ordered, duplicate-free list of
// months they touch. It holds no state besides its configuration and is
// safe for concurrent use.
type Resolver struct {
	clock     Clock
	weekStart time.Weekday
	loc       *time.Location
}

// NewResolver returns a Resolver configured by the given options.
// Only WithClock, WithNow, WithWeekStart and WithLocation affect it.
func NewResolver(opts ...Option) (*Resolver, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newResolver(cfg), nil
}

func newResolver(cfg *config) *Resolver {
	return &Resolver{clock: cfg.clock, weekStart: cfg.weekStart, loc: cfg.loc}
}

// Now returns the current instant in the resolver's location.
func (r *Resolver) Now() time.Time {
	now := r.clock.Now()
	if r.loc != nil {
		now = now.In(r.loc)
	}
	return now
}

// Today returns midnight of the current day.
func (r *Resolver) Today() time.Time {
	return StartOfDay(r.Now())
}

// Location returns the location relative periods are computed in.
func (r *Resolver) Location() *time.Location {
	return r.Now().Location()
}

// WeekStart returns the first day of the week.
func (r *Resolver) WeekStart() time.Weekday {
	return r.weekStart
}

// Current returns the current month.
func (r *Resolver) Current() []Month {
	return []Month{MonthOf(r.Today())}
}

// Yesterday returns the month containing yesterday.
func (r *Resolver) Yesterday() []Month {
	return []Month{MonthOf(r.Today().AddDate(0, 0, -1))}
}

// LastWeeks returns the months touched by the calendar week that began
// n weeks before the current one. A week straddling two months yields
// both, earliest first.
func (r *Resolver) LastWeeks(n int) ([]Month, error) {
	if n < 1 {
		return nil, ormsupport.NewArgumentError("weeks", n, "must be positive")
	}
	ref := r.Today().AddDate(0, 0, -7*n)
	return r.Period(StartOfWeek(ref, r.weekStart), EndOfWeek(ref, r.weekStart))
}

// LastWeek is shorthand for LastWeeks(1).
func (r *Resolver) LastWeek() []Month {
	months, _ := r.LastWeeks(1)
	return months
}

// LastMonths returns the single month n months before the current one.
// The day is clamped so that March 31 minus one month is February.
func (r *Resolver) LastMonths(n int) ([]Month, error) {
	if n < 1 {
		return nil, ormsupport.NewArgumentError("months", n, "must be positive")
	}
	return []Month{MonthOf(AddMonthsNoOverflow(r.Today(), -n))}, nil
}

// LastMonth is shorthand for LastMonths(1).
func (r *Resolver) LastMonth() []Month {
	months, _ := r.LastMonths(1)
	return months
}

// YearMonth parses value with ParseMonth and returns its month.
func (r *Resolver) YearMonth(value string) ([]Month, error) {
	m, err := ParseMonth(value)
	if err != nil {
		return nil, err
	}
	return []Month{m}, nil
}

// Date returns the month containing t.
func (r *Resolver) Date(t time.Time) []Month {
	return []Month{MonthOf(t)}
}

// Period returns every month from start's month through end's month,
// inclusive and in ascending order. It fails with an invalid range error
// when end is before start.
func (r *Resolver) Period(start, end time.Time) ([]Month, error) {
	if end.Before(start) {
		return nil, ormsupport.NewRangeError(start, end)
	}
	first, last := MonthOf(start), MonthOf(end.In(start.Location()))
	months := make([]Month, 0, last.index()-first.index()+1)
	for m := first; !m.After(last); m = m.AddMonths(1) {
		months = append(months, m)
	}
	return months, nil
}

// ParsePeriod is like Period but parses both bounds with ParseTime in
// the resolver's location.
func (r *Resolver) ParsePeriod(start, end string) ([]Month, error) {
	s, err := ParseTime(start, r.Location())
	if err != nil {
		return nil, err
	}
	e, err := ParseTime(end, r.Location())
	if err != nil {
		return nil, err
	}
	return r.Period(s, e)
}

// Since returns every month from start's month through the current one.
func (r *Resolver) Since(start time.Time) ([]Month, error) {
	return r.Period(start, r.Now())
}
