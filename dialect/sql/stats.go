package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luffluo/ormsupport/dialect"
)

// UnionBranches returns the number of SELECT branches joined with UNION
// in a rendered query. A query without unions has one branch.
func UnionBranches(query string) int {
	return strings.Count(query, " UNION ") + 1
}

// QueryStats counts the statements executed through a StatsDriver.
// Branch counters only cover queries, where a monthly UNION ALL query
// reading n tables counts n branches.
type QueryStats struct {
	queries     atomic.Int64
	execs       atomic.Int64
	branches    atomic.Int64
	maxBranches atomic.Int64
	duration    atomic.Int64 // nanoseconds
	slow        atomic.Int64
	errors      atomic.Int64
}

// Stats returns a snapshot of the counters.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		Queries:     s.queries.Load(),
		Execs:       s.execs.Load(),
		Branches:    s.branches.Load(),
		MaxBranches: s.maxBranches.Load(),
		Duration:    time.Duration(s.duration.Load()),
		Slow:        s.slow.Load(),
		Errors:      s.errors.Load(),
	}
}

// Reset sets all counters to zero.
func (s *QueryStats) Reset() {
	for _, c := range []*atomic.Int64{&s.queries, &s.execs, &s.branches, &s.maxBranches, &s.duration, &s.slow, &s.errors} {
		c.Store(0)
	}
}

func (s *QueryStats) observeBranches(n int64) {
	s.branches.Add(n)
	for {
		cur := s.maxBranches.Load()
		if n <= cur || s.maxBranches.CompareAndSwap(cur, n) {
			return
		}
	}
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries     int64
	Execs       int64
	Branches    int64
	MaxBranches int64
	Duration    time.Duration
	Slow        int64
	Errors      int64
}

// AvgDuration returns the mean duration of all statements.
func (s StatsSnapshot) AvgDuration() time.Duration {
	total := s.Queries + s.Execs
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

// AvgBranches returns the mean number of union branches per query.
func (s StatsSnapshot) AvgBranches() float64 {
	if s.Queries == 0 {
		return 0
	}
	return float64(s.Branches) / float64(s.Queries)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d branches=%d max_branches=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Branches, s.MaxBranches, s.Duration, s.AvgDuration(), s.Slow, s.Errors,
	)
}

// SlowQuery describes a statement that exceeded the slow threshold.
type SlowQuery struct {
	Query    string
	Args     []any
	Duration time.Duration
	// Branches is zero for Exec statements.
	Branches int
}

// SlowQueryHook is called for every slow statement.
type SlowQueryHook func(ctx context.Context, q SlowQuery)

// StatsDriver wraps a Driver with statement statistics. Monthly UNION
// ALL queries grow with the period length, so the branch counters and
// the slow threshold are where a too-wide period shows up.
type StatsDriver struct {
	dialect.Driver
	stats *QueryStats

	mu            sync.RWMutex
	slowThreshold time.Duration
	slowHook      SlowQueryHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow statement threshold. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets the function called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements as warnings, to slog.Default()
// when logger is nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, q SlowQuery) {
		logger.WarnContext(ctx, "slow query detected",
			slog.Duration("duration", q.Duration),
			slog.Int("branches", q.Branches),
			slog.String("query", q.Query),
			slog.Any("args", q.Args),
		)
	})
}

// NewStatsDriver wraps drv with statistics collection.
//
//	drv := sql.NewStatsDriver(db,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	rows, err := composed.Rows(ctx, drv)
//	fmt.Println(drv.QueryStats().Stats())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the live counters.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query implements dialect.ExecQuerier.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, time.Since(start), err, true)
	return err
}

// Exec implements dialect.ExecQuerier.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, time.Since(start), err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, elapsed time.Duration, err error, isQuery bool) {
	var branches int
	if isQuery {
		branches = UnionBranches(query)
		d.stats.queries.Add(1)
		d.stats.observeBranches(int64(branches))
	} else {
		d.stats.execs.Add(1)
	}
	d.stats.duration.Add(int64(elapsed))
	if err != nil {
		d.stats.errors.Add(1)
	}

	d.mu.RLock()
	threshold, hook := d.slowThreshold, d.slowHook
	d.mu.RUnlock()
	if elapsed <= threshold {
		return
	}
	d.stats.slow.Add(1)
	if hook != nil {
		argv, _ := args.([]any)
		hook(ctx, SlowQuery{Query: query, Args: argv, Duration: elapsed, Branches: branches})
	}
}

// Tx starts a transaction whose statements are counted too.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx is a transaction started by a StatsDriver.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query implements dialect.ExecQuerier.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, time.Since(start), err, true)
	return err
}

// Exec implements dialect.ExecQuerier.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, time.Since(start), err, false)
	return err
}

// DebugDriver logs every statement at debug level.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
}

// NewDebugDriver wraps drv with debug logging, to slog.Default() when
// logger is nil.
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

// Query implements dialect.ExecQuerier.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "query", "sql", query, "args", args, "branches", UnionBranches(query))
	return d.Driver.Query(ctx, query, args, v)
}

// Exec implements dialect.ExecQuerier.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "exec", "sql", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
