package shard

import (
	"context"
	"errors"
	"fmt"

	"github.com/luffluo/ormsupport"
	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql"
)

// Composer builds one query branch per month and attaches all but the
// first to the first with UNION ALL.
type Composer struct {
	table     TableFunc
	newBranch func() Branch
}

// NewComposer returns a Composer. A nil table func means DefaultTable.
func NewComposer(table TableFunc, newBranch func() Branch) *Composer {
	if table == nil {
		table = DefaultTable
	}
	return &Composer{table: table, newBranch: newBranch}
}

// Compose is shorthand for NewComposer(table, newBranch).Compose(base, months).
func Compose(months []Month, base string, table TableFunc, newBranch func() Branch) (*ComposedQuery, error) {
	return NewComposer(table, newBranch).Compose(base, months)
}

// Compose returns a query reading the monthly tables of base for the
// given months, in order. The first month's branch is the primary.
func (c *Composer) Compose(base string, months []Month) (*ComposedQuery, error) {
	if len(months) == 0 {
		return nil, ormsupport.NewArgumentError("months", months, "at least one month is required")
	}
	if c.newBranch == nil {
		return nil, ormsupport.NewArgumentError("branch factory", nil, "must not be nil")
	}
	q := &ComposedQuery{
		base:     base,
		months:   make([]Month, len(months)),
		branches: make([]Branch, len(months)),
	}
	copy(q.months, months)
	seen := make(map[string]Month, len(months))
	for i, m := range months {
		table := c.table(base, m)
		if prev, ok := seen[table]; ok {
			return nil, ormsupport.NewArgumentError("months", Strings(months),
				fmt.Sprintf("months %s and %s both map to table %q", prev, m, table))
		}
		seen[table] = m
		b := c.newBranch()
		if b == nil {
			return nil, ormsupport.NewArgumentError("branch factory", nil, "returned a nil branch")
		}
		if err := b.SetSource(table); err != nil {
			return nil, ormsupport.NewBranchError(i, table, "from", err)
		}
		q.branches[i] = b
	}
	for i, b := range q.branches[1:] {
		if err := q.branches[0].UnionAll(b); err != nil {
			return nil, ormsupport.NewBranchError(i+1, b.Source(), "union all", err)
		}
	}
	return q, nil
}

// ComposedQuery is a primary branch with its UNION ALL siblings. The
// operations below apply to every branch, primary first. If the primary
// rejects an operation no other branch is touched. If a later branch
// rejects it the branches before it keep the change. Either way the
// query is poisoned: every later call returns the same error.
//
// A ComposedQuery is not safe for concurrent use.
type ComposedQuery struct {
	base     string
	months   []Month
	branches []Branch
	err      error
}

// Err returns the first fan-out error, if any.
func (q *ComposedQuery) Err() error {
	return q.err
}

// Base returns the base table name.
func (q *ComposedQuery) Base() string {
	return q.base
}

// Len returns the number of branches.
func (q *ComposedQuery) Len() int {
	return len(q.branches)
}

// Months returns the months of the branches, in branch order.
func (q *ComposedQuery) Months() []Month {
	months := make([]Month, len(q.months))
	copy(months, q.months)
	return months
}

// Tables returns the source table of every branch, in branch order.
func (q *ComposedQuery) Tables() []string {
	tables := make([]string, len(q.branches))
	for i, b := range q.branches {
		tables[i] = b.Source()
	}
	return tables
}

// Branches returns the branches, primary first.
func (q *ComposedQuery) Branches() []Branch {
	branches := make([]Branch, len(q.branches))
	copy(branches, q.branches)
	return branches
}

// Primary returns the branch the others are attached to.
func (q *ComposedQuery) Primary() Branch {
	return q.branches[0]
}

// Selector returns the primary's selector when the primary is a
// SelectorBranch, for ordering and pagination of the combined result.
func (q *ComposedQuery) Selector() (*sql.Selector, bool) {
	b, ok := q.branches[0].(*SelectorBranch)
	if !ok {
		return nil, false
	}
	return b.Selector(), true
}

func (q *ComposedQuery) fanout(op string, f func(Branch) error) error {
	if q.err != nil {
		return q.err
	}
	for i, b := range q.branches {
		if err := f(b); err != nil {
			q.err = ormsupport.NewBranchError(i, b.Source(), op, err)
			return q.err
		}
	}
	return nil
}

func (q *ComposedQuery) checkBool(b Bool) error {
	if q.err != nil {
		return q.err
	}
	if !b.valid() {
		return ormsupport.NewArgumentError("boolean", string(b), `must be "and" or "or"`)
	}
	return nil
}

// Select replaces the projection of every branch.
func (q *ComposedQuery) Select(columns ...string) error {
	return q.fanout("select", func(b Branch) error {
		return b.Select(columns...)
	})
}

// SelectRaw appends a raw projection expression to every branch. Each
// branch gets its own copy of args.
func (q *ComposedQuery) SelectRaw(expr string, args ...any) error {
	return q.fanout("select raw", func(b Branch) error {
		return b.SelectRaw(expr, args...)
	})
}

// Where adds "column op value" to every branch, joined with AND.
func (q *ComposedQuery) Where(column, op string, value any) error {
	return q.WhereBool(column, op, value, And)
}

// OrWhere adds "column op value" to every branch, joined with OR.
func (q *ComposedQuery) OrWhere(column, op string, value any) error {
	return q.WhereBool(column, op, value, Or)
}

// WhereBool adds "column op value" to every branch, joined with b.
func (q *ComposedQuery) WhereBool(column, op string, value any, b Bool) error {
	if err := q.checkBool(b); err != nil {
		return err
	}
	return q.fanout("where", func(br Branch) error {
		return br.Where(column, op, value, b)
	})
}

// WhereIn adds "column [NOT] IN (values)" to every branch. An empty
// list is always false, or always true when negated.
func (q *ComposedQuery) WhereIn(column string, values []any, b Bool, not bool) error {
	if err := q.checkBool(b); err != nil {
		return err
	}
	op := "where in"
	if not {
		op = "where not in"
	}
	return q.fanout(op, func(br Branch) error {
		return br.WhereIn(column, values, b, not)
	})
}

// In is shorthand for WhereIn(column, values, And, false).
func (q *ComposedQuery) In(column string, values ...any) error {
	return q.WhereIn(column, values, And, false)
}

// NotIn is shorthand for WhereIn(column, values, And, true).
func (q *ComposedQuery) NotIn(column string, values ...any) error {
	return q.WhereIn(column, values, And, true)
}

// OrIn is shorthand for WhereIn(column, values, Or, false).
func (q *ComposedQuery) OrIn(column string, values ...any) error {
	return q.WhereIn(column, values, Or, false)
}

// WhereBetween adds "column [NOT] BETWEEN low AND high" to every branch.
func (q *ComposedQuery) WhereBetween(column string, low, high any, b Bool, not bool) error {
	if err := q.checkBool(b); err != nil {
		return err
	}
	op := "where between"
	if not {
		op = "where not between"
	}
	return q.fanout(op, func(br Branch) error {
		return br.WhereBetween(column, low, high, b, not)
	})
}

// Between is shorthand for WhereBetween(column, low, high, And, false).
func (q *ComposedQuery) Between(column string, low, high any) error {
	return q.WhereBetween(column, low, high, And, false)
}

// NotBetween is shorthand for WhereBetween(column, low, high, And, true).
func (q *ComposedQuery) NotBetween(column string, low, high any) error {
	return q.WhereBetween(column, low, high, And, true)
}

// GroupBy appends grouping columns to every branch.
func (q *ComposedQuery) GroupBy(columns ...string) error {
	return q.fanout("group by", func(b Branch) error {
		return b.GroupBy(columns...)
	})
}

// WhereP applies typed predicates, such as the ones built by
// sql.StringField, to every branch. Each predicate is fanned out on its
// own. All branches must implement Applier.
func (q *ComposedQuery) WhereP(preds ...func(*sql.Selector)) error {
	for _, p := range preds {
		err := q.fanout("where", func(b Branch) error {
			a, ok := b.(Applier)
			if !ok {
				return fmt.Errorf("shard: %T does not accept typed predicates", b)
			}
			return a.Apply(p)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Query renders the composed statement through the primary branch.
func (q *ComposedQuery) Query() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	r, ok := q.branches[0].(Renderer)
	if !ok {
		return "", nil, ormsupport.NewQueryError(q.base, "render", fmt.Errorf("shard: %T cannot render queries", q.branches[0]))
	}
	if err := r.Err(); err != nil {
		return "", nil, ormsupport.NewQueryError(q.base, "render", err)
	}
	query, args := r.Query()
	return query, args, nil
}

// Rows executes the composed statement. The caller must close the rows.
func (q *ComposedQuery) Rows(ctx context.Context, ex dialect.ExecQuerier) (*sql.Rows, error) {
	if ex == nil {
		return nil, ormsupport.NewArgumentError("querier", nil, "must not be nil")
	}
	query, args, err := q.Query()
	if err != nil {
		return nil, err
	}
	rows := &sql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return nil, ormsupport.NewQueryError(q.base, "query", err)
	}
	return rows, nil
}

// Strings executes the composed statement and returns the first column
// of every row as a string.
func (q *ComposedQuery) Strings(ctx context.Context, ex dialect.ExecQuerier) ([]string, error) {
	rows, err := q.Rows(ctx, ex)
	if err != nil {
		return nil, err
	}
	values, err := sql.ScanStrings(rows)
	if err != nil {
		return nil, ormsupport.NewQueryError(q.base, "scan", err)
	}
	return values, nil
}

// IsPoisoned reports whether err came from a ComposedQuery that must be
// discarded.
func IsPoisoned(err error) bool {
	return errors.Is(err, ormsupport.ErrBranchOperation)
}
