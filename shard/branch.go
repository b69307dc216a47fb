package shard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/luffluo/ormsupport/dialect/sql"
)

// Bool joins a predicate to the ones before it.
type Bool string

// Boolean connectors.
const (
	And Bool = "and"
	Or  Bool = "or"
)

func (b Bool) valid() bool {
	return b == And || b == Or
}

// Branch is one SELECT of a composed query, reading a single monthly
// table. Every method either applies fully or returns an error and
// leaves the branch unchanged.
type Branch interface {
	// SetSource sets the table the branch reads from.
	SetSource(table string) error
	// Source returns the table set by SetSource.
	Source() string
	// Select replaces the projection.
	Select(columns ...string) error
	// SelectRaw appends a raw projection expression.
	SelectRaw(expr string, args ...any) error
	Where(column, op string, value any, b Bool) error
	WhereIn(column string, values []any, b Bool, not bool) error
	WhereBetween(column string, low, high any, b Bool, not bool) error
	GroupBy(columns ...string) error
	// UnionAll attaches other to this branch with UNION ALL.
	UnionAll(other Branch) error
}

// Renderer is implemented by branches that can render the whole
// composed statement once they act as the primary.
type Renderer interface {
	Query() (string, []any)
	Err() error
}

// Applier is implemented by branches accepting typed predicates.
type Applier interface {
	Apply(preds ...func(*sql.Selector)) error
}

// SelectorBranch is a Branch backed by a *sql.Selector.
type SelectorBranch struct {
	s *sql.Selector
}

// NewSelectorBranch returns an empty branch for the given dialect.
func NewSelectorBranch(dialect string) *SelectorBranch {
	return &SelectorBranch{s: sql.Dialect(dialect).Select()}
}

// WrapSelector returns a branch operating on s.
func WrapSelector(s *sql.Selector) *SelectorBranch {
	return &SelectorBranch{s: s}
}

// Selector returns the underlying selector.
func (b *SelectorBranch) Selector() *sql.Selector {
	return b.s
}

// apply runs f and reports the errors it recorded on the selector.
// The selector never applies an operation it rejected.
func (b *SelectorBranch) apply(f func(*sql.Selector)) error {
	n := len(b.s.Errors())
	f(b.s)
	if errs := b.s.Errors(); len(errs) > n {
		return errors.Join(errs[n:]...)
	}
	return nil
}

func (b *SelectorBranch) where(p *sql.Predicate, bl Bool) error {
	return b.apply(func(s *sql.Selector) {
		if bl == Or {
			s.OrWhere(p)
		} else {
			s.Where(p)
		}
	})
}

// SetSource implements Branch.
func (b *SelectorBranch) SetSource(table string) error {
	return b.apply(func(s *sql.Selector) { s.From(sql.Table(table)) })
}

// Source implements Branch.
func (b *SelectorBranch) Source() string {
	return b.s.TableName()
}

// Select implements Branch.
func (b *SelectorBranch) Select(columns ...string) error {
	return b.apply(func(s *sql.Selector) { s.Select(columns...) })
}

// SelectRaw implements Branch.
func (b *SelectorBranch) SelectRaw(expr string, args ...any) error {
	return b.apply(func(s *sql.Selector) { s.AppendSelectExpr(expr, slices.Clone(args)...) })
}

// Where implements Branch.
func (b *SelectorBranch) Where(column, op string, value any, bl Bool) error {
	return b.where(sql.Op(column, op, value), bl)
}

// WhereIn implements Branch.
func (b *SelectorBranch) WhereIn(column string, values []any, bl Bool, not bool) error {
	values = slices.Clone(values)
	if not {
		return b.where(sql.NotIn(column, values...), bl)
	}
	return b.where(sql.In(column, values...), bl)
}

// WhereBetween implements Branch.
func (b *SelectorBranch) WhereBetween(column string, low, high any, bl Bool, not bool) error {
	if not {
		return b.where(sql.NotBetween(column, low, high), bl)
	}
	return b.where(sql.Between(column, low, high), bl)
}

// GroupBy implements Branch.
func (b *SelectorBranch) GroupBy(columns ...string) error {
	return b.apply(func(s *sql.Selector) { s.GroupBy(columns...) })
}

// UnionAll implements Branch.
func (b *SelectorBranch) UnionAll(other Branch) error {
	o, ok := other.(*SelectorBranch)
	if !ok {
		return fmt.Errorf("shard: cannot union %T with %T", other, b)
	}
	return b.apply(func(s *sql.Selector) { s.UnionAll(o.s) })
}

// Apply implements Applier. The predicates run in order; if one of them
// records an error the remaining ones are skipped.
func (b *SelectorBranch) Apply(preds ...func(*sql.Selector)) error {
	for _, p := range preds {
		if err := b.apply(p); err != nil {
			return err
		}
	}
	return nil
}

// Query implements Renderer.
func (b *SelectorBranch) Query() (string, []any) {
	return b.s.Query()
}

// Err implements Renderer.
func (b *SelectorBranch) Err() error {
	return b.s.Err()
}

var (
	_ Branch   = (*SelectorBranch)(nil)
	_ Renderer = (*SelectorBranch)(nil)
	_ Applier  = (*SelectorBranch)(nil)
)
