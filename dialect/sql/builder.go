package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/luffluo/ormsupport/dialect"
)

// Querier wraps the basic Query method that is implemented
// by the different builders in this package.
type Querier interface {
	// Query returns the query representation of the element
	// and its arguments (if any).
	Query() (string, []any)
}

// Builder is the base query builder for the sql dsl.
type Builder struct {
	sb      *strings.Builder // underlying builder.
	dialect string           // configured dialect.
	args    []any            // query parameters.
	total   int              // total number of parameters in query tree.
	errs    []error          // errors that added during the query construction.
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string {
	return b.dialect
}

// SetDialect sets the builder dialect.
func (b *Builder) SetDialect(dialect string) {
	b.dialect = dialect
}

// AddError appends an error to the builder errors.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns a concatenated error of all errors encountered during
// the query-building, or were added manually by calling AddError.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Errors returns the errors added to the builder, in order.
func (b *Builder) Errors() []error {
	return b.errs
}

// WriteString writes the given string as is.
func (b *Builder) WriteString(s string) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteString(s)
	return b
}

// WriteByte writes the given byte as is.
func (b *Builder) WriteByte(c byte) *Builder {
	if b.sb == nil {
		b.sb = &strings.Builder{}
	}
	b.sb.WriteByte(c)
	return b
}

// Pad adds a space to the query.
func (b *Builder) Pad() *Builder {
	return b.WriteByte(' ')
}

// String returns the accumulated string.
func (b *Builder) String() string {
	if b.sb == nil {
		return ""
	}
	return b.sb.String()
}

// Quote quotes the given identifier with the characters based
// on the configured dialect. Qualified names are quoted per part
// and a "*" part is left untouched.
func (b *Builder) Quote(ident string) string {
	quote := "`"
	if b.postgres() {
		quote = `"`
	}
	if ident == "*" {
		return ident
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = quote + p + quote
		}
	}
	return strings.Join(parts, ".")
}

// Ident appends the given string as an identifier.
func (b *Builder) Ident(s string) *Builder {
	return b.WriteString(b.Quote(s))
}

// IdentComma calls Ident on all arguments and adds a comma between them.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.Comma()
		}
		b.Ident(s[i])
	}
	return b
}

// Comma adds a comma to the query.
func (b *Builder) Comma() *Builder {
	return b.WriteString(", ")
}

// Arg appends an input argument to the builder.
func (b *Builder) Arg(a any) *Builder {
	b.total++
	b.args = append(b.args, a)
	if b.postgres() {
		return b.WriteString("$" + strconv.Itoa(b.total))
	}
	return b.WriteByte('?')
}

// Args appends a list of arguments to the builder.
func (b *Builder) Args(a ...any) *Builder {
	for i := range a {
		if i > 0 {
			b.Comma()
		}
		b.Arg(a[i])
	}
	return b
}

// Raw writes a raw expression whose "?" placeholders are replaced by the
// dialect placeholder of the given arguments, in order.
func (b *Builder) Raw(expr string, args ...any) *Builder {
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(args) {
			b.Arg(args[next])
			next++
			continue
		}
		b.WriteByte(expr[i])
	}
	return b
}

func (b *Builder) postgres() bool {
	return b.dialect == dialect.Postgres
}

// Predicate is a where predicate.
type Predicate struct {
	fns []func(*Builder)
	err error
}

// P creates a new predicate from raw builder callbacks.
//
//	P(func(b *Builder) {
//		b.Ident("deleted_at").WriteString(" IS NULL")
//	})
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Append appends a new function to the predicate callbacks.
// The callback list are executed on call to Query.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

// Err returns the error recorded while constructing the predicate.
func (p *Predicate) Err() error {
	return p.err
}

func (p *Predicate) render(b *Builder) {
	for _, f := range p.fns {
		f(b)
	}
}

// Query returns the query representation of the predicate.
func (p *Predicate) Query() (string, []any) {
	b := &Builder{}
	p.render(b)
	return b.String(), b.args
}

// Comparison operators accepted by Op.
var operators = map[string]string{
	"=":        "=",
	"<>":       "<>",
	"!=":       "<>",
	"<":        "<",
	"<=":       "<=",
	">":        ">",
	">=":       ">=",
	"like":     "LIKE",
	"not like": "NOT LIKE",
}

func invalid(err error) *Predicate {
	return &Predicate{err: err}
}

func checkColumn(col string) error {
	if !isValidIdentifier(col) {
		return fmt.Errorf("sql: invalid column %q", col)
	}
	return nil
}

// Op returns a comparison predicate for the given operator.
// A nil value with "=" or "<>" becomes IS NULL or IS NOT NULL.
func Op(col, op string, v any) *Predicate {
	if err := checkColumn(col); err != nil {
		return invalid(err)
	}
	sqlOp, ok := operators[strings.ToLower(strings.TrimSpace(op))]
	if !ok {
		return invalid(fmt.Errorf("sql: invalid operator %q", op))
	}
	if v == nil {
		switch sqlOp {
		case "=":
			return IsNull(col)
		case "<>":
			return NotNull(col)
		}
	}
	return P(func(b *Builder) {
		b.Ident(col).Pad().WriteString(sqlOp).Pad().Arg(v)
	})
}

// EQ returns a "=" predicate.
func EQ(col string, v any) *Predicate { return Op(col, "=", v) }

// NEQ returns a "<>" predicate.
func NEQ(col string, v any) *Predicate { return Op(col, "<>", v) }

// LT returns a "<" predicate.
func LT(col string, v any) *Predicate { return Op(col, "<", v) }

// LTE returns a "<=" predicate.
func LTE(col string, v any) *Predicate { return Op(col, "<=", v) }

// GT returns a ">" predicate.
func GT(col string, v any) *Predicate { return Op(col, ">", v) }

// GTE returns a ">=" predicate.
func GTE(col string, v any) *Predicate { return Op(col, ">=", v) }

// Like returns a "LIKE" predicate.
func Like(col, pattern string) *Predicate { return Op(col, "like", pattern) }

// IsNull returns an "IS NULL" predicate.
func IsNull(col string) *Predicate {
	if err := checkColumn(col); err != nil {
		return invalid(err)
	}
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NULL")
	})
}

// NotNull returns an "IS NOT NULL" predicate.
func NotNull(col string) *Predicate {
	if err := checkColumn(col); err != nil {
		return invalid(err)
	}
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NOT NULL")
	})
}

// In returns the "IN" predicate. An empty list never matches.
func In(col string, args ...any) *Predicate {
	return in(col, false, args)
}

// NotIn returns the "NOT IN" predicate. An empty list always matches.
func NotIn(col string, args ...any) *Predicate {
	return in(col, true, args)
}

func in(col string, not bool, args []any) *Predicate {
	if err := checkColumn(col); err != nil {
		return invalid(err)
	}
	if len(args) == 0 {
		return P(func(b *Builder) {
			if not {
				b.WriteString("1 = 1")
			} else {
				b.WriteString("0 = 1")
			}
		})
	}
	return P(func(b *Builder) {
		b.Ident(col)
		if not {
			b.WriteString(" NOT")
		}
		b.WriteString(" IN (").Args(args...).WriteByte(')')
	})
}

// Between returns the "BETWEEN" predicate.
func Between(col string, low, high any) *Predicate {
	return between(col, false, low, high)
}

// NotBetween returns the "NOT BETWEEN" predicate.
func NotBetween(col string, low, high any) *Predicate {
	return between(col, true, low, high)
}

func between(col string, not bool, low, high any) *Predicate {
	if err := checkColumn(col); err != nil {
		return invalid(err)
	}
	return P(func(b *Builder) {
		b.Ident(col)
		if not {
			b.WriteString(" NOT")
		}
		b.WriteString(" BETWEEN ").Arg(low).WriteString(" AND ").Arg(high)
	})
}

// ExprP creates a new predicate from a raw expression with "?" placeholders.
func ExprP(expr string, args ...any) *Predicate {
	if err := checkPlaceholders(expr, args); err != nil {
		return invalid(err)
	}
	return P(func(b *Builder) {
		b.Raw(expr, args...)
	})
}

// And combines all given predicates with AND between them.
func And(preds ...*Predicate) *Predicate {
	return join("AND", preds)
}

// Or combines all given predicates with OR between them.
func Or(preds ...*Predicate) *Predicate {
	return join("OR", preds)
}

func join(op string, preds []*Predicate) *Predicate {
	for _, p := range preds {
		if p.err != nil {
			return invalid(p.err)
		}
	}
	return P(func(b *Builder) {
		b.WriteByte('(')
		for i, p := range preds {
			if i > 0 {
				b.Pad().WriteString(op).Pad()
			}
			p.render(b)
		}
		b.WriteByte(')')
	})
}

// Not wraps the given predicate with the not predicate.
func Not(pred *Predicate) *Predicate {
	if pred.err != nil {
		return invalid(pred.err)
	}
	return P(func(b *Builder) {
		b.WriteString("NOT (")
		pred.render(b)
		b.WriteByte(')')
	})
}

func checkPlaceholders(expr string, args []any) error {
	if n := strings.Count(expr, "?"); n != len(args) {
		return fmt.Errorf("sql: expression %q has %d placeholders but %d arguments", expr, n, len(args))
	}
	return nil
}

// SelectTable is a table selector.
type SelectTable struct {
	name string
	as   string
}

// Table returns a new table selector.
//
//	t1 := Table("orders_202401").As("o")
//	return Select(t1.C("amount")).From(t1)
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// As adds the AS clause to the table selector.
func (s *SelectTable) As(alias string) *SelectTable {
	s.as = alias
	return s
}

// C returns a formatted string for the table column.
func (s *SelectTable) C(column string) string {
	name := s.name
	if s.as != "" {
		name = s.as
	}
	return name + "." + column
}

// Name returns the table name.
func (s *SelectTable) Name() string {
	return s.name
}

// selection is one item of the SELECT list.
type selection struct {
	column string
	alias  string
	raw    string
	args   []any
}

// condition is one WHERE item together with the boolean joining it
// to the previous one.
type condition struct {
	or bool
	p  *Predicate
}

type union struct {
	all bool
	s   *Selector
}

// Selector is a builder for the `SELECT` statement.
type Selector struct {
	Builder
	from    *SelectTable
	columns []selection
	where   []condition
	group   []string
	unions  []union
	order   []string
	limit   *int
	offset  *int
}

// Select returns a new selector for the `SELECT` statement.
//
//	Select("id", "amount").
//		From(Table("orders_202401")).
//		Where(EQ("status", "paid"))
func Select(columns ...string) *Selector {
	return (&Selector{}).Select(columns...)
}

// DialectBuilder prefixes all root builders with the given dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect.Normalize(name)}
}

// Select creates a Selector for the configured dialect.
//
//	Dialect(dialect.Postgres).
//		Select().From(Table("users"))
func (d *DialectBuilder) Select(columns ...string) *Selector {
	s := Select(columns...)
	s.SetDialect(d.dialect)
	return s
}

// From sets the source of `FROM` clause.
func (s *Selector) From(t *SelectTable) *Selector {
	if !isValidIdentifier(t.name) {
		s.AddError(fmt.Errorf("sql: invalid table name %q", t.name))
		return s
	}
	if t.as != "" && !isValidIdentifier(t.as) {
		s.AddError(fmt.Errorf("sql: invalid table alias %q", t.as))
		return s
	}
	s.from = t
	return s
}

// Table returns the selected table.
func (s *Selector) Table() *SelectTable {
	return s.from
}

// TableName returns the name of the selected table, or an empty string.
func (s *Selector) TableName() string {
	if s.from == nil {
		return ""
	}
	return s.from.name
}

// Select changes the columns selection of the SELECT statement.
// Empty selection means all columns *. Columns may carry an alias
// ("amount as total"). An invalid column leaves the selection untouched.
func (s *Selector) Select(columns ...string) *Selector {
	sel, err := parseColumns(columns)
	if err != nil {
		s.AddError(err)
		return s
	}
	s.columns = sel
	return s
}

// AppendSelect appends additional columns to the SELECT statement.
func (s *Selector) AppendSelect(columns ...string) *Selector {
	sel, err := parseColumns(columns)
	if err != nil {
		s.AddError(err)
		return s
	}
	s.columns = append(s.columns, sel...)
	return s
}

// AppendSelectExpr appends a raw expression to the SELECT statement.
// The "?" placeholders of the expression are bound to args.
func (s *Selector) AppendSelectExpr(expr string, args ...any) *Selector {
	if strings.TrimSpace(expr) == "" {
		s.AddError(errors.New("sql: empty select expression"))
		return s
	}
	if err := checkPlaceholders(expr, args); err != nil {
		s.AddError(err)
		return s
	}
	s.columns = append(s.columns, selection{raw: expr, args: args})
	return s
}

// SelectedColumns returns the selection as written by the caller.
// Raw expressions are returned verbatim.
func (s *Selector) SelectedColumns() []string {
	columns := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		switch {
		case c.raw != "":
			columns = append(columns, c.raw)
		case c.alias != "":
			columns = append(columns, c.column+" AS "+c.alias)
		default:
			columns = append(columns, c.column)
		}
	}
	return columns
}

func parseColumns(columns []string) ([]selection, error) {
	sel := make([]selection, 0, len(columns))
	for _, c := range columns {
		column, alias := c, ""
		if i := strings.Index(strings.ToLower(c), " as "); i > 0 {
			column, alias = strings.TrimSpace(c[:i]), strings.TrimSpace(c[i+4:])
			if !isValidIdentifier(alias) {
				return nil, fmt.Errorf("sql: invalid column alias %q", alias)
			}
		}
		if !isSelectable(column) {
			return nil, fmt.Errorf("sql: invalid column %q", column)
		}
		sel = append(sel, selection{column: column, alias: alias})
	}
	return sel, nil
}

func isSelectable(column string) bool {
	if column == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(column, ".*"); ok {
		return isValidIdentifier(prefix)
	}
	return isValidIdentifier(column)
}

// Where sets or appends the given predicate to the statement, joined with AND.
func (s *Selector) Where(p *Predicate) *Selector {
	return s.where0(p, false)
}

// OrWhere appends the given predicate to the statement, joined with OR.
func (s *Selector) OrWhere(p *Predicate) *Selector {
	return s.where0(p, true)
}

func (s *Selector) where0(p *Predicate, or bool) *Selector {
	if p == nil {
		s.AddError(errors.New("sql: nil predicate"))
		return s
	}
	if err := p.Err(); err != nil {
		s.AddError(err)
		return s
	}
	s.where = append(s.where, condition{or: or, p: p})
	return s
}

// WhereCount returns the number of predicates applied to the statement.
func (s *Selector) WhereCount() int {
	return len(s.where)
}

// GroupBy appends the `GROUP BY` clause to the `SELECT` statement.
func (s *Selector) GroupBy(columns ...string) *Selector {
	for _, c := range columns {
		if !isValidIdentifier(c) {
			s.AddError(fmt.Errorf("sql: invalid group by column %q", c))
			return s
		}
	}
	s.group = append(s.group, columns...)
	return s
}

// GroupColumns returns the `GROUP BY` columns.
func (s *Selector) GroupColumns() []string {
	return s.group
}

// Union appends the UNION (DISTINCT) clause to the query.
func (s *Selector) Union(t *Selector) *Selector {
	s.unions = append(s.unions, union{s: t})
	return s
}

// UnionAll appends the UNION ALL clause to the query.
func (s *Selector) UnionAll(t *Selector) *Selector {
	if t == s {
		s.AddError(errors.New("sql: selector cannot be unioned with itself"))
		return s
	}
	s.unions = append(s.unions, union{all: true, s: t})
	return s
}

// Unions returns the selectors attached with UNION or UNION ALL, in order.
func (s *Selector) Unions() []*Selector {
	u := make([]*Selector, len(s.unions))
	for i := range s.unions {
		u[i] = s.unions[i].s
	}
	return u
}

// OrderBy appends the `ORDER BY` clause to the `SELECT` statement.
// A column may be followed by ASC or DESC. When unions are attached,
// the ordering applies to the combined result.
func (s *Selector) OrderBy(columns ...string) *Selector {
	for _, c := range columns {
		column, dir := c, ""
		if f := strings.Fields(c); len(f) == 2 {
			column, dir = f[0], strings.ToUpper(f[1])
		}
		if !isValidIdentifier(column) || (dir != "" && dir != "ASC" && dir != "DESC") {
			s.AddError(fmt.Errorf("sql: invalid order by %q", c))
			return s
		}
		if dir != "" {
			column = s.Quote(column) + " " + dir
		} else {
			column = s.Quote(column)
		}
		s.order = append(s.order, column)
	}
	return s
}

// Asc adds the ASC suffix for ordering.
func Asc(column string) string { return column + " ASC" }

// Desc adds the DESC suffix for ordering.
func Desc(column string) string { return column + " DESC" }

// Limit adds the `LIMIT` clause to the `SELECT` statement.
func (s *Selector) Limit(limit int) *Selector {
	s.limit = &limit
	return s
}

// Offset adds the `OFFSET` clause to the `SELECT` statement.
func (s *Selector) Offset(offset int) *Selector {
	s.offset = &offset
	return s
}

// Err returns the errors of the selector and of its union members.
func (s *Selector) Err() error {
	errs := []error{s.Builder.Err()}
	for _, u := range s.unions {
		errs = append(errs, u.s.Builder.Err())
	}
	return errors.Join(errs...)
}

// Query returns the query representation of the `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	s.render(b)
	return b.String(), b.args
}

func (s *Selector) render(b *Builder) {
	b.WriteString("SELECT ")
	if len(s.columns) == 0 {
		b.WriteByte('*')
	}
	for i, c := range s.columns {
		if i > 0 {
			b.Comma()
		}
		switch {
		case c.raw != "":
			b.Raw(c.raw, c.args...)
		case c.alias != "":
			b.Ident(c.column).WriteString(" AS ").Ident(c.alias)
		default:
			b.Ident(c.column)
		}
	}
	if s.from != nil {
		b.WriteString(" FROM ").Ident(s.from.name)
		if s.from.as != "" {
			b.WriteString(" AS ").Ident(s.from.as)
		}
	}
	for i, w := range s.where {
		switch {
		case i == 0:
			b.WriteString(" WHERE ")
		case w.or:
			b.WriteString(" OR ")
		default:
			b.WriteString(" AND ")
		}
		w.p.render(b)
	}
	if len(s.group) > 0 {
		b.WriteString(" GROUP BY ").IdentComma(s.group...)
	}
	for _, u := range s.unions {
		b.WriteString(" UNION ")
		if u.all {
			b.WriteString("ALL ")
		}
		u.s.render(b)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ").WriteString(strings.Join(s.order, ", "))
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*s.offset))
	}
}

var _ Querier = (*Selector)(nil)
