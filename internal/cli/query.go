package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luffluo/ormsupport/shard"
)

// QueryOptions holds the query command flags.
type QueryOptions struct {
	Table   string
	Select  []string
	Raw     []string
	Where   []string
	OrWhere []string
	In      []string
	NotIn   []string
	Between []string
	GroupBy []string
	OrderBy []string
	Limit   int
}

// QueryResult is the output of the query command.
type QueryResult struct {
	Tables []string `json:"tables"`
	Query  string   `json:"query"`
	Args   []any    `json:"args"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	period := &PeriodOptions{}
	qo := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <entity>",
		Short: "Print the UNION ALL query reading a period",
		Long: `Print the UNION ALL query reading the monthly tables of an entity.

The entity name is pluralized and snake cased into the base table
("OrderItem" reads order_items_YYYYMM) unless --table is given. Filters
apply to every monthly table:

  monthly query Order --last-week --where status=paid --in region=EU,US`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, rootOpts, period, qo, args[0])
		},
	}
	period.AddFlags(cmd)
	cmd.Flags().StringVarP(&qo.Table, "table", "t", "", "base table instead of the one derived from the entity")
	cmd.Flags().StringSliceVar(&qo.Select, "select", nil, "columns to select")
	cmd.Flags().StringArrayVar(&qo.Raw, "select-raw", nil, "raw select expression")
	cmd.Flags().StringArrayVar(&qo.Where, "where", nil, "predicate joined with AND (column=value, column>=value, ...)")
	cmd.Flags().StringArrayVar(&qo.OrWhere, "or-where", nil, "predicate joined with OR")
	cmd.Flags().StringArrayVar(&qo.In, "in", nil, "column=v1,v2,... membership predicate")
	cmd.Flags().StringArrayVar(&qo.NotIn, "not-in", nil, "column=v1,v2,... negated membership predicate")
	cmd.Flags().StringArrayVar(&qo.Between, "between", nil, "column=low,high range predicate")
	cmd.Flags().StringSliceVar(&qo.GroupBy, "group-by", nil, "grouping columns")
	cmd.Flags().StringSliceVar(&qo.OrderBy, "order-by", nil, "ordering of the combined result (column [asc|desc])")
	cmd.Flags().IntVar(&qo.Limit, "limit", 0, "limit of the combined result")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *RootOptions, period *PeriodOptions, qo *QueryOptions, entity string) error {
	_, shardOpts, err := loadOptions(opts, period)
	if err != nil {
		return err
	}
	if qo.Table != "" {
		shardOpts = append(shardOpts, shard.WithTable(qo.Table))
	}
	m, err := shard.NewMonthly(entity, shardOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}
	months, err := period.Months(m.Resolver())
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve period", err)
	}
	q, err := m.QueryForMonths(months)
	if err != nil {
		return WrapExitError(ExitCommandError, "compose query", err)
	}
	if err := qo.apply(q); err != nil {
		return WrapExitError(ExitCommandError, "build query", err)
	}
	query, args, err := q.Query()
	if err != nil {
		return WrapExitError(ExitCommandError, "render query", err)
	}
	if args == nil {
		args = []any{}
	}

	result := QueryResult{Tables: q.Tables(), Query: query, Args: args}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Print(result, func(w io.Writer) error {
		encoded, err := json.Marshal(args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "tables: %s\nquery:  %s\nargs:   %s\n", strings.Join(result.Tables, ", "), query, encoded)
		return err
	})
}

func (qo *QueryOptions) apply(q *shard.ComposedQuery) error {
	if len(qo.Select) > 0 {
		if err := q.Select(qo.Select...); err != nil {
			return err
		}
	}
	for _, expr := range qo.Raw {
		if err := q.SelectRaw(expr); err != nil {
			return err
		}
	}
	for _, w := range qo.Where {
		if err := applyWhere(q, w, shard.And); err != nil {
			return err
		}
	}
	for _, w := range qo.OrWhere {
		if err := applyWhere(q, w, shard.Or); err != nil {
			return err
		}
	}
	for _, in := range qo.In {
		if err := applyIn(q, in, false); err != nil {
			return err
		}
	}
	for _, in := range qo.NotIn {
		if err := applyIn(q, in, true); err != nil {
			return err
		}
	}
	for _, b := range qo.Between {
		column, values, err := splitList(b)
		if err != nil {
			return err
		}
		if len(values) != 2 {
			return fmt.Errorf("invalid --between %q: want column=low,high", b)
		}
		if err := q.Between(column, values[0], values[1]); err != nil {
			return err
		}
	}
	if len(qo.GroupBy) > 0 {
		if err := q.GroupBy(qo.GroupBy...); err != nil {
			return err
		}
	}
	if len(qo.OrderBy) == 0 && qo.Limit == 0 {
		return nil
	}
	s, ok := q.Selector()
	if !ok {
		return fmt.Errorf("ordering requires a selector branch")
	}
	s.OrderBy(qo.OrderBy...)
	if qo.Limit > 0 {
		s.Limit(qo.Limit)
	}
	return s.Err()
}

var predicateRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*(>=|<=|<>|!=|=|>|<|\s(?i:not like|like)\s)\s*(.*)$`)

// parsePredicate splits "column<op>value" into its parts.
func parsePredicate(s string) (column, op, value string, err error) {
	m := predicateRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", "", fmt.Errorf("invalid predicate %q: want column<op>value", s)
	}
	return m[1], strings.ToLower(strings.TrimSpace(m[2])), m[3], nil
}

func applyWhere(q *shard.ComposedQuery, s string, b shard.Bool) error {
	column, op, value, err := parsePredicate(s)
	if err != nil {
		return err
	}
	return q.WhereBool(column, op, value, b)
}

func applyIn(q *shard.ComposedQuery, s string, not bool) error {
	column, values, err := splitList(s)
	if err != nil {
		return err
	}
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return q.WhereIn(column, vs, shard.And, not)
}

// splitList splits "column=v1,v2" into the column and its values.
func splitList(s string) (string, []string, error) {
	column, list, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(column) == "" {
		return "", nil, fmt.Errorf("invalid list %q: want column=v1,v2", s)
	}
	var values []string
	if list != "" {
		values = strings.Split(list, ",")
	}
	return strings.TrimSpace(column), values, nil
}
