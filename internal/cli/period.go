package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luffluo/ormsupport/shard"
)

// PeriodOptions selects the months a command works on. At most one of
// the selectors may be set; none means the current month.
type PeriodOptions struct {
	Now        string
	Month      string
	From       string
	To         string
	LastWeeks  int
	LastMonths int
	Yesterday  bool
}

// AddFlags registers the period flags on cmd.
func (p *PeriodOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Now, "now", "", "reference time instead of the wall clock (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&p.Month, "month", "", "a single month (YYYYMM or YYYY-MM)")
	cmd.Flags().StringVar(&p.From, "from", "", "period start; without --to the period runs until now")
	cmd.Flags().StringVar(&p.To, "to", "", "period end")
	cmd.Flags().IntVar(&p.LastWeeks, "last-weeks", 0, "the calendar week n weeks ago")
	cmd.Flags().IntVar(&p.LastMonths, "last-months", 0, "the month n months ago")
	cmd.Flags().BoolVar(&p.Yesterday, "yesterday", false, "the month containing yesterday")
}

// Options returns the shard options implied by the period flags.
func (p *PeriodOptions) Options() ([]shard.Option, error) {
	if p.Now == "" {
		return nil, nil
	}
	now, err := shard.ParseTime(p.Now, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid --now: %w", err)
	}
	return []shard.Option{shard.WithNow(now)}, nil
}

// Months resolves the selected period with r.
func (p *PeriodOptions) Months(r *shard.Resolver) ([]shard.Month, error) {
	set := 0
	for _, ok := range []bool{p.Month != "", p.From != "" || p.To != "", p.LastWeeks != 0, p.LastMonths != 0, p.Yesterday} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("only one of --month, --from/--to, --last-weeks, --last-months and --yesterday may be set")
	}
	switch {
	case p.Month != "":
		return r.YearMonth(p.Month)
	case p.From != "" && p.To != "":
		return r.ParsePeriod(p.From, p.To)
	case p.From != "":
		start, err := shard.ParseTime(p.From, r.Location())
		if err != nil {
			return nil, err
		}
		return r.Since(start)
	case p.To != "":
		return nil, errors.New("--to requires --from")
	case p.LastWeeks != 0:
		return r.LastWeeks(p.LastWeeks)
	case p.LastMonths != 0:
		return r.LastMonths(p.LastMonths)
	case p.Yesterday:
		return r.Yesterday(), nil
	}
	return r.Current(), nil
}
