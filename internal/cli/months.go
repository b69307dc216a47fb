package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luffluo/ormsupport/shard"
)

// MonthsResult is the JSON output of the months command.
type MonthsResult struct {
	Months []shard.Month `json:"months"`
	Tables []string      `json:"tables,omitempty"`
}

// NewMonthsCommand creates the months command.
func NewMonthsCommand(rootOpts *RootOptions) *cobra.Command {
	period := &PeriodOptions{}
	var base string

	cmd := &cobra.Command{
		Use:   "months",
		Short: "Print the months of a period",
		Long: `Print the months touched by a period, earliest first.

With --table the monthly table names of that base table are printed too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonths(cmd, rootOpts, period, base)
		},
	}
	period.AddFlags(cmd)
	cmd.Flags().StringVarP(&base, "table", "t", "", "base table whose monthly names are printed")

	return cmd
}

func runMonths(cmd *cobra.Command, opts *RootOptions, period *PeriodOptions, base string) error {
	cfg, shardOpts, err := loadOptions(opts, period)
	if err != nil {
		return err
	}
	r, err := shard.NewResolver(shardOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}
	months, err := period.Months(r)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve period", err)
	}

	result := MonthsResult{Months: months}
	if base != "" {
		table := shard.Separator(cfg.Separator)
		for _, m := range months {
			result.Tables = append(result.Tables, cfg.Prefix+table(base, m))
		}
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Print(result, func(w io.Writer) error {
		for i, m := range months {
			line := m.String()
			if base != "" {
				line += "\t" + result.Tables[i]
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadOptions loads the configuration and combines its shard options
// with the ones implied by the period flags.
func loadOptions(opts *RootOptions, period *PeriodOptions) (*Config, []shard.Option, error) {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "load config", err)
	}
	shardOpts, err := cfg.ShardOptions()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	periodOpts, err := period.Options()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid period", err)
	}
	return cfg, append(shardOpts, periodOpts...), nil
}
