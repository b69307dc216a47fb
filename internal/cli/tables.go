package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql/schema"
	"github.com/luffluo/ormsupport/shard"
)

// TablesResult is the JSON output of the tables subcommands.
type TablesResult struct {
	Tables   []string `json:"tables"`
	Missing  []string `json:"missing,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewTablesCommand creates the tables command and its subcommands.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Manage monthly tables",
		Long: `Create, drop, list and validate the monthly tables of a base table.

Monthly tables are copied from the base table's template, which is
configured per table and defaults to the base table itself.`,
	}

	cmd.AddCommand(newTablesCreateCommand(rootOpts))
	cmd.AddCommand(newTablesDropCommand(rootOpts))
	cmd.AddCommand(newTablesListCommand(rootOpts))
	cmd.AddCommand(newTablesValidateCommand(rootOpts))

	return cmd
}

// tablesEnv is what the tables subcommands run against.
type tablesEnv struct {
	cfg    *Config
	drv    dialect.Driver
	tables *schema.Tables
	months []shard.Month
}

func openTables(cmd *cobra.Command, opts *RootOptions, period *PeriodOptions, extra ...schema.TablesOption) (*tablesEnv, error) {
	if period == nil {
		period = &PeriodOptions{}
	}
	cfg, shardOpts, err := loadOptions(opts, period)
	if err != nil {
		return nil, err
	}
	r, err := shard.NewResolver(shardOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid options", err)
	}
	months, err := period.Months(r)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "resolve period", err)
	}
	logger := opts.logger(cmd)
	drv, err := openDriver(cfg, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	tablesOpts := append(cfg.TablesOptions(), schema.WithLogger(logger))
	tables, err := schema.NewTables(drv, append(tablesOpts, extra...)...)
	if err != nil {
		drv.Close()
		return nil, WrapExitError(ExitCommandError, "invalid options", err)
	}
	return &tablesEnv{cfg: cfg, drv: drv, tables: tables, months: months}, nil
}

// commandContext returns the command context, which is nil unless the
// command was run with ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (e *tablesEnv) names(base string) []string {
	names := make([]string, len(e.months))
	for i, m := range e.months {
		names[i] = e.tables.MonthlyName(base, m)
	}
	return names
}

func printTables(cmd *cobra.Command, opts *RootOptions, result TablesResult) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Print(result, func(w io.Writer) error {
		for _, name := range result.Tables {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func newTablesCreateCommand(rootOpts *RootOptions) *cobra.Command {
	period := &PeriodOptions{}
	var (
		template string
		drop     bool
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "create <base>",
		Short: "Create the monthly tables of a period",
		Long: `Create the monthly tables of base for every month of the period.

Existing tables are kept unless --drop is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := args[0]
			env, err := openTables(cmd, rootOpts, period,
				schema.WithDrop(drop),
				schema.WithWorkers(workers),
			)
			if err != nil {
				return err
			}
			defer env.drv.Close()

			from := template
			if from == "" {
				from = env.cfg.Template(base)
			}
			ctx := commandContext(cmd)
			if err := env.tables.CreateMonths(ctx, base, from, env.months); err != nil {
				return WrapExitError(ExitCommandError, "create tables", err)
			}
			return printTables(cmd, rootOpts, TablesResult{Tables: env.names(base)})
		},
	}
	period.AddFlags(cmd)
	cmd.Flags().StringVar(&template, "template", "", "table to copy the structure from (default: configured template or base)")
	cmd.Flags().BoolVar(&drop, "drop", false, "drop existing monthly tables first")
	cmd.Flags().IntVar(&workers, "workers", 4, "tables created concurrently")

	return cmd
}

func newTablesDropCommand(rootOpts *RootOptions) *cobra.Command {
	period := &PeriodOptions{}

	cmd := &cobra.Command{
		Use:   "drop <base>",
		Short: "Drop the monthly tables of a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := args[0]
			env, err := openTables(cmd, rootOpts, period)
			if err != nil {
				return err
			}
			defer env.drv.Close()

			ctx := commandContext(cmd)
			if err := env.tables.DropMonths(ctx, base, env.months); err != nil {
				return WrapExitError(ExitCommandError, "drop tables", err)
			}
			return printTables(cmd, rootOpts, TablesResult{Tables: env.names(base)})
		},
	}
	period.AddFlags(cmd)

	return cmd
}

func newTablesListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [like]",
		Short: "List tables, optionally those containing like",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var like string
			if len(args) == 1 {
				like = args[0]
			}
			env, err := openTables(cmd, rootOpts, nil)
			if err != nil {
				return err
			}
			defer env.drv.Close()

			ctx := commandContext(cmd)
			names, err := env.tables.List(ctx, like)
			if err != nil {
				return WrapExitError(ExitCommandError, "list tables", err)
			}
			if names == nil {
				names = []string{}
			}
			return printTables(cmd, rootOpts, TablesResult{Tables: names})
		},
	}

	return cmd
}

func newTablesValidateCommand(rootOpts *RootOptions) *cobra.Command {
	period := &PeriodOptions{}

	cmd := &cobra.Command{
		Use:   "validate <base>",
		Short: "Check that the monthly tables of a period exist",
		Long: `Check that the monthly tables of a period exist.

Exits with status 1 when a table is missing, since a query over the
period would fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := args[0]
			env, err := openTables(cmd, rootOpts, period)
			if err != nil {
				return err
			}
			defer env.drv.Close()

			ctx := commandContext(cmd)
			result, err := env.tables.ValidateMonths(ctx, base, env.months)
			if err != nil {
				return WrapExitError(ExitCommandError, "validate tables", err)
			}
			out := TablesResult{Tables: env.names(base), Missing: result.Missing()}
			for _, w := range result.Warnings {
				out.Warnings = append(out.Warnings, w.Error())
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if err := f.Print(out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, strings.TrimRight(result.String(), "\n"))
				return err
			}); err != nil {
				return err
			}
			if result.HasErrors() {
				rootOpts.logger(cmd).Warn("missing monthly tables", slog.Int("count", len(result.Errors)))
				return NewExitError(ExitFailure, fmt.Sprintf("%d monthly tables missing", len(result.Errors)))
			}
			return nil
		},
	}
	period.AddFlags(cmd)

	return cmd
}
