package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql/schema"
	"github.com/luffluo/ormsupport/shard"
)

// Config is the YAML configuration shared by all commands.
//
//	dialect: mysql
//	dsn: "app:secret@tcp(127.0.0.1:3306)/shop"
//	prefix: ""
//	separator: "_"
//	week_start: monday
//	location: Asia/Shanghai
//	tables:
//	  orders:
//	    template: orders_template
type Config struct {
	Dialect   string                 `yaml:"dialect"`
	DSN       string                 `yaml:"dsn"`
	Prefix    string                 `yaml:"prefix"`
	Separator string                 `yaml:"separator"`
	WeekStart string                 `yaml:"week_start"`
	Location  string                 `yaml:"location"`
	Tables    map[string]TableConfig `yaml:"tables"`
}

// TableConfig holds per base table settings.
type TableConfig struct {
	// Template is the table new monthly tables are copied from.
	Template string `yaml:"template"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Dialect:   dialect.MySQL,
		Separator: "_",
		WeekStart: "monday",
	}
}

// LoadConfig reads the YAML file at path over the defaults. An empty
// path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error
	switch dialect.Normalize(c.Dialect) {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported dialect %q", c.Dialect))
	}
	if _, err := parseWeekday(c.WeekStart); err != nil {
		errs = append(errs, err)
	}
	if c.Location != "" {
		if _, err := time.LoadLocation(c.Location); err != nil {
			errs = append(errs, fmt.Errorf("unknown location %q", c.Location))
		}
	}
	return errors.Join(errs...)
}

// Template returns the template table of base, which defaults to base.
func (c *Config) Template(base string) string {
	if t := c.Tables[base].Template; t != "" {
		return t
	}
	return base
}

// ShardOptions converts the configuration into shard options.
func (c *Config) ShardOptions() ([]shard.Option, error) {
	wd, err := parseWeekday(c.WeekStart)
	if err != nil {
		return nil, err
	}
	opts := []shard.Option{
		shard.WithDialect(c.Dialect),
		shard.WithSeparator(c.Separator),
		shard.WithWeekStart(wd),
	}
	if c.Location != "" {
		loc, err := time.LoadLocation(c.Location)
		if err != nil {
			return nil, err
		}
		opts = append(opts, shard.WithLocation(loc))
	}
	return opts, nil
}

// TablesOptions converts the configuration into schema options.
func (c *Config) TablesOptions() []schema.TablesOption {
	return []schema.TablesOption{
		schema.WithPrefix(c.Prefix),
		schema.WithTableFunc(shard.Separator(c.Separator)),
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Monday, nil
	}
	wd, ok := weekdays[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown week start %q", s)
	}
	return wd, nil
}
