package cli

import (
	"errors"
	"log/slog"

	"github.com/luffluo/ormsupport/dialect"
	"github.com/luffluo/ormsupport/dialect/sql"
)

// openDriver opens the configured database. Statements are logged at
// debug level and slow ones as warnings.
func openDriver(cfg *Config, logger *slog.Logger) (dialect.Driver, error) {
	if cfg.DSN == "" {
		return nil, errors.New("no dsn configured")
	}
	name := dialect.Normalize(cfg.Dialect)
	drv, err := sql.Open(name, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if name == dialect.SQLite {
		drv.DB().SetMaxOpenConns(1)
	}
	return sql.NewStatsDriver(
		sql.NewDebugDriver(drv, logger),
		sql.WithSlowQueryLog(logger),
	), nil
}
