// Package dialect names the SQL dialects monthly tables are queried in
// and defines the small driver surface the rest of the module runs on.
//
// A ComposedQuery only needs an ExecQuerier to run its UNION ALL:
//
//	drv, err := sql.Open("mysql", "app:secret@tcp(127.0.0.1:3306)/shop")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
//	q, err := orders.QueryForLastWeek()
//	if err != nil {
//	    return err
//	}
//	rows, err := q.Rows(ctx, drv)
//
// The table manager in dialect/sql/schema needs a full Driver, since it
// picks its CREATE TABLE statement from Driver.Dialect. Driver names such
// as "sqlite3", "postgresql" or "mariadb" map to the three dialect
// constants through Normalize.
package dialect
