// Package sql provides SQL query building primitives and a database/sql
// backed implementation of the dialect.Driver interface.
//
// # Builder Types
//
//   - Builder: Low-level SQL string builder with identifier quoting and
//     dialect placeholders ("?" for MySQL and SQLite, "$n" for PostgreSQL)
//   - Selector: SELECT builder with projections, predicates, grouping,
//     UNION / UNION ALL members, ordering and pagination
//   - Predicate: WHERE predicates (EQ, In, Between, And, Or, Not, ...)
//
// Invalid identifiers and operators are never written into a query. They
// are recorded on the selector and reported by Err, and the offending call
// leaves the selector unchanged:
//
//	s := sql.Dialect(dialect.MySQL).
//	    Select("id", "amount").
//	    From(sql.Table("orders_202401")).
//	    Where(sql.EQ("status", "paid"))
//	if err := s.Err(); err != nil {
//	    return err
//	}
//	query, args := s.Query()
//
// # Unions
//
// A selector keeps its union members as a list of selectors. Operations
// applied to the selector are NOT applied to its members; the shard package
// closes that gap for monthly tables.
//
//	q := sql.Select("id").From(sql.Table("orders_202401")).
//	    UnionAll(sql.Select("id").From(sql.Table("orders_202402")))
//	// SELECT `id` FROM `orders_202401` UNION ALL SELECT `id` FROM `orders_202402`
//
// # Typed Predicates
//
// StringField, NumberField and TimeField produce func(*Selector) predicates:
//
//	var Amount = sql.NumberField[func(*sql.Selector), int64]("amount")
//	Amount.Between(10, 20)(selector)
//
// # Drivers
//
// Driver wraps *database/sql.DB. StatsDriver and DebugDriver wrap any
// dialect.Driver with counters, slow-query detection and slog logging.
package sql
