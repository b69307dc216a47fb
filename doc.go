// Package ormsupport holds the error taxonomy shared by the dialect, schema
// and shard packages.
//
// The interesting parts live in sub-packages:
//
//   - shard: month resolution and UNION ALL composition over monthly tables
//   - dialect/sql: the query builder and database/sql driver
//   - dialect/sql/schema: creating, dropping and listing monthly tables
package ormsupport
