// Package schema manages the physical tables of monthly sharded entities.
//
// New monthly tables are copied from an existing one with the dialect's
// CREATE TABLE ... LIKE form:
//
//	tables, err := schema.NewTables(drv, schema.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	// CREATE TABLE IF NOT EXISTS `orders_202402` LIKE `orders_202401`
//	err = tables.CreateMonthly(ctx, "orders", "_202402", "_202401")
package schema
