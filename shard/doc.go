// Package shard queries entities whose rows are partitioned into one
// table per calendar month, such as orders_202401 and orders_202402.
//
// A Resolver maps a named period (yesterday, last week, a year-month,
// an explicit range) to the months it touches. A Composer turns those
// months into a ComposedQuery: one SELECT branch per monthly table, all
// attached to the first with UNION ALL. Projections, predicates and
// grouping applied to the ComposedQuery are copied to every branch, so
// the combined statement filters each table the same way:
//
//	months := []shard.Month{{2024, time.January}, {2024, time.February}}
//	q, err := shard.Compose(months, "orders", shard.DefaultTable, func() shard.Branch {
//		return shard.NewSelectorBranch(dialect.MySQL)
//	})
//	if err != nil {
//		return err
//	}
//	_ = q.Where("status", "=", "paid")
//	query, args, err := q.Query()
//	// SELECT * FROM `orders_202401` WHERE `status` = ?
//	// UNION ALL SELECT * FROM `orders_202402` WHERE `status` = ?
//
// Monthly bundles a Resolver and a Composer for one entity and exposes
// the named periods directly (QueryForLastWeek, QueryForPeriod, ...).
package shard
