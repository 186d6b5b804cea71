// Package database manages the PostgreSQL connection pool and applies the
// bootstrap schema.
//
// Tables:
//   - companies: one row per listed ticker
//   - daily_records: prices and exchange metrics keyed by (ticker, date)
//   - quarterly_records: income statement figures keyed by (ticker, year, quarter)
//   - sync_runs: one row per renew step
package database
