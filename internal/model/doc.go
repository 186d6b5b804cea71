// Package model defines the core data types persisted by stockdb.
//
// Relational types:
//   - Company: one row per listed ticker
//   - DailyRecord: prices plus advanced metrics, keyed by (ticker, date)
//   - QuarterlyRecord: income statement figures, keyed by (ticker, year, quarter)
//
// Daily prices and advanced metrics come from different upstreams and land in
// the same row, so every metric is nullable.
package model
