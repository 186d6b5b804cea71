// Package store persists companies, daily and quarterly records to
// PostgreSQL.
//
// Writes are idempotent:
//   - companies: insert-only (ON CONFLICT DO NOTHING) or full replace in one transaction
//   - daily prices: upsert touching only price columns
//   - daily advanced metrics: upsert touching only advanced columns
//   - quarterly records: insert-only (ON CONFLICT DO NOTHING)
package store
