// Package updater decides what remote data is missing from the store, fetches
// it and merges it in.
//
// A renew runs three steps in order, each recorded as a sync run:
//   - companies: insert newly listed tickers, or replace all of them
//   - daily: prices from the day after the latest stored date through today,
//     then exchange metrics for every new trading date
//   - quarterly: income statement and EPS when a newer report is published
//
// Work is sequential. Per-ticker and per-date failures are logged, added to
// the failure set and skipped; RetryFailed revisits them later.
package updater
