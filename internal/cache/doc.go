// Package cache keeps the set of tickers and dates whose last sync attempt
// failed, so a later run can revisit only those.
package cache
