// Package twse reads the exchange's public listing page and its daily
// after-trading JSON reports (valuation ratios, institutional flows and
// margin trading).
package twse
