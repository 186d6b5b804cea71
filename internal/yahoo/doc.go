// Package yahoo reads daily prices, company profiles and quarterly
// statement pages for exchange tickers.
package yahoo
