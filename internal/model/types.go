package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical date format used for daily keys.
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------
// Relational Types
// -----------------------------------------------------------------------------

// Company is a listed equity.
type Company struct {
	Ticker            string // Primary key, 4-digit code (e.g., "2330")
	Name              string // Display name
	Industry          string // Industry classification
	SharesOutstanding *int64 // Outstanding shares, nil if unknown
	MarketCap         *int64 // Market capitalization, nil if unknown
}

// DailyRecord is one trading day for one ticker.
type DailyRecord struct {
	Ticker string    // Part of primary key
	Date   time.Time // Part of primary key (UTC midnight)

	// Prices
	Open     *float64
	High     *float64
	Low      *float64
	Close    *float64
	AdjClose *float64
	Volume   *int64
	Return   *float64 // Close / previous close - 1

	Advanced
}

// Advanced holds the exchange-published daily metrics merged onto a price row.
type Advanced struct {
	Yield            *float64 // Dividend yield (%)
	PE               *float64 // Price-to-earnings
	PB               *float64 // Price-to-book
	InstitutionalNet *float64 // Net buy/sell shares of the three institutional investors
	MarginBuy        *float64 // Margin purchases
	MarginSell       *float64 // Short sales
}

// IsEmpty reports whether no advanced metric is set.
func (a Advanced) IsEmpty() bool {
	return a.Yield == nil && a.PE == nil && a.PB == nil &&
		a.InstitutionalNet == nil && a.MarginBuy == nil && a.MarginSell == nil
}

// Merge returns a with every metric set in b overriding it.
func (a Advanced) Merge(b Advanced) Advanced {
	if b.Yield != nil {
		a.Yield = b.Yield
	}
	if b.PE != nil {
		a.PE = b.PE
	}
	if b.PB != nil {
		a.PB = b.PB
	}
	if b.InstitutionalNet != nil {
		a.InstitutionalNet = b.InstitutionalNet
	}
	if b.MarginBuy != nil {
		a.MarginBuy = b.MarginBuy
	}
	if b.MarginSell != nil {
		a.MarginSell = b.MarginSell
	}
	return a
}

// QuarterlyRecord holds income statement figures for one quarter.
type QuarterlyRecord struct {
	Ticker           string
	Quarter          Quarter
	Revenue          decimal.NullDecimal
	OperatingExpense decimal.NullDecimal
	NetIncome        decimal.NullDecimal
	EPS              decimal.NullDecimal
}

// Key returns the unique (ticker, year, quarter) key.
func (q QuarterlyRecord) Key() string {
	return q.Ticker + "/" + q.Quarter.String()
}

// -----------------------------------------------------------------------------
// Bookkeeping Types
// -----------------------------------------------------------------------------

// Run kinds.
const (
	RunCompanies = "companies"
	RunDaily     = "daily"
	RunAdvanced  = "advanced"
	RunQuarterly = "quarterly"
)

// SyncRun records the outcome of one renew step.
type SyncRun struct {
	ID         uuid.UUID
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
	Skipped    int
}

// NewSyncRun starts a run of the given kind.
func NewSyncRun(kind string, now time.Time) SyncRun {
	return SyncRun{
		ID:        uuid.New(),
		Kind:      kind,
		StartedAt: now,
	}
}

// ValidTicker reports whether s is a 4-digit numeric ticker.
func ValidTicker(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Day truncates t to UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
