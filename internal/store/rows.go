package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/stockdb/internal/model"
)

// SQL statements. Kept as constants so argument builders and tests agree on
// column order.
const (
	insertCompanySQL = `
		INSERT INTO companies (ticker, name, industry, shares_outstanding, market_cap)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker) DO NOTHING`

	upsertPriceSQL = `
		INSERT INTO daily_records (ticker, date, open, high, low, close, adj_close, volume, daily_return)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume,
			daily_return = EXCLUDED.daily_return`

	upsertAdvancedSQL = `
		INSERT INTO daily_records (ticker, date, yield, pe, pb, institutional_net, margin_buy, margin_sell)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, date) DO UPDATE SET
			yield = COALESCE(EXCLUDED.yield, daily_records.yield),
			pe = COALESCE(EXCLUDED.pe, daily_records.pe),
			pb = COALESCE(EXCLUDED.pb, daily_records.pb),
			institutional_net = COALESCE(EXCLUDED.institutional_net, daily_records.institutional_net),
			margin_buy = COALESCE(EXCLUDED.margin_buy, daily_records.margin_buy),
			margin_sell = COALESCE(EXCLUDED.margin_sell, daily_records.margin_sell)`

	insertQuarterlySQL = `
		INSERT INTO quarterly_records (ticker, year, quarter, revenue, operating_expense, net_income, eps)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, year, quarter) DO NOTHING`
)

func companyArgs(c model.Company) []any {
	return []any{c.Ticker, c.Name, c.Industry, c.SharesOutstanding, c.MarketCap}
}

func priceArgs(r model.DailyRecord) []any {
	return []any{
		r.Ticker,
		model.Day(r.Date),
		r.Open,
		r.High,
		r.Low,
		r.Close,
		r.AdjClose,
		r.Volume,
		r.Return,
	}
}

func advancedArgs(ticker string, date time.Time, a model.Advanced) []any {
	return []any{
		ticker,
		model.Day(date),
		a.Yield,
		a.PE,
		a.PB,
		a.InstitutionalNet,
		a.MarginBuy,
		a.MarginSell,
	}
}

func quarterlyArgs(r model.QuarterlyRecord) []any {
	return []any{
		r.Ticker,
		r.Quarter.Year,
		r.Quarter.Name(),
		nullDecimal(r.Revenue),
		nullDecimal(r.OperatingExpense),
		nullDecimal(r.NetIncome),
		nullDecimal(r.EPS),
	}
}

// nullDecimal returns nil for NULL so the driver sends a typed null.
func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}
