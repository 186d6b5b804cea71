package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/model"
)

// Prices fetches daily bars for ticker from from through to, inclusive.
// Bars without a close are dropped. Return is left unset.
func (c *Client) Prices(ctx context.Context, ticker string, from, to time.Time) ([]model.DailyRecord, error) {
	query := url.Values{}
	query.Set("period1", strconv.FormatInt(model.Day(from).Unix(), 10))
	query.Set("period2", strconv.FormatInt(model.Day(to).AddDate(0, 0, 1).Unix(), 10))
	query.Set("interval", "1d")
	query.Set("events", "history")
	query.Set("includeAdjustedClose", "true")

	var resp ChartResponse
	if err := c.http.GetJSON(ctx, c.chartURL+"/"+url.PathEscape(c.Symbol(ticker)), query, &resp); err != nil {
		return nil, fmt.Errorf("get prices %s: %w", ticker, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("get prices %s: %w", ticker, resp.Chart.Error)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("get prices %s: %w", ticker, fetch.ErrEmptyResult)
	}

	records := ChartToRecords(ticker, &resp.Chart.Result[0])

	// The chart API may return a bar for the current session outside the range.
	first, last := model.Day(from), model.Day(to)
	kept := records[:0]
	for _, r := range records {
		if r.Date.Before(first) || r.Date.After(last) {
			continue
		}
		kept = append(kept, r)
	}

	return kept, nil
}

// ChartToRecords converts a chart result to daily records in exchange-local
// calendar dates.
func ChartToRecords(ticker string, res *ChartResult) []model.DailyRecord {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]

	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	records := make([]model.DailyRecord, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		closePrice := floatAt(q.Close, i)
		if closePrice == nil {
			continue
		}

		rec := model.DailyRecord{
			Ticker:   ticker,
			Date:     model.Day(time.Unix(ts+res.Meta.GMTOffset, 0).UTC()),
			Open:     floatAt(q.Open, i),
			High:     floatAt(q.High, i),
			Low:      floatAt(q.Low, i),
			Close:    closePrice,
			AdjClose: floatAt(adj, i),
		}
		if i < len(q.Volume) {
			rec.Volume = q.Volume[i]
		}
		if rec.AdjClose == nil {
			rec.AdjClose = closePrice
		}

		records = append(records, rec)
	}

	return records
}

// ComputeReturns fills Return for records sorted by date, using prevClose for
// the first record. A nil prevClose leaves the first Return unset.
func ComputeReturns(records []model.DailyRecord, prevClose *float64) {
	prev := prevClose
	for i := range records {
		cur := records[i].Close
		if cur != nil && prev != nil && *prev != 0 {
			records[i].Return = model.Float(*cur / *prev - 1)
		}
		if cur != nil {
			prev = cur
		}
	}
}

func floatAt(s []*float64, i int) *float64 {
	if i >= len(s) {
		return nil
	}
	return s[i]
}
