package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/model"
)

// Field names used by the JSON reports.
const (
	fieldTicker        = "證券代號"
	fieldYield         = "殖利率(%)"
	fieldPE            = "本益比"
	fieldPB            = "股價淨值比"
	fieldInstitutional = "三大法人買賣超股數"
)

// Margin table column positions: ticker, margin purchases, short sales.
const (
	marginTickerCol = 0
	marginBuyCol    = 2
	marginSellCol   = 9
)

// ReportDateLayout is the date format the JSON reports expect.
const ReportDateLayout = "20060102"

// report is the common envelope of the after-trading JSON reports.
type report struct {
	Stat   string     `json:"stat"`
	Fields []string   `json:"fields"`
	Data   [][]any    `json:"data"`
	Tables []rawTable `json:"tables"`
}

type rawTable struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
	Data   [][]any  `json:"data"`
}

// Valuation fetches dividend yield, P/E and P/B for every ticker on date.
func (c *Client) Valuation(ctx context.Context, date time.Time) (map[string]model.Advanced, error) {
	rep, err := c.report(ctx, "/afterTrading/BWIBBU_d", date, "ALL")
	if err != nil {
		return nil, fmt.Errorf("get valuation %s: %w", date.Format(model.DateLayout), err)
	}
	return parseValuation(rep)
}

// Institutional fetches the net buy/sell shares of the three institutional
// investors for every ticker on date.
func (c *Client) Institutional(ctx context.Context, date time.Time) (map[string]model.Advanced, error) {
	rep, err := c.report(ctx, "/fund/T86", date, "ALLBUT0999")
	if err != nil {
		return nil, fmt.Errorf("get institutional %s: %w", date.Format(model.DateLayout), err)
	}
	return parseInstitutional(rep)
}

// Margin fetches margin purchases and short sales for every ticker on date.
func (c *Client) Margin(ctx context.Context, date time.Time) (map[string]model.Advanced, error) {
	rep, err := c.report(ctx, "/marginTrading/MI_MARGN", date, "STOCK")
	if err != nil {
		return nil, fmt.Errorf("get margin %s: %w", date.Format(model.DateLayout), err)
	}
	return parseMargin(rep)
}

// Advanced fetches all three reports for date and keeps only tickers present
// in every report that returned data. A failing report is logged and left out
// of the join, and the joined metrics come back with fetch.ErrPartialResult.
// Returns fetch.ErrEmptyResult when no report had data.
func (c *Client) Advanced(ctx context.Context, date time.Time) (map[string]model.Advanced, error) {
	sources := []struct {
		name string
		fn   func(context.Context, time.Time) (map[string]model.Advanced, error)
	}{
		{"valuation", c.Valuation},
		{"institutional", c.Institutional},
		{"margin", c.Margin},
	}

	var (
		parts  []map[string]model.Advanced
		failed []string
	)
	for _, src := range sources {
		part, err := src.fn(ctx, date)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("advanced source failed",
				"source", src.name,
				"date", date.Format(model.DateLayout),
				"error", err,
			)
			failed = append(failed, src.name)
		} else {
			parts = append(parts, part)
		}

		if err := fetch.Pause(ctx, c.pause); err != nil {
			return nil, err
		}
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("advanced %s: %w", date.Format(model.DateLayout), fetch.ErrEmptyResult)
	}

	joined := JoinAdvanced(parts...)
	if len(failed) > 0 {
		return joined, fmt.Errorf("advanced %s: %s failed: %w",
			date.Format(model.DateLayout), strings.Join(failed, ", "), fetch.ErrPartialResult)
	}
	return joined, nil
}

// JoinAdvanced inner-joins the partial metric maps on ticker, left to right.
func JoinAdvanced(parts ...map[string]model.Advanced) map[string]model.Advanced {
	if len(parts) == 0 {
		return nil
	}

	out := make(map[string]model.Advanced, len(parts[0]))
	for ticker, adv := range parts[0] {
		out[ticker] = adv
	}

	for _, part := range parts[1:] {
		for ticker, adv := range out {
			other, ok := part[ticker]
			if !ok {
				delete(out, ticker)
				continue
			}
			out[ticker] = adv.Merge(other)
		}
	}

	return out
}

func (c *Client) report(ctx context.Context, path string, date time.Time, selectType string) (*report, error) {
	query := url.Values{}
	query.Set("date", date.Format(ReportDateLayout))
	query.Set("selectType", selectType)
	query.Set("response", "json")

	var rep report
	if err := c.http.GetJSON(ctx, c.baseURL+path, query, &rep); err != nil {
		return nil, err
	}
	if rep.Stat != "OK" {
		return nil, fmt.Errorf("stat %q: %w", rep.Stat, fetch.ErrEmptyResult)
	}
	return &rep, nil
}

func parseValuation(rep *report) (map[string]model.Advanced, error) {
	if len(rep.Data) == 0 {
		return nil, fetch.ErrEmptyResult
	}

	cols, err := columns(rep.Fields, fieldTicker, fieldYield, fieldPE, fieldPB)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.Advanced, len(rep.Data))
	for _, row := range rep.Data {
		ticker, ok := tickerAt(row, cols[0])
		if !ok {
			continue
		}
		out[ticker] = model.Advanced{
			Yield: numberAt(row, cols[1]),
			PE:    numberAt(row, cols[2]),
			PB:    numberAt(row, cols[3]),
		}
	}
	return out, nil
}

func parseInstitutional(rep *report) (map[string]model.Advanced, error) {
	if len(rep.Data) == 0 {
		return nil, fetch.ErrEmptyResult
	}

	cols, err := columns(rep.Fields, fieldTicker, fieldInstitutional)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.Advanced, len(rep.Data))
	for _, row := range rep.Data {
		ticker, ok := tickerAt(row, cols[0])
		if !ok {
			continue
		}
		out[ticker] = model.Advanced{InstitutionalNet: numberAt(row, cols[1])}
	}
	return out, nil
}

func parseMargin(rep *report) (map[string]model.Advanced, error) {
	if len(rep.Tables) < 2 || len(rep.Tables[1].Data) == 0 {
		return nil, fetch.ErrEmptyResult
	}

	out := make(map[string]model.Advanced, len(rep.Tables[1].Data))
	for _, row := range rep.Tables[1].Data {
		if len(row) <= marginSellCol {
			continue
		}
		ticker, ok := tickerAt(row, marginTickerCol)
		if !ok {
			continue
		}
		out[ticker] = model.Advanced{
			MarginBuy:  numberAt(row, marginBuyCol),
			MarginSell: numberAt(row, marginSellCol),
		}
	}
	if len(out) == 0 {
		return nil, fetch.ErrEmptyResult
	}
	return out, nil
}

// columns resolves field names to positions.
func columns(fields []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(fields))
	for i, f := range fields {
		pos[strings.TrimSpace(f)] = i
	}

	out := make([]int, len(names))
	var missing []string
	for i, name := range names {
		p, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[i] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing fields %v", missing)
	}
	return out, nil
}

func tickerAt(row []any, i int) (string, bool) {
	if i >= len(row) {
		return "", false
	}
	s := strings.TrimSpace(cellString(row[i]))
	return s, s != ""
}

func numberAt(row []any, i int) *float64 {
	if i >= len(row) {
		return nil
	}
	return ParseNumber(cellString(row[i]))
}

func cellString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// ParseNumber parses a report cell, dropping thousands separators.
// Placeholders such as "--", "N/A" and "" return nil.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	switch s {
	case "", "-", "--", "---", "N/A", "NA":
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
