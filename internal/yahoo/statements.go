package yahoo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/model"
)

// Statement page kinds.
const (
	KindIncomeStatement = "income-statement"
	KindEPS             = "eps"
)

// Column labels on the statement pages.
const (
	ColPeriod           = "年度/季別"
	ColRevenue          = "營業收入"
	ColOperatingExpense = "營業費用"
	ColNetIncome        = "稅後淨利"
	ColEPS              = "每股盈餘"
)

// RequiredColumns must all be present after merging the two statements.
var RequiredColumns = []string{ColRevenue, ColOperatingExpense, ColNetIncome, ColEPS}

// IncomeStatement scrapes the latest quarterly income statement.
func (c *Client) IncomeStatement(ctx context.Context, ticker string) (*Statement, error) {
	return c.statement(ctx, ticker, KindIncomeStatement)
}

// EPS scrapes the quarterly earnings-per-share table.
func (c *Client) EPS(ctx context.Context, ticker string) (*Statement, error) {
	return c.statement(ctx, ticker, KindEPS)
}

func (c *Client) statement(ctx context.Context, ticker, kind string) (*Statement, error) {
	body, err := c.http.Get(ctx, c.twURL+"/"+c.Symbol(ticker)+"/"+kind, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", kind, ticker, err)
	}

	st, err := ParseStatement(bytes.NewReader(body), kind)
	if err != nil {
		return nil, fmt.Errorf("parse %s %s: %w", kind, ticker, err)
	}
	return st, nil
}

// ParseStatement extracts the two-column table in section#qsp-{kind}-table.
// Returns fetch.ErrEmptyResult when the section, its header or its rows are
// missing.
func ParseStatement(r io.Reader, kind string) (*Statement, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	section := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Section && attr(n, "id") == "qsp-"+kind+"-table"
	})
	if section == nil {
		return nil, fmt.Errorf("table section: %w", fetch.ErrEmptyResult)
	}

	header := findFirst(section, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "table-header")
	})
	if header == nil {
		return nil, fmt.Errorf("table header: %w", fetch.ErrEmptyResult)
	}
	fields := strippedStrings(header)
	if len(fields) < 2 {
		return nil, fmt.Errorf("incomplete table header: %w", fetch.ErrEmptyResult)
	}

	st := &Statement{Header: [2]string{fields[0], fields[1]}}
	for _, li := range findAll(section, func(n *html.Node) bool {
		return n.DataAtom == atom.Li && hasClass(n, "List(n)")
	}) {
		cells := strippedStrings(li)
		if len(cells) < 2 {
			continue
		}
		st.Rows = append(st.Rows, [2]string{cells[0], strings.ReplaceAll(cells[1], ",", "")})
	}

	if len(st.Rows) == 0 {
		return nil, fmt.Errorf("table rows: %w", fetch.ErrEmptyResult)
	}
	return st, nil
}

// QuarterlyFromStatements reconciles the two statements into quarterly
// records. The income statement lists items for a single period named in its
// header; the EPS table lists one row per period. Periods are matched on their
// label and every required column must be present.
func QuarterlyFromStatements(ticker string, income, eps *Statement) ([]model.QuarterlyRecord, error) {
	if income == nil || eps == nil {
		return nil, fmt.Errorf("reconcile %s: %w", ticker, fetch.ErrEmptyResult)
	}

	// Transpose the income statement into one row keyed by its period.
	rows := map[string]map[string]string{}
	period := strings.TrimSpace(income.Header[1])
	incomeRow := map[string]string{}
	for _, r := range income.Rows {
		incomeRow[r[0]] = r[1]
	}

	// Merge with EPS rows on the period label.
	epsCol := strings.TrimSpace(eps.Header[1])
	for _, r := range eps.Rows {
		if strings.TrimSpace(r[0]) != period {
			continue
		}
		merged := make(map[string]string, len(incomeRow)+1)
		for k, v := range incomeRow {
			merged[k] = v
		}
		merged[epsCol] = r[1]
		rows[period] = merged
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("reconcile %s: no EPS row for period %q: %w", ticker, period, fetch.ErrEmptyResult)
	}

	var records []model.QuarterlyRecord
	for label, row := range rows {
		var missing []string
		for _, col := range RequiredColumns {
			if _, ok := row[col]; !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("reconcile %s: missing columns %v", ticker, missing)
		}

		q, err := model.ParseQuarter(label)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", ticker, err)
		}

		records = append(records, model.QuarterlyRecord{
			Ticker:           ticker,
			Quarter:          q,
			Revenue:          ParseDecimal(row[ColRevenue]),
			OperatingExpense: ParseDecimal(row[ColOperatingExpense]),
			NetIncome:        ParseDecimal(row[ColNetIncome]),
			EPS:              ParseDecimal(row[ColEPS]),
		})
	}

	return records, nil
}

// ParseDecimal coerces a cell to a decimal; unparseable values are NULL.
func ParseDecimal(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// strippedStrings returns the non-blank text nodes under n, trimmed.
func strippedStrings(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
