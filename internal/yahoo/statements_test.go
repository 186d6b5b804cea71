package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/model"
)

const incomePage = `<html><body>
<section id="qsp-income-statement-table">
  <div class="table-header D(f)"><div><span>年度/季別</span></div><div><span>2024 Q3</span></div><div>2024 Q2</div></div>
  <ul>
    <li class="List(n)"><div><span>營業收入</span></div><div><span>759,692,143</span></div></li>
    <li class="List(n)"><div><span>營業毛利</span></div><div><span>438,186,480</span></div></li>
    <li class="List(n)"><div><span>營業費用</span></div><div><span>70,855,244</span></div></li>
    <li class="List(n)"><div><span>稅後淨利</span></div><div><span>325,258,270</span></div></li>
    <li class="List(n)"><div><span>只有標題</span></div></li>
    <li class="Other"><div>ignored</div><div>1</div></li>
  </ul>
</section>
</body></html>`

const epsPage = `<html><body>
<section id="qsp-eps-table">
  <div class="table-header"><span>年度/季別</span><span>每股盈餘</span><span>季增率</span></div>
  <ul>
    <li class="List(n) Bdbc(#e2e2e2)"><div>2024 Q3</div><div>12.54</div><div>31.1%</div></li>
    <li class="List(n)"><div>2024 Q2</div><div>9.56</div><div>9.9%</div></li>
  </ul>
</section>
</body></html>`

func TestParseStatement(t *testing.T) {
	st, err := ParseStatement(strings.NewReader(incomePage), KindIncomeStatement)
	if err != nil {
		t.Fatalf("ParseStatement() error = %v", err)
	}

	if st.Header != [2]string{"年度/季別", "2024 Q3"} {
		t.Errorf("Header = %v", st.Header)
	}
	if len(st.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 4: %v", len(st.Rows), st.Rows)
	}
	if st.Rows[0] != [2]string{"營業收入", "759692143"} {
		t.Errorf("Rows[0] = %v, want thousands separators removed", st.Rows[0])
	}
}

func TestParseStatement_Missing(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no section", `<section id="qsp-eps-table"></section>`},
		{"no header", `<section id="qsp-income-statement-table"><li class="List(n)"><div>a</div><div>1</div></li></section>`},
		{"short header", `<section id="qsp-income-statement-table"><div class="table-header">年度/季別</div></section>`},
		{"no rows", `<section id="qsp-income-statement-table"><div class="table-header"><span>a</span><span>b</span></div></section>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatement(strings.NewReader(tt.page), KindIncomeStatement)
			if !errors.Is(err, fetch.ErrEmptyResult) {
				t.Errorf("err = %v, want ErrEmptyResult", err)
			}
		})
	}
}

func mustParse(t *testing.T, page, kind string) *Statement {
	t.Helper()
	st, err := ParseStatement(strings.NewReader(page), kind)
	if err != nil {
		t.Fatalf("ParseStatement(%s) error = %v", kind, err)
	}
	return st
}

func TestQuarterlyFromStatements(t *testing.T) {
	income := mustParse(t, incomePage, KindIncomeStatement)
	eps := mustParse(t, epsPage, KindEPS)

	records, err := QuarterlyFromStatements("2330", income, eps)
	if err != nil {
		t.Fatalf("QuarterlyFromStatements() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	r := records[0]
	if r.Ticker != "2330" || r.Quarter != (model.Quarter{Year: 2024, Q: 3}) {
		t.Errorf("key = %s, want 2330/2024 Q3", r.Key())
	}
	if !r.Revenue.Valid || !r.Revenue.Decimal.Equal(decimal.NewFromInt(759692143)) {
		t.Errorf("Revenue = %v", r.Revenue)
	}
	if !r.OperatingExpense.Decimal.Equal(decimal.NewFromInt(70855244)) {
		t.Errorf("OperatingExpense = %v", r.OperatingExpense)
	}
	if !r.NetIncome.Decimal.Equal(decimal.NewFromInt(325258270)) {
		t.Errorf("NetIncome = %v", r.NetIncome)
	}
	if !r.EPS.Decimal.Equal(decimal.RequireFromString("12.54")) {
		t.Errorf("EPS = %v", r.EPS)
	}
}

func TestQuarterlyFromStatements_MissingColumn(t *testing.T) {
	income := &Statement{
		Header: [2]string{ColPeriod, "2024 Q3"},
		Rows:   [][2]string{{ColRevenue, "1"}, {ColNetIncome, "2"}},
	}
	eps := &Statement{
		Header: [2]string{ColPeriod, ColEPS},
		Rows:   [][2]string{{"2024 Q3", "1.5"}},
	}

	_, err := QuarterlyFromStatements("2330", income, eps)
	if err == nil || !strings.Contains(err.Error(), ColOperatingExpense) {
		t.Errorf("err = %v, want missing %s", err, ColOperatingExpense)
	}
}

func TestQuarterlyFromStatements_NoMatchingPeriod(t *testing.T) {
	income := &Statement{
		Header: [2]string{ColPeriod, "2024 Q3"},
		Rows:   [][2]string{{ColRevenue, "1"}},
	}
	eps := &Statement{
		Header: [2]string{ColPeriod, ColEPS},
		Rows:   [][2]string{{"2024 Q2", "1.5"}},
	}

	_, err := QuarterlyFromStatements("2330", income, eps)
	if !errors.Is(err, fetch.ErrEmptyResult) {
		t.Errorf("err = %v, want ErrEmptyResult", err)
	}
}

func TestQuarterlyFromStatements_CoercesNumerics(t *testing.T) {
	income := &Statement{
		Header: [2]string{ColPeriod, "2023 Q4"},
		Rows: [][2]string{
			{ColRevenue, "100"},
			{ColOperatingExpense, "-"},
			{ColNetIncome, "-20"},
		},
	}
	eps := &Statement{
		Header: [2]string{ColPeriod, ColEPS},
		Rows:   [][2]string{{"2023 Q4", "N/A"}},
	}

	records, err := QuarterlyFromStatements("1101", income, eps)
	if err != nil {
		t.Fatalf("QuarterlyFromStatements() error = %v", err)
	}
	r := records[0]
	if r.OperatingExpense.Valid {
		t.Errorf("OperatingExpense should be NULL, got %v", r.OperatingExpense.Decimal)
	}
	if r.EPS.Valid {
		t.Errorf("EPS should be NULL, got %v", r.EPS.Decimal)
	}
	if !r.NetIncome.Valid || r.NetIncome.Decimal.IntPart() != -20 {
		t.Errorf("NetIncome = %v, want -20", r.NetIncome)
	}
}

func TestStatementEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2330.TW/income-statement":
			w.Write([]byte(incomePage))
		case "/2330.TW/eps":
			w.Write([]byte(epsPage))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := New(fetch.NewClient(fetch.WithRetries(1, time.Millisecond)), WithTWURL(server.URL))
	ctx := context.Background()

	income, err := c.IncomeStatement(ctx, "2330")
	if err != nil {
		t.Fatalf("IncomeStatement() error = %v", err)
	}
	eps, err := c.EPS(ctx, "2330")
	if err != nil {
		t.Fatalf("EPS() error = %v", err)
	}
	if len(eps.Rows) != 2 {
		t.Errorf("len(eps.Rows) = %d, want 2", len(eps.Rows))
	}
	if _, err := QuarterlyFromStatements("2330", income, eps); err != nil {
		t.Errorf("QuarterlyFromStatements() error = %v", err)
	}

	if _, err := c.EPS(ctx, "9999"); err == nil {
		t.Error("expected error for unknown ticker")
	}
}
