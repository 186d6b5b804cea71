package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/rickgao/stockdb/internal/model"
	"github.com/rickgao/stockdb/internal/store"
)

type getCmd struct {
	ticker string
	from   string
	to     string
	limit  int
	json   bool
}

func (*getCmd) Name() string     { return "get" }
func (*getCmd) Synopsis() string { return "prints daily or quarterly records" }
func (*getCmd) Usage() string {
	return `stockdb get daily|quarterly [-ticker 2330] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-limit n] [-json]

Prints stored records ordered by ticker, newest first. Quarterly rows are
filtered on the first day of the quarter's last month.
`
}

func (c *getCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "ticker", "", "Only this ticker.")
	f.StringVar(&c.from, "from", "", "First date (YYYY-MM-DD).")
	f.StringVar(&c.to, "to", "", "Last date (YYYY-MM-DD).")
	f.IntVar(&c.limit, "limit", 0, "At most this many rows (0 = all).")
	f.BoolVar(&c.json, "json", false, "Print one JSON object per line.")
}

func (c *getCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || (f.Arg(0) != "daily" && f.Arg(0) != "quarterly") {
		f.Usage()
		return subcommands.ExitUsageError
	}

	filter, err := c.filter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	st, err := a.openStore(ctx)
	if err != nil {
		a.logger.Error("failed to open database", "error", err)
		return subcommands.ExitFailure
	}

	switch f.Arg(0) {
	case "daily":
		records, err := st.DailyRecords(ctx, filter)
		if err != nil {
			a.logger.Error("failed to read daily records", "error", err)
			return subcommands.ExitFailure
		}
		err = c.print(os.Stdout, records, writeDaily)
		if err != nil {
			a.logger.Error("failed to print", "error", err)
			return subcommands.ExitFailure
		}
	case "quarterly":
		records, err := st.QuarterlyRecords(ctx, filter)
		if err != nil {
			a.logger.Error("failed to read quarterly records", "error", err)
			return subcommands.ExitFailure
		}
		err = c.print(os.Stdout, records, writeQuarterly)
		if err != nil {
			a.logger.Error("failed to print", "error", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (c *getCmd) filter() (store.Filter, error) {
	f := store.Filter{Ticker: c.ticker, Limit: c.limit}
	var err error
	if c.from != "" {
		if f.From, err = time.Parse(model.DateLayout, c.from); err != nil {
			return f, fmt.Errorf("invalid -from: %w", err)
		}
	}
	if c.to != "" {
		if f.To, err = time.Parse(model.DateLayout, c.to); err != nil {
			return f, fmt.Errorf("invalid -to: %w", err)
		}
	}
	return f, nil
}

// print writes rows as JSON lines or through a tab-aligned table writer.
func (c *getCmd) print(out io.Writer, rows any, table func(*tabwriter.Writer, any)) error {
	if c.json {
		enc := json.NewEncoder(out)
		switch rs := rows.(type) {
		case []model.DailyRecord:
			for _, r := range rs {
				if err := enc.Encode(dailyJSON(r)); err != nil {
					return err
				}
			}
		case []model.QuarterlyRecord:
			for _, r := range rs {
				if err := enc.Encode(quarterlyJSON(r)); err != nil {
					return err
				}
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	table(w, rows)
	return w.Flush()
}

func writeDaily(w *tabwriter.Writer, rows any) {
	fmt.Fprintln(w, "TICKER\tDATE\tOPEN\tHIGH\tLOW\tCLOSE\tADJ_CLOSE\tVOLUME\tRETURN\tYIELD\tPE\tPB\tINST_NET\tMARGIN_BUY\tMARGIN_SELL\t")
	for _, r := range rows.([]model.DailyRecord) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Ticker, r.Date.Format(model.DateLayout),
			fnum(r.Open), fnum(r.High), fnum(r.Low), fnum(r.Close), fnum(r.AdjClose),
			inum(r.Volume), fnum(r.Return),
			fnum(r.Yield), fnum(r.PE), fnum(r.PB),
			fnum(r.InstitutionalNet), fnum(r.MarginBuy), fnum(r.MarginSell),
		)
	}
}

func writeQuarterly(w *tabwriter.Writer, rows any) {
	fmt.Fprintln(w, "TICKER\tYEAR\tQUARTER\tDATE\tREVENUE\tOPERATING_EXPENSE\tNET_INCOME\tEPS\t")
	for _, r := range rows.([]model.QuarterlyRecord) {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Ticker, r.Quarter.Year, r.Quarter.Name(), r.Quarter.PeriodStart().Format(model.DateLayout),
			dnum(r.Revenue), dnum(r.OperatingExpense), dnum(r.NetIncome), dnum(r.EPS),
		)
	}
}

func dailyJSON(r model.DailyRecord) map[string]any {
	return map[string]any{
		"ticker":            r.Ticker,
		"date":              r.Date.Format(model.DateLayout),
		"open":              r.Open,
		"high":              r.High,
		"low":               r.Low,
		"close":             r.Close,
		"adj_close":         r.AdjClose,
		"volume":            r.Volume,
		"return":            r.Return,
		"yield":             r.Yield,
		"pe":                r.PE,
		"pb":                r.PB,
		"institutional_net": r.InstitutionalNet,
		"margin_buy":        r.MarginBuy,
		"margin_sell":       r.MarginSell,
	}
}

func quarterlyJSON(r model.QuarterlyRecord) map[string]any {
	return map[string]any{
		"ticker":            r.Ticker,
		"year":              r.Quarter.Year,
		"quarter":           r.Quarter.Name(),
		"date":              r.Quarter.PeriodStart().Format(model.DateLayout),
		"revenue":           r.Revenue,
		"operating_expense": r.OperatingExpense,
		"net_income":        r.NetIncome,
		"eps":               r.EPS,
	}
}

func fnum(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func inum(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func dnum(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
