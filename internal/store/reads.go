package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/stockdb/internal/model"
)

// Tables in the schema.
var Tables = []string{"companies", "daily_records", "quarterly_records", "sync_runs"}

// ErrUnknownTable is returned by TableInfo for tables outside the schema.
var ErrUnknownTable = errors.New("unknown table")

// Filter narrows reads. Zero values do not filter.
type Filter struct {
	Ticker string
	From   time.Time
	To     time.Time
	Limit  int
}

// where builds a WHERE clause and its positional arguments.
func (f Filter) where(dateExpr string) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Ticker != "" {
		add("ticker = ?", f.Ticker)
	}
	if !f.From.IsZero() {
		add(dateExpr+" >= ?", model.Day(f.From))
	}
	if !f.To.IsZero() {
		add(dateExpr+" <= ?", model.Day(f.To))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f Filter) limit() string {
	if f.Limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(f.Limit)
}

// DailyRecords returns daily rows ordered by ticker ascending, date descending.
func (s *Store) DailyRecords(ctx context.Context, f Filter) ([]model.DailyRecord, error) {
	where, args := f.where("date")
	rows, err := s.db.Query(ctx, `
		SELECT ticker, date, open, high, low, close, adj_close, volume, daily_return,
			yield, pe, pb, institutional_net, margin_buy, margin_sell
		FROM daily_records`+where+`
		ORDER BY ticker ASC, date DESC`+f.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query daily records: %w", err)
	}
	defer rows.Close()

	var out []model.DailyRecord
	for rows.Next() {
		var r model.DailyRecord
		err := rows.Scan(
			&r.Ticker, &r.Date, &r.Open, &r.High, &r.Low, &r.Close, &r.AdjClose, &r.Volume, &r.Return,
			&r.Yield, &r.PE, &r.PB, &r.InstitutionalNet, &r.MarginBuy, &r.MarginSell,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily record: %w", err)
		}
		r.Date = model.Day(r.Date)
		out = append(out, r)
	}
	return out, rows.Err()
}

// quarterDateExpr derives the period date (first day of the quarter's last
// month) from the year and quarter columns.
const quarterDateExpr = `make_date(year, CAST(substr(quarter, 2) AS INTEGER) * 3, 1)`

// QuarterlyRecords returns quarterly rows ordered by ticker ascending, period
// descending. Date filters apply to the derived period date.
func (s *Store) QuarterlyRecords(ctx context.Context, f Filter) ([]model.QuarterlyRecord, error) {
	where, args := f.where(quarterDateExpr)
	rows, err := s.db.Query(ctx, `
		SELECT ticker, year, quarter, revenue, operating_expense, net_income, eps
		FROM quarterly_records`+where+`
		ORDER BY ticker ASC, year DESC, quarter DESC`+f.limit(), args...)
	if err != nil {
		return nil, fmt.Errorf("query quarterly records: %w", err)
	}
	defer rows.Close()

	var out []model.QuarterlyRecord
	for rows.Next() {
		var r model.QuarterlyRecord
		var name string
		err := rows.Scan(&r.Ticker, &r.Quarter.Year, &name, &r.Revenue, &r.OperatingExpense, &r.NetIncome, &r.EPS)
		if err != nil {
			return nil, fmt.Errorf("scan quarterly record: %w", err)
		}
		if r.Quarter.Q, err = model.ParseQuarterName(name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ColumnInfo describes one table column.
type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
}

// IndexInfo describes one index.
type IndexInfo struct {
	Name       string
	Definition string
}

// TableInfo describes a table's columns and indexes.
type TableInfo struct {
	Name    string
	Columns []ColumnInfo
	Indexes []IndexInfo
}

// TableInfo returns the column and index layout of table.
func (s *Store) TableInfo(ctx context.Context, table string) (*TableInfo, error) {
	if !knownTable(table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	info := &TableInfo{Name: table}

	rows, err := s.db.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan column: %w", err)
		}
		info.Columns = append(info.Columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	rows, err = s.db.Query(ctx, `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = $1
		ORDER BY indexname
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var idx IndexInfo
		if err := rows.Scan(&idx.Name, &idx.Definition); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		info.Indexes = append(info.Indexes, idx)
	}
	return info, rows.Err()
}

func knownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
