package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/stockdb/internal/model"
)

// LatestPriceDate returns the newest date that has a price row. ok is false
// when no prices are stored.
func (s *Store) LatestPriceDate(ctx context.Context) (date time.Time, ok bool, err error) {
	var latest *time.Time
	err = s.db.QueryRow(ctx, `SELECT MAX(date) FROM daily_records WHERE open IS NOT NULL`).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query latest price date: %w", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return model.Day(*latest), true, nil
}

// LastCloses returns each ticker's most recent close strictly before date.
func (s *Store) LastCloses(ctx context.Context, before time.Time) (map[string]float64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (ticker) ticker, close
		FROM daily_records
		WHERE date < $1 AND close IS NOT NULL
		ORDER BY ticker, date DESC
	`, model.Day(before))
	if err != nil {
		return nil, fmt.Errorf("query last closes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var ticker string
		var closePrice float64
		if err := rows.Scan(&ticker, &closePrice); err != nil {
			return nil, fmt.Errorf("scan last close: %w", err)
		}
		out[ticker] = closePrice
	}
	return out, rows.Err()
}

// UpsertPrices writes price columns, preserving any advanced metrics already
// stored for the same (ticker, date).
func (s *Store) UpsertPrices(ctx context.Context, records []model.DailyRecord) (int, error) {
	written := 0
	for _, span := range chunks(len(records), s.cfg.BatchSize) {
		batch := &pgx.Batch{}
		for _, r := range records[span[0]:span[1]] {
			batch.Queue(upsertPriceSQL, priceArgs(r)...)
		}

		n, _, err := execBatch(ctx, s.db, batch)
		s.record(func(m *Metrics) {
			m.Batches++
			m.Updates += int64(n)
			if err != nil {
				m.Errors++
			}
		})
		if err != nil {
			return written, fmt.Errorf("upsert prices: %w", err)
		}
		written += n
	}
	return written, nil
}

// UpdateAdvanced writes advanced metrics for date, preserving stored prices.
// Tickers that are not 4-digit codes are ignored.
func (s *Store) UpdateAdvanced(ctx context.Context, date time.Time, metrics map[string]model.Advanced) (int, error) {
	tickers := make([]string, 0, len(metrics))
	for t := range metrics {
		if model.ValidTicker(t) {
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)

	written := 0
	for _, span := range chunks(len(tickers), s.cfg.BatchSize) {
		batch := &pgx.Batch{}
		for _, t := range tickers[span[0]:span[1]] {
			batch.Queue(upsertAdvancedSQL, advancedArgs(t, date, metrics[t])...)
		}

		n, _, err := execBatch(ctx, s.db, batch)
		s.record(func(m *Metrics) {
			m.Batches++
			m.Updates += int64(n)
			if err != nil {
				m.Errors++
			}
		})
		if err != nil {
			return written, fmt.Errorf("update advanced %s: %w", date.Format(model.DateLayout), err)
		}
		written += n
	}
	return written, nil
}

// DatesMissingAdvanced returns the ascending price dates on or after since
// whose rows carry no advanced metric at all.
func (s *Store) DatesMissingAdvanced(ctx context.Context, since time.Time) ([]time.Time, error) {
	rows, err := s.db.Query(ctx, `
		SELECT date
		FROM daily_records
		WHERE date >= $1 AND open IS NOT NULL
		GROUP BY date
		HAVING COUNT(yield) = 0 AND COUNT(pe) = 0 AND COUNT(pb) = 0
			AND COUNT(institutional_net) = 0 AND COUNT(margin_buy) = 0 AND COUNT(margin_sell) = 0
		ORDER BY date
	`, model.Day(since))
	if err != nil {
		return nil, fmt.Errorf("query dates missing advanced: %w", err)
	}

	dates, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("scan dates missing advanced: %w", err)
	}
	for i := range dates {
		dates[i] = model.Day(dates[i])
	}
	return dates, nil
}

// TickerLatestDate returns the newest date with a price row for ticker.
func (s *Store) TickerLatestDate(ctx context.Context, ticker string) (date time.Time, ok bool, err error) {
	var latest *time.Time
	err = s.db.QueryRow(ctx, `
		SELECT MAX(date) FROM daily_records WHERE ticker = $1 AND open IS NOT NULL
	`, ticker).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query latest price date %s: %w", ticker, err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return model.Day(*latest), true, nil
}
