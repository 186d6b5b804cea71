package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/stockdb/internal/model"
)

// CompanyTickers returns every stored ticker in ascending order.
func (s *Store) CompanyTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT ticker FROM companies ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query company tickers: %w", err)
	}

	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan company tickers: %w", err)
	}
	return tickers, nil
}

// Companies returns every stored company ordered by ticker.
func (s *Store) Companies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ticker, name, industry, shares_outstanding, market_cap
		FROM companies
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.Ticker, &c.Name, &c.Industry, &c.SharesOutstanding, &c.MarketCap); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceCompanies deletes every company and inserts companies in a single
// transaction.
func (s *Store) ReplaceCompanies(ctx context.Context, companies []model.Company) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM companies`); err != nil {
		return 0, fmt.Errorf("delete companies: %w", err)
	}

	inserted, err := s.insertCompanies(ctx, tx, companies)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("replaced companies", "count", inserted)
	return inserted, nil
}

// InsertCompanies inserts companies, leaving existing tickers untouched.
// Returns the number of new rows.
func (s *Store) InsertCompanies(ctx context.Context, companies []model.Company) (int, error) {
	return s.insertCompanies(ctx, s.db, companies)
}

func (s *Store) insertCompanies(ctx context.Context, db DB, companies []model.Company) (int, error) {
	inserted := 0
	for _, span := range chunks(len(companies), s.cfg.BatchSize) {
		batch := &pgx.Batch{}
		for _, c := range companies[span[0]:span[1]] {
			batch.Queue(insertCompanySQL, companyArgs(c)...)
		}

		n, conflicts, err := execBatch(ctx, db, batch)
		s.record(func(m *Metrics) {
			m.Batches++
			m.Inserts += int64(n)
			m.Conflicts += int64(conflicts)
			if err != nil {
				m.Errors++
			}
		})
		if err != nil {
			return inserted, fmt.Errorf("insert companies: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}
