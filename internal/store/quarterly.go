package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/stockdb/internal/model"
)

// LatestQuarter returns the newest stored quarter. ok is false when the table
// is empty.
func (s *Store) LatestQuarter(ctx context.Context) (q model.Quarter, ok bool, err error) {
	var year int
	var name string
	err = s.db.QueryRow(ctx, `
		SELECT year, quarter
		FROM quarterly_records
		ORDER BY year DESC, quarter DESC
		LIMIT 1
	`).Scan(&year, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Quarter{}, false, nil
	}
	if err != nil {
		return model.Quarter{}, false, fmt.Errorf("query latest quarter: %w", err)
	}

	n, err := model.ParseQuarterName(name)
	if err != nil {
		return model.Quarter{}, false, err
	}
	return model.Quarter{Year: year, Q: n}, true, nil
}

// InsertQuarterly inserts records, skipping (ticker, year, quarter) keys that
// already exist.
func (s *Store) InsertQuarterly(ctx context.Context, records []model.QuarterlyRecord) (inserted, conflicts int, err error) {
	for _, span := range chunks(len(records), s.cfg.BatchSize) {
		batch := &pgx.Batch{}
		for _, r := range records[span[0]:span[1]] {
			batch.Queue(insertQuarterlySQL, quarterlyArgs(r)...)
		}

		n, c, err := execBatch(ctx, s.db, batch)
		s.record(func(m *Metrics) {
			m.Batches++
			m.Inserts += int64(n)
			m.Conflicts += int64(c)
			if err != nil {
				m.Errors++
			}
		})
		if err != nil {
			return inserted, conflicts, fmt.Errorf("insert quarterly: %w", err)
		}
		inserted += n
		conflicts += c
	}
	return inserted, conflicts, nil
}
