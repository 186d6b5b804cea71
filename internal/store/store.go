package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool and pgx.Tx the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Config holds store settings.
type Config struct {
	BatchSize int // Rows per pgx.Batch round trip
}

// DefaultConfig returns default settings.
func DefaultConfig() Config {
	return Config{BatchSize: 500}
}

// Metrics counts write outcomes since the store was created.
type Metrics struct {
	Inserts   int64
	Updates   int64
	Conflicts int64
	Errors    int64
	Batches   int64
}

// Store reads and writes the stock tables.
type Store struct {
	cfg    Config
	db     DB
	logger *slog.Logger

	mu      sync.Mutex
	metrics Metrics
}

// New creates a store over db.
func New(cfg Config, db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Store{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

// Stats returns current metrics.
func (s *Store) Stats() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *Store) record(fn func(m *Metrics)) {
	s.mu.Lock()
	fn(&s.metrics)
	s.mu.Unlock()
}

// chunks splits n rows into [start, end) ranges of at most size.
func chunks(n, size int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// execBatch sends the queued statements and counts rows that changed nothing.
func execBatch(ctx context.Context, db DB, batch *pgx.Batch) (affected, unaffected int, err error) {
	results := db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		ct, err := results.Exec()
		if err != nil {
			return affected, unaffected, err
		}
		if ct.RowsAffected() == 0 {
			unaffected++
		} else {
			affected++
		}
	}

	return affected, unaffected, nil
}
