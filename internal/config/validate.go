package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.HTTP.MaxRetries < 1 {
		return errors.New("http.max_retries must be >= 1")
	}
	if c.HTTP.RetryBackoff < 0 {
		return errors.New("http.retry_backoff must be >= 0")
	}
	if c.HTTP.Interval() < 0 {
		return errors.New("http.request_interval must be >= 0")
	}

	if _, err := time.Parse("2006-01-02", c.Sync.StartDate); err != nil {
		return fmt.Errorf("sync.start_date must be YYYY-MM-DD, got %q", c.Sync.StartDate)
	}
	if c.Sync.BatchSize < 1 {
		return errors.New("sync.batch_size must be >= 1")
	}

	if c.Reports.ChunkSize < 1 {
		return errors.New("reports.chunk_size must be >= 1")
	}
	if o := c.Reports.Overlap(); o < 0 || o >= c.Reports.ChunkSize {
		return fmt.Errorf("reports.chunk_overlap (%d) must be in [0, chunk_size)", o)
	}
	if c.Reports.TopK < 1 {
		return errors.New("reports.top_k must be >= 1")
	}
	if c.Reports.MinWait > c.Reports.MaxWait {
		return fmt.Errorf("reports.min_wait (%v) cannot exceed max_wait (%v)", c.Reports.MinWait, c.Reports.MaxWait)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// ParseLevel maps log.level to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", s)
}
