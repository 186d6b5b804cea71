package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/stockdb/internal/cache"
	"github.com/rickgao/stockdb/internal/config"
	"github.com/rickgao/stockdb/internal/database"
	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/store"
	"github.com/rickgao/stockdb/internal/twse"
	"github.com/rickgao/stockdb/internal/updater"
	"github.com/rickgao/stockdb/internal/version"
	"github.com/rickgao/stockdb/internal/yahoo"
)

// app holds what every command needs: config and logger, plus the database
// once opened.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *database.Pool
	redis  *redis.Client
}

// setup loads the config and installs the configured logger.
func setup() (*app, error) {
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"version", version.Version,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)
	return &app{cfg: cfg, logger: logger}, nil
}

// openStore connects to the database and bootstraps the schema.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	a.logger.Info("connecting to database",
		"host", a.cfg.Database.Host,
		"port", a.cfg.Database.Port,
		"database", a.cfg.Database.Name,
	)

	pool, err := database.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.pool = pool

	return store.New(store.Config{BatchSize: a.cfg.Sync.BatchSize}, pool.Pool, a.logger), nil
}

// httpClient returns the paced, retrying client every source shares.
func (a *app) httpClient() *fetch.Client {
	h := a.cfg.HTTP
	return fetch.NewClient(
		fetch.WithTimeout(h.Timeout),
		fetch.WithRetries(h.MaxRetries, h.RetryBackoff),
		fetch.WithInterval(h.Interval()),
		fetch.WithUserAgent(h.UserAgent),
		fetch.WithLogger(a.logger),
	)
}

// failures returns the redis failure set when configured, else an in-memory one.
func (a *app) failures(ctx context.Context) (cache.FailureSet, error) {
	c := a.cfg.Cache
	if c.RedisAddr == "" {
		a.logger.Debug("failure set kept in memory")
		return cache.NewMemory(), nil
	}

	a.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, DB: c.RedisDB})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", c.RedisAddr, err)
	}
	return cache.NewRedis(a.redis, c.KeyPrefix), nil
}

// updater wires the sources, store and failure set.
func (a *app) updater(ctx context.Context, st *store.Store) (*updater.Updater, error) {
	start, err := a.cfg.Sync.StartTime()
	if err != nil {
		return nil, fmt.Errorf("parse sync.start_date: %w", err)
	}

	failures, err := a.failures(ctx)
	if err != nil {
		return nil, err
	}

	hc := a.httpClient()
	src := a.cfg.Sources
	exchange := twse.New(hc,
		twse.WithISINURL(src.ISINURL),
		twse.WithBaseURL(src.TWSEURL),
		twse.WithLogger(a.logger),
	)
	quotes := yahoo.New(hc,
		yahoo.WithChartURL(src.YahooChartURL),
		yahoo.WithQuoteURL(src.YahooQuoteURL),
		yahoo.WithTWURL(src.YahooTWURL),
		yahoo.WithSuffix(src.TickerSuffix),
		yahoo.WithLogger(a.logger),
	)

	cfg := updater.DefaultConfig()
	cfg.StartDate = start
	cfg.Backoff = a.cfg.HTTP.RetryBackoff

	return updater.New(cfg, updater.Deps{
		Store:    st,
		Listing:  twse.NewLister(exchange),
		Exchange: exchange,
		Quotes:   quotes,
		Failures: failures,
	}, a.logger), nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
