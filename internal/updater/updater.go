package updater

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rickgao/stockdb/internal/cache"
	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/model"
	"github.com/rickgao/stockdb/internal/yahoo"
)

// Store is the persistence the updater reads and writes.
type Store interface {
	CompanyTickers(ctx context.Context) ([]string, error)
	ReplaceCompanies(ctx context.Context, companies []model.Company) (int, error)
	InsertCompanies(ctx context.Context, companies []model.Company) (int, error)

	LatestPriceDate(ctx context.Context) (time.Time, bool, error)
	TickerLatestDate(ctx context.Context, ticker string) (time.Time, bool, error)
	LastCloses(ctx context.Context, before time.Time) (map[string]float64, error)
	UpsertPrices(ctx context.Context, records []model.DailyRecord) (int, error)
	UpdateAdvanced(ctx context.Context, date time.Time, metrics map[string]model.Advanced) (int, error)
	DatesMissingAdvanced(ctx context.Context, since time.Time) ([]time.Time, error)

	LatestQuarter(ctx context.Context) (model.Quarter, bool, error)
	InsertQuarterly(ctx context.Context, records []model.QuarterlyRecord) (int, int, error)

	StartRun(ctx context.Context, run model.SyncRun) error
	FinishRun(ctx context.Context, run model.SyncRun) error
}

// Listing returns the currently listed companies.
type Listing interface {
	Companies(ctx context.Context) ([]model.Company, error)
}

// Exchange returns the exchange-published daily metrics for a date.
type Exchange interface {
	Advanced(ctx context.Context, date time.Time) (map[string]model.Advanced, error)
}

// Quotes returns prices, profiles and statements per ticker.
type Quotes interface {
	Prices(ctx context.Context, ticker string, from, to time.Time) ([]model.DailyRecord, error)
	Profile(ctx context.Context, ticker string) (shares, marketCap *int64, err error)
	IncomeStatement(ctx context.Context, ticker string) (*yahoo.Statement, error)
	EPS(ctx context.Context, ticker string) (*yahoo.Statement, error)
}

// Deps are the updater's collaborators.
type Deps struct {
	Store    Store
	Listing  Listing
	Exchange Exchange
	Quotes   Quotes
	Failures cache.FailureSet // nil keeps failures in memory
}

// Config holds updater settings.
type Config struct {
	StartDate time.Time        // First date fetched into an empty store
	Attempts  int              // Total attempts for profile and statement fetches
	Backoff   time.Duration    // Fixed wait between attempts
	Now       func() time.Time // nil uses time.Now
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		StartDate: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		Attempts:  3,
		Backoff:   2 * time.Second,
	}
}

// Options select what Renew does.
type Options struct {
	Quarterly bool // Also renew quarterly records
	All       bool // Replace every company instead of adding new ones
}

// Updater synchronizes the store with the upstream sources.
type Updater struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
}

// New creates an Updater.
func New(cfg Config, deps Deps, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = DefaultConfig().StartDate
	}
	if deps.Failures == nil {
		deps.Failures = cache.NewMemory()
	}

	return &Updater{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// Renew runs companies, daily and, when asked, quarterly renewal. A failing
// step is logged and the next one still runs; the joined step errors are
// returned. Cancellation stops immediately.
func (u *Updater) Renew(ctx context.Context, opts Options) error {
	start := time.Now()
	u.logger.Info("starting renew", "all", opts.All, "quarterly", opts.Quarterly)

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{model.RunCompanies, func(ctx context.Context) error { return u.RenewCompanies(ctx, opts.All) }},
		{model.RunDaily, u.RenewDaily},
	}
	if opts.Quarterly {
		steps = append(steps, struct {
			name string
			fn   func(context.Context) error
		}{model.RunQuarterly, u.RenewQuarterly})
	}

	var errs []error
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			u.logger.Error("renew step failed", "step", step.name, "error", err)
			errs = append(errs, err)
		}
	}

	u.logger.Info("renew complete", "failed_steps", len(errs), "duration", time.Since(start))
	return errors.Join(errs...)
}

// runStep records a sync run around fn.
func (u *Updater) runStep(ctx context.Context, kind string, fn func(run *model.SyncRun) error) error {
	run := model.NewSyncRun(kind, u.cfg.Now())
	if err := u.deps.Store.StartRun(ctx, run); err != nil {
		u.logger.Warn("record run start failed", "kind", kind, "error", err)
	}

	started := time.Now()
	err := fn(&run)

	run.FinishedAt = u.cfg.Now()
	if ferr := u.deps.Store.FinishRun(ctx, run); ferr != nil {
		u.logger.Warn("record run finish failed", "kind", kind, "error", ferr)
	}

	u.logger.Info("step complete",
		"kind", kind,
		"run_id", run.ID,
		"succeeded", run.Succeeded,
		"failed", run.Failed,
		"skipped", run.Skipped,
		"duration", time.Since(started),
	)
	return err
}

// fail logs a per-item failure and remembers it for RetryFailed.
func (u *Updater) fail(ctx context.Context, run *model.SyncRun, kind, id string, err error) {
	run.Failed++
	u.logger.Warn("item failed", "kind", kind, "id", id, "error", err)
	if ferr := u.deps.Failures.Add(ctx, kind, id); ferr != nil {
		u.logger.Warn("record failure failed", "kind", kind, "id", id, "error", ferr)
	}
}

// succeed counts a success and forgets any earlier failure of the item.
func (u *Updater) succeed(ctx context.Context, run *model.SyncRun, kind, id string) {
	run.Succeeded++
	u.forget(ctx, kind, id)
}

func (u *Updater) forget(ctx context.Context, kind, id string) {
	if err := u.deps.Failures.Remove(ctx, kind, id); err != nil {
		u.logger.Warn("clear failure failed", "kind", kind, "id", id, "error", err)
	}
}

// retry calls fn up to cfg.Attempts times with a fixed wait, retrying only
// empty results. Transport errors are already retried by the HTTP client.
func (u *Updater) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= u.cfg.Attempts; attempt++ {
		if attempt > 1 {
			u.logger.Warn("retrying", "op", op, "attempt", attempt, "max_attempts", u.cfg.Attempts, "error", err)
			if perr := fetch.Pause(ctx, u.cfg.Backoff); perr != nil {
				return perr
			}
		}

		err = fn(ctx)
		if err == nil || !errors.Is(err, fetch.ErrEmptyResult) {
			return err
		}
	}
	return err
}
