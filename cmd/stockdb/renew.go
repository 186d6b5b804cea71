package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/rickgao/stockdb/internal/model"
	"github.com/rickgao/stockdb/internal/updater"
)

type renewCmd struct {
	all           bool
	quarterly     string
	retryFailed   bool
	backfillSince string
}

func (*renewCmd) Name() string     { return "renew" }
func (*renewCmd) Synopsis() string { return "brings companies, daily and quarterly records up to date" }
func (*renewCmd) Usage() string {
	return `stockdb renew [-all] [-quarterly=true|false] [-retry-failed] [-backfill-since YYYY-MM-DD]

Renews the company list, then daily prices and exchange metrics from the day
after the latest stored date through today, then (unless disabled) the
latest quarterly results.

  -all             replace every stored company instead of adding new ones
  -quarterly       override sync.renew_quarterly from the config
  -retry-failed    afterwards, retry the items that failed in earlier runs
  -backfill-since  afterwards, fetch exchange metrics for stored dates on or
                   after this date that have none
`
}

func (c *renewCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "Replace every stored company.")
	f.StringVar(&c.quarterly, "quarterly", "", "Renew quarterly records (true|false, default from config).")
	f.BoolVar(&c.retryFailed, "retry-failed", false, "Retry items that failed in earlier runs.")
	f.StringVar(&c.backfillSince, "backfill-since", "", "Backfill exchange metrics from this date (YYYY-MM-DD).")
}

func (c *renewCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	opts := updater.Options{All: c.all, Quarterly: a.cfg.Sync.QuarterlyEnabled()}
	switch c.quarterly {
	case "":
	case "true":
		opts.Quarterly = true
	case "false":
		opts.Quarterly = false
	default:
		fmt.Fprintf(os.Stderr, "Error: -quarterly must be true or false, got %q\n", c.quarterly)
		return subcommands.ExitUsageError
	}

	var since time.Time
	if c.backfillSince != "" {
		since, err = time.Parse(model.DateLayout, c.backfillSince)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -backfill-since: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	st, err := a.openStore(ctx)
	if err != nil {
		a.logger.Error("failed to open database", "error", err)
		return subcommands.ExitFailure
	}
	u, err := a.updater(ctx, st)
	if err != nil {
		a.logger.Error("failed to set up updater", "error", err)
		return subcommands.ExitFailure
	}

	start := time.Now()
	errs := []error{u.Renew(ctx, opts)}
	if ctx.Err() == nil && c.retryFailed {
		errs = append(errs, u.RetryFailed(ctx))
	}
	if ctx.Err() == nil && !since.IsZero() {
		errs = append(errs, u.RenewAdvanced(ctx, since))
	}

	stats := st.Stats()
	a.logger.Info("renew finished",
		"duration", time.Since(start),
		"inserts", stats.Inserts,
		"updates", stats.Updates,
		"conflicts", stats.Conflicts,
		"db_errors", stats.Errors,
	)

	if err := errors.Join(errs...); err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Warn("renew interrupted")
		} else {
			a.logger.Error("renew finished with errors", "error", err)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
