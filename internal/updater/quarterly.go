package updater

import (
	"context"
	"fmt"

	"github.com/rickgao/stockdb/internal/model"
	"github.com/rickgao/stockdb/internal/yahoo"
)

// RenewQuarterly fetches every listed company's latest income statement and
// EPS when a report newer than the latest stored quarter must be out.
func (u *Updater) RenewQuarterly(ctx context.Context) error {
	return u.runStep(ctx, model.RunQuarterly, func(run *model.SyncRun) error {
		latest, ok, err := u.deps.Store.LatestQuarter(ctx)
		if err != nil {
			return fmt.Errorf("load latest quarter: %w", err)
		}

		available := AvailableQuarter(u.cfg.Now())
		u.logger.Info("quarterly status", "latest", latest.String(), "stored", ok, "available", available.String())

		if ok && !latest.Before(available) {
			u.logger.Info("quarterly records up to date")
			return nil
		}

		companies, err := u.deps.Listing.Companies(ctx)
		if err != nil {
			return fmt.Errorf("list companies: %w", err)
		}

		for _, c := range companies {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if _, err := u.renewTickerQuarterly(ctx, c.Ticker); err != nil {
				u.fail(ctx, run, model.RunQuarterly, c.Ticker, err)
				continue
			}
			u.succeed(ctx, run, model.RunQuarterly, c.Ticker)
		}

		u.logger.Info("quarterly renew finished",
			"success", fmt.Sprintf("%d/%d", run.Succeeded, len(companies)),
		)
		return nil
	})
}

// renewTickerQuarterly fetches both statements with bounded retry, reconciles
// them and inserts without overwriting. Returns the number of new rows.
func (u *Updater) renewTickerQuarterly(ctx context.Context, ticker string) (int, error) {
	var income, eps *yahoo.Statement

	err := u.retry(ctx, "income statement "+ticker, func(ctx context.Context) error {
		var err error
		income, err = u.deps.Quotes.IncomeStatement(ctx, ticker)
		return err
	})
	if err != nil {
		return 0, err
	}

	err = u.retry(ctx, "eps "+ticker, func(ctx context.Context) error {
		var err error
		eps, err = u.deps.Quotes.EPS(ctx, ticker)
		return err
	})
	if err != nil {
		return 0, err
	}

	records, err := yahoo.QuarterlyFromStatements(ticker, income, eps)
	if err != nil {
		return 0, err
	}

	inserted, _, err := u.deps.Store.InsertQuarterly(ctx, records)
	if err != nil {
		return 0, err
	}

	u.logger.Debug("renewed quarterly", "ticker", ticker, "inserted", inserted)
	return inserted, nil
}
