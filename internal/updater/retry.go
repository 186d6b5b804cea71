package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/stockdb/internal/model"
)

// RetryFailed reprocesses the items recorded in the failure set by earlier
// runs. Items that succeed are removed from the set.
func (u *Updater) RetryFailed(ctx context.Context) error {
	steps := []struct {
		kind string
		fn   func(context.Context, []string) error
	}{
		{model.RunCompanies, u.retryCompanies},
		{model.RunDaily, u.retryDaily},
		{model.RunAdvanced, u.retryAdvanced},
		{model.RunQuarterly, u.retryQuarterly},
	}

	var errs []error
	for _, step := range steps {
		ids, err := u.deps.Failures.Members(ctx, step.kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(ids) == 0 {
			continue
		}

		u.logger.Info("retrying failed items", "kind", step.kind, "count", len(ids))
		if err := step.fn(ctx, ids); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, fmt.Errorf("retry %s: %w", step.kind, err))
		}
	}
	return errors.Join(errs...)
}

func (u *Updater) retryCompanies(ctx context.Context, tickers []string) error {
	return u.runStep(ctx, model.RunCompanies, func(run *model.SyncRun) error {
		listed, err := u.deps.Listing.Companies(ctx)
		if err != nil {
			return fmt.Errorf("list companies: %w", err)
		}

		want := toSet(tickers)
		var todo []model.Company
		for _, c := range listed {
			if _, ok := want[c.Ticker]; ok {
				todo = append(todo, c)
				delete(want, c.Ticker)
			}
		}

		// Delisted since the failure; nothing left to fetch.
		for t := range want {
			run.Skipped++
			u.forget(ctx, model.RunCompanies, t)
		}

		profiled := u.profileCompanies(ctx, run, todo)
		if len(profiled) == 0 {
			return nil
		}
		_, err = u.deps.Store.InsertCompanies(ctx, profiled)
		return err
	})
}

func (u *Updater) retryDaily(ctx context.Context, tickers []string) error {
	var newDates []time.Time

	err := u.runStep(ctx, model.RunDaily, func(run *model.SyncRun) error {
		today := model.Day(u.cfg.Now())
		dates := make(map[time.Time]struct{})

		for _, ticker := range tickers {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			start := u.cfg.StartDate
			latest, ok, err := u.deps.Store.TickerLatestDate(ctx, ticker)
			if err != nil {
				u.fail(ctx, run, model.RunDaily, ticker, err)
				continue
			}
			if ok {
				start = latest.AddDate(0, 0, 1)
			}
			if start.After(today) {
				run.Skipped++
				u.forget(ctx, model.RunDaily, ticker)
				continue
			}

			closes, err := u.deps.Store.LastCloses(ctx, start)
			if err != nil {
				u.fail(ctx, run, model.RunDaily, ticker, err)
				continue
			}

			got, err := u.renewTickerPrices(ctx, ticker, start, today, lastClose(closes, ticker))
			if err != nil {
				u.fail(ctx, run, model.RunDaily, ticker, err)
				continue
			}

			u.succeed(ctx, run, model.RunDaily, ticker)
			for _, d := range got {
				dates[d] = struct{}{}
			}
		}

		newDates = sortedDates(dates)
		return nil
	})
	if err != nil {
		return err
	}

	// Dates this retry added may already carry metrics for other tickers;
	// only fetch those still missing them.
	if len(newDates) == 0 {
		return nil
	}
	missing, err := u.deps.Store.DatesMissingAdvanced(ctx, newDates[0])
	if err != nil {
		return fmt.Errorf("load dates missing advanced: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}
	return u.renewAdvancedDates(ctx, missing)
}

func (u *Updater) retryAdvanced(ctx context.Context, ids []string) error {
	var dates []time.Time
	for _, id := range ids {
		d, err := time.Parse(model.DateLayout, id)
		if err != nil {
			u.logger.Warn("dropping malformed failure", "kind", model.RunAdvanced, "id", id)
			u.forget(ctx, model.RunAdvanced, id)
			continue
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil
	}
	return u.renewAdvancedDates(ctx, dates)
}

func (u *Updater) retryQuarterly(ctx context.Context, tickers []string) error {
	return u.runStep(ctx, model.RunQuarterly, func(run *model.SyncRun) error {
		for _, ticker := range tickers {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := u.renewTickerQuarterly(ctx, ticker); err != nil {
				u.fail(ctx, run, model.RunQuarterly, ticker, err)
				continue
			}
			u.succeed(ctx, run, model.RunQuarterly, ticker)
		}
		return nil
	})
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
