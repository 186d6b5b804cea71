package updater

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/model"
	"github.com/rickgao/stockdb/internal/yahoo"
)

// RenewDaily fetches prices from the day after the latest stored price date
// (or the configured start date) through today for every listed company,
// then exchange metrics for each new trading date.
func (u *Updater) RenewDaily(ctx context.Context) error {
	var newDates []time.Time

	err := u.runStep(ctx, model.RunDaily, func(run *model.SyncRun) error {
		latest, ok, err := u.deps.Store.LatestPriceDate(ctx)
		if err != nil {
			return fmt.Errorf("load latest price date: %w", err)
		}

		start := u.cfg.StartDate
		if ok {
			start = latest.AddDate(0, 0, 1)
			u.logger.Info("latest price date", "date", latest.Format(model.DateLayout))
		} else {
			u.logger.Info("no prices stored", "start", start.Format(model.DateLayout))
		}

		today := model.Day(u.cfg.Now())
		if start.After(today) {
			u.logger.Info("daily records up to date")
			return nil
		}

		companies, err := u.deps.Listing.Companies(ctx)
		if err != nil {
			return fmt.Errorf("list companies: %w", err)
		}

		closes, err := u.deps.Store.LastCloses(ctx, start)
		if err != nil {
			return fmt.Errorf("load last closes: %w", err)
		}

		dates := make(map[time.Time]struct{})
		for _, c := range companies {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			got, err := u.renewTickerPrices(ctx, c.Ticker, start, today, lastClose(closes, c.Ticker))
			if err != nil {
				u.fail(ctx, run, model.RunDaily, c.Ticker, err)
				continue
			}
			if len(got) == 0 {
				run.Skipped++
				continue
			}

			u.succeed(ctx, run, model.RunDaily, c.Ticker)
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

	if len(newDates) == 0 {
		return nil
	}
	return u.renewAdvancedDates(ctx, newDates)
}

// RenewAdvanced backfills exchange metrics for stored price dates on or after
// since that have none.
func (u *Updater) RenewAdvanced(ctx context.Context, since time.Time) error {
	dates, err := u.deps.Store.DatesMissingAdvanced(ctx, since)
	if err != nil {
		return fmt.Errorf("load dates missing advanced: %w", err)
	}
	if len(dates) == 0 {
		u.logger.Info("no dates missing advanced metrics", "since", since.Format(model.DateLayout))
		return nil
	}
	return u.renewAdvancedDates(ctx, dates)
}

// renewTickerPrices fetches, computes returns and upserts one ticker's prices.
// It returns the dates written.
func (u *Updater) renewTickerPrices(ctx context.Context, ticker string, from, to time.Time, prevClose *float64) ([]time.Time, error) {
	records, err := u.deps.Quotes.Prices(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	yahoo.ComputeReturns(records, prevClose)

	if _, err := u.deps.Store.UpsertPrices(ctx, records); err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(records))
	for i, r := range records {
		dates[i] = model.Day(r.Date)
	}
	u.logger.Debug("renewed prices", "ticker", ticker, "count", len(records))
	return dates, nil
}

// renewAdvancedDates fetches and stores exchange metrics per date, ascending.
func (u *Updater) renewAdvancedDates(ctx context.Context, dates []time.Time) error {
	return u.runStep(ctx, model.RunAdvanced, func(run *model.SyncRun) error {
		for _, d := range dates {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			id := d.Format(model.DateLayout)
			n, err := u.renewAdvancedDate(ctx, d)
			if err != nil {
				u.fail(ctx, run, model.RunAdvanced, id, err)
				continue
			}

			u.logger.Debug("renewed advanced metrics", "date", id, "count", n)
			u.succeed(ctx, run, model.RunAdvanced, id)
		}
		return nil
	})
}

// renewAdvancedDate stores whatever metrics came back. A partial result is
// stored and still reported so the date stays in the failure set.
func (u *Updater) renewAdvancedDate(ctx context.Context, date time.Time) (int, error) {
	metrics, err := u.deps.Exchange.Advanced(ctx, date)
	if err != nil && !errors.Is(err, fetch.ErrPartialResult) {
		return 0, err
	}

	n, serr := u.deps.Store.UpdateAdvanced(ctx, date, metrics)
	if serr != nil {
		return n, serr
	}
	return n, err
}

func lastClose(closes map[string]float64, ticker string) *float64 {
	c, ok := closes[ticker]
	if !ok {
		return nil
	}
	return &c
}

func sortedDates(set map[time.Time]struct{}) []time.Time {
	out := make([]time.Time, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
