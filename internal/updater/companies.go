package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickgao/stockdb/internal/model"
)

// RenewCompanies adds listed companies that are not stored yet. With all, or
// when nothing is stored, every company is replaced instead.
func (u *Updater) RenewCompanies(ctx context.Context, all bool) error {
	return u.runStep(ctx, model.RunCompanies, func(run *model.SyncRun) error {
		stored, err := u.deps.Store.CompanyTickers(ctx)
		if err != nil {
			return fmt.Errorf("load stored companies: %w", err)
		}

		listed, err := u.deps.Listing.Companies(ctx)
		if err != nil {
			return fmt.Errorf("list companies: %w", err)
		}

		replace := all || len(stored) == 0
		todo := listed
		if !replace {
			todo = newCompanies(listed, stored)
		}

		u.logger.Info("renewing companies", "replace", replace, "count", len(todo))
		if len(todo) == 0 {
			u.logger.Info("no new companies")
			return nil
		}

		profiled := u.profileCompanies(ctx, run, todo)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if replace {
			if len(profiled) == 0 {
				return errors.New("replace companies: no company profile could be fetched")
			}
			if _, err := u.deps.Store.ReplaceCompanies(ctx, profiled); err != nil {
				return err
			}
			return nil
		}

		if _, err := u.deps.Store.InsertCompanies(ctx, profiled); err != nil {
			return err
		}
		return nil
	})
}

// profileCompanies fills shares outstanding and market cap. Companies whose
// profile cannot be fetched are logged, recorded and left out.
func (u *Updater) profileCompanies(ctx context.Context, run *model.SyncRun, companies []model.Company) []model.Company {
	out := make([]model.Company, 0, len(companies))
	for _, c := range companies {
		if ctx.Err() != nil {
			break
		}

		err := u.retry(ctx, "profile "+c.Ticker, func(ctx context.Context) error {
			var err error
			c.SharesOutstanding, c.MarketCap, err = u.deps.Quotes.Profile(ctx, c.Ticker)
			return err
		})
		if err != nil {
			u.fail(ctx, run, model.RunCompanies, c.Ticker, err)
			continue
		}

		u.logger.Debug("profiled company", "ticker", c.Ticker, "name", c.Name)
		u.succeed(ctx, run, model.RunCompanies, c.Ticker)
		out = append(out, c)
	}
	return out
}

// newCompanies returns listed companies whose ticker is not stored.
func newCompanies(listed []model.Company, stored []string) []model.Company {
	known := make(map[string]struct{}, len(stored))
	for _, t := range stored {
		known[t] = struct{}{}
	}

	var out []model.Company
	for _, c := range listed {
		if _, ok := known[c.Ticker]; !ok {
			out = append(out, c)
		}
	}
	return out
}
