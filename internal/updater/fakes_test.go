package updater

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/stockdb/internal/fetch"
	"github.com/rickgao/stockdb/internal/model"
	"github.com/rickgao/stockdb/internal/yahoo"
)

// memStore is an in-memory Store with the same merge rules as the SQL store.
type memStore struct {
	mu        sync.Mutex
	companies map[string]model.Company
	daily     map[string]model.DailyRecord // ticker/date
	quarterly map[string]model.QuarterlyRecord
	runs      []model.SyncRun
	replaced  int
}

func newMemStore() *memStore {
	return &memStore{
		companies: map[string]model.Company{},
		daily:     map[string]model.DailyRecord{},
		quarterly: map[string]model.QuarterlyRecord{},
	}
}

func dailyKey(ticker string, d time.Time) string {
	return ticker + "/" + d.Format(model.DateLayout)
}

func (s *memStore) CompanyTickers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for t := range s.companies {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) ReplaceCompanies(ctx context.Context, cs []model.Company) (int, error) {
	s.mu.Lock()
	s.companies = map[string]model.Company{}
	s.replaced++
	s.mu.Unlock()
	return s.InsertCompanies(ctx, cs)
}

func (s *memStore) InsertCompanies(ctx context.Context, cs []model.Company) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range cs {
		if _, ok := s.companies[c.Ticker]; ok {
			continue
		}
		s.companies[c.Ticker] = c
		n++
	}
	return n, nil
}

func (s *memStore) LatestPriceDate(ctx context.Context) (time.Time, bool, error) {
	return s.latest(func(string) bool { return true })
}

func (s *memStore) TickerLatestDate(ctx context.Context, ticker string) (time.Time, bool, error) {
	return s.latest(func(t string) bool { return t == ticker })
}

func (s *memStore) latest(match func(string) bool) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest time.Time
	found := false
	for _, r := range s.daily {
		if r.Open == nil || !match(r.Ticker) {
			continue
		}
		if !found || r.Date.After(newest) {
			newest, found = r.Date, true
		}
	}
	return newest, found, nil
}

func (s *memStore) LastCloses(ctx context.Context, before time.Time) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := map[string]time.Time{}
	out := map[string]float64{}
	for _, r := range s.daily {
		if r.Close == nil || !r.Date.Before(before) {
			continue
		}
		if d, ok := best[r.Ticker]; !ok || r.Date.After(d) {
			best[r.Ticker] = r.Date
			out[r.Ticker] = *r.Close
		}
	}
	return out, nil
}

func (s *memStore) UpsertPrices(ctx context.Context, recs []model.DailyRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		k := dailyKey(r.Ticker, r.Date)
		existing := s.daily[k]
		r.Advanced = existing.Advanced
		s.daily[k] = r
	}
	return len(recs), nil
}

func (s *memStore) UpdateAdvanced(ctx context.Context, date time.Time, m map[string]model.Advanced) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, a := range m {
		k := dailyKey(t, date)
		r, ok := s.daily[k]
		if !ok {
			r = model.DailyRecord{Ticker: t, Date: date}
		}
		r.Advanced = r.Advanced.Merge(a)
		s.daily[k] = r
	}
	return len(m), nil
}

func (s *memStore) DatesMissingAdvanced(ctx context.Context, since time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	has := map[time.Time]bool{}
	for _, r := range s.daily {
		if r.Open == nil || r.Date.Before(since) {
			continue
		}
		has[r.Date] = has[r.Date] || !r.Advanced.IsEmpty()
	}
	var out []time.Time
	for d, ok := range has {
		if !ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *memStore) LatestQuarter(ctx context.Context) (model.Quarter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best model.Quarter
	found := false
	for _, r := range s.quarterly {
		if !found || best.Before(r.Quarter) {
			best, found = r.Quarter, true
		}
	}
	return best, found, nil
}

func (s *memStore) InsertQuarterly(ctx context.Context, recs []model.QuarterlyRecord) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, c := 0, 0
	for _, r := range recs {
		if _, ok := s.quarterly[r.Key()]; ok {
			c++
			continue
		}
		s.quarterly[r.Key()] = r
		n++
	}
	return n, c, nil
}

func (s *memStore) StartRun(ctx context.Context, run model.SyncRun) error { return nil }

func (s *memStore) FinishRun(ctx context.Context, run model.SyncRun) error {
	s.mu.Lock()
	s.runs = append(s.runs, run)
	s.mu.Unlock()
	return nil
}

func (s *memStore) record(ticker string, d time.Time) (model.DailyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.daily[dailyKey(ticker, d)]
	return r, ok
}

func (s *memStore) lastRun(kind string) (model.SyncRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].Kind == kind {
			return s.runs[i], true
		}
	}
	return model.SyncRun{}, false
}

type fakeListing struct {
	companies []model.Company
	err       error
	calls     int
}

func (f *fakeListing) Companies(ctx context.Context) ([]model.Company, error) {
	f.calls++
	return f.companies, f.err
}

type fakeExchange struct {
	byDate  map[string]map[string]model.Advanced
	partial map[string]bool // dates returned with ErrPartialResult
	calls   []string
}

func (f *fakeExchange) Advanced(ctx context.Context, date time.Time) (map[string]model.Advanced, error) {
	id := date.Format(model.DateLayout)
	f.calls = append(f.calls, id)
	m, ok := f.byDate[id]
	if !ok {
		return nil, fetch.ErrEmptyResult
	}
	if f.partial[id] {
		return m, fmt.Errorf("advanced %s: margin failed: %w", id, fetch.ErrPartialResult)
	}
	return m, nil
}

type priceCall struct {
	ticker   string
	from, to time.Time
}

type fakeQuotes struct {
	closes      map[string]map[string]float64 // ticker -> date -> close
	priceErr    map[string]error
	priceCalls  []priceCall
	profiles    map[string]int64
	profileErrs map[string][]error // consumed in order
	income      map[string]*yahoo.Statement
	eps         map[string]*yahoo.Statement
	emptyTimes  map[string]int // income statement returns empty this many times
	stmtCalls   map[string]int
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		closes:      map[string]map[string]float64{},
		priceErr:    map[string]error{},
		profiles:    map[string]int64{},
		profileErrs: map[string][]error{},
		income:      map[string]*yahoo.Statement{},
		eps:         map[string]*yahoo.Statement{},
		emptyTimes:  map[string]int{},
		stmtCalls:   map[string]int{},
	}
}

func (f *fakeQuotes) Prices(ctx context.Context, ticker string, from, to time.Time) ([]model.DailyRecord, error) {
	f.priceCalls = append(f.priceCalls, priceCall{ticker, from, to})
	if err := f.priceErr[ticker]; err != nil {
		return nil, err
	}
	var out []model.DailyRecord
	for id, c := range f.closes[ticker] {
		d, _ := time.Parse(model.DateLayout, id)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, model.DailyRecord{
			Ticker: ticker, Date: d,
			Open: model.Float(c), Close: model.Float(c), AdjClose: model.Float(c),
		})
	}
	// Unordered on purpose; the updater sorts.
	return out, nil
}

func (f *fakeQuotes) Profile(ctx context.Context, ticker string) (*int64, *int64, error) {
	if errs := f.profileErrs[ticker]; len(errs) > 0 {
		f.profileErrs[ticker] = errs[1:]
		if errs[0] != nil {
			return nil, nil, errs[0]
		}
	}
	v, ok := f.profiles[ticker]
	if !ok {
		return nil, nil, nil
	}
	return model.Int(v), model.Int(v * 10), nil
}

func (f *fakeQuotes) IncomeStatement(ctx context.Context, ticker string) (*yahoo.Statement, error) {
	f.stmtCalls[ticker]++
	if f.emptyTimes[ticker] > 0 {
		f.emptyTimes[ticker]--
		return nil, fetch.ErrEmptyResult
	}
	st, ok := f.income[ticker]
	if !ok {
		return nil, errors.New("not found")
	}
	return st, nil
}

func (f *fakeQuotes) EPS(ctx context.Context, ticker string) (*yahoo.Statement, error) {
	st, ok := f.eps[ticker]
	if !ok {
		return nil, fetch.ErrEmptyResult
	}
	return st, nil
}

func statements(period, eps string) (*yahoo.Statement, *yahoo.Statement) {
	income := &yahoo.Statement{
		Header: [2]string{yahoo.ColPeriod, period},
		Rows: [][2]string{
			{yahoo.ColRevenue, "1000"},
			{yahoo.ColOperatingExpense, "200"},
			{yahoo.ColNetIncome, "300"},
		},
	}
	epsSt := &yahoo.Statement{
		Header: [2]string{yahoo.ColPeriod, yahoo.ColEPS},
		Rows:   [][2]string{{period, eps}},
	}
	return income, epsSt
}

func errEmpty() error { return fetch.ErrEmptyResult }
