package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rickgao/stockdb/internal/fetch"
)

// Profile fetches shares outstanding and market capitalization. Either may be
// nil when the quote omits it.
func (c *Client) Profile(ctx context.Context, ticker string) (shares, marketCap *int64, err error) {
	query := url.Values{}
	query.Set("symbols", c.Symbol(ticker))

	var resp QuoteResponse
	if err := c.http.GetJSON(ctx, c.quoteURL, query, &resp); err != nil {
		return nil, nil, fmt.Errorf("get profile %s: %w", ticker, err)
	}
	if resp.QuoteResponse.Error != nil {
		return nil, nil, fmt.Errorf("get profile %s: %w", ticker, resp.QuoteResponse.Error)
	}

	for _, q := range resp.QuoteResponse.Result {
		if q.Symbol == "" || q.Symbol == c.Symbol(ticker) {
			return q.SharesOutstanding, q.MarketCap, nil
		}
	}

	return nil, nil, fmt.Errorf("get profile %s: %w", ticker, fetch.ErrEmptyResult)
}
