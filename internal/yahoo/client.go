package yahoo

import (
	"log/slog"
	"strings"

	"github.com/rickgao/stockdb/internal/fetch"
)

const (
	defaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultQuoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"
	defaultTWURL    = "https://tw.stock.yahoo.com/quote"
	defaultSuffix   = ".TW"
)

// Client reads Yahoo sources through a shared fetch.Client.
type Client struct {
	http     *fetch.Client
	logger   *slog.Logger
	chartURL string
	quoteURL string
	twURL    string
	suffix   string
}

// Option configures a Client.
type Option func(*Client)

// New creates a Yahoo client on top of hc.
func New(hc *fetch.Client, opts ...Option) *Client {
	c := &Client{
		http:     hc,
		logger:   hc.Logger(),
		chartURL: defaultChartURL,
		quoteURL: defaultQuoteURL,
		twURL:    defaultTWURL,
		suffix:   defaultSuffix,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithChartURL overrides the chart API base.
func WithChartURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.chartURL = strings.TrimRight(u, "/")
		}
	}
}

// WithQuoteURL overrides the quote API URL.
func WithQuoteURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.quoteURL = u
		}
	}
}

// WithTWURL overrides the quote page base.
func WithTWURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.twURL = strings.TrimRight(u, "/")
		}
	}
}

// WithSuffix sets the exchange suffix appended to tickers.
func WithSuffix(s string) Option {
	return func(c *Client) {
		c.suffix = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Symbol returns the Yahoo symbol for a ticker.
func (c *Client) Symbol(ticker string) string {
	return ticker + c.suffix
}
