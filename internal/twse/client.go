package twse

import (
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/stockdb/internal/fetch"
)

const (
	defaultISINURL = "https://isin.twse.com.tw/isin/C_public.jsp?strMode=2"
	defaultBaseURL = "https://www.twse.com.tw/rwd/zh"
	defaultPause   = 2 * time.Second
)

// Client reads exchange sources through a shared fetch.Client.
type Client struct {
	http    *fetch.Client
	logger  *slog.Logger
	isinURL string
	baseURL string
	pause   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// New creates an exchange client on top of hc.
func New(hc *fetch.Client, opts ...Option) *Client {
	c := &Client{
		http:    hc,
		logger:  hc.Logger(),
		isinURL: defaultISINURL,
		baseURL: defaultBaseURL,
		pause:   defaultPause,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithISINURL overrides the listed company page URL.
func WithISINURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.isinURL = u
		}
	}
}

// WithBaseURL overrides the JSON report base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithPause sets the wait after each report request in Advanced.
func WithPause(d time.Duration) Option {
	return func(c *Client) {
		c.pause = d
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
