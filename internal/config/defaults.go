package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID      = "stockdb"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultISINURL         = "https://isin.twse.com.tw/isin/C_public.jsp?strMode=2"
	DefaultTWSEURL         = "https://www.twse.com.tw/rwd/zh"
	DefaultYahooChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultYahooQuoteURL   = "https://query1.finance.yahoo.com/v7/finance/quote"
	DefaultYahooTWURL      = "https://tw.stock.yahoo.com/quote"
	DefaultMOPSURL         = "https://doc.twse.com.tw"
	DefaultMOPSFormPath    = "/server-java/t57sb01"
	DefaultTickerSuffix    = ".TW"
	DefaultHTTPTimeout     = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = 2 * time.Second
	DefaultRequestInterval = 2 * time.Second
	DefaultUserAgent       = "Mozilla/5.0 (compatible; stockdb/1.0)"
	DefaultStartDate       = "2015-01-01"
	DefaultBatchSize       = 500
	DefaultPDFDir          = "data/pdf"
	DefaultIndexDir        = "data/index"
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 100
	DefaultTopK            = 2
	DefaultMinWait         = 2 * time.Second
	DefaultMaxWait         = 6 * time.Second
	DefaultLLMModel        = "gemini-2.5-flash"
	DefaultEmbeddingModel  = "text-embedding-004"
	DefaultKeyPrefix       = "stockdb:"
	DefaultLogLevel        = "info"
)

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Source defaults
	s := &c.Sources
	if s.ISINURL == "" {
		s.ISINURL = DefaultISINURL
	}
	if s.TWSEURL == "" {
		s.TWSEURL = DefaultTWSEURL
	}
	if s.YahooChartURL == "" {
		s.YahooChartURL = DefaultYahooChartURL
	}
	if s.YahooQuoteURL == "" {
		s.YahooQuoteURL = DefaultYahooQuoteURL
	}
	if s.YahooTWURL == "" {
		s.YahooTWURL = DefaultYahooTWURL
	}
	if s.MOPSURL == "" {
		s.MOPSURL = DefaultMOPSURL
	}
	if s.MOPSFormPath == "" {
		s.MOPSFormPath = DefaultMOPSFormPath
	}
	if s.TickerSuffix == "" {
		s.TickerSuffix = DefaultTickerSuffix
	}

	// HTTP defaults
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.HTTP.MaxRetries == 0 {
		c.HTTP.MaxRetries = DefaultMaxRetries
	}
	if c.HTTP.RetryBackoff == 0 {
		c.HTTP.RetryBackoff = DefaultRetryBackoff
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = DefaultUserAgent
	}

	// Sync defaults
	if c.Sync.StartDate == "" {
		c.Sync.StartDate = DefaultStartDate
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = DefaultBatchSize
	}

	// Report defaults
	r := &c.Reports
	if r.PDFDir == "" {
		r.PDFDir = DefaultPDFDir
	}
	if r.IndexDir == "" {
		r.IndexDir = DefaultIndexDir
	}
	if r.ChunkSize == 0 {
		r.ChunkSize = DefaultChunkSize
	}
	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}
	if r.MinWait == 0 {
		r.MinWait = DefaultMinWait
	}
	if r.MaxWait == 0 {
		r.MaxWait = DefaultMaxWait
	}

	// LLM defaults
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.EmbeddingModel == "" {
		c.LLM.EmbeddingModel = DefaultEmbeddingModel
	}

	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = DefaultKeyPrefix
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
