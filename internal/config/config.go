package config

import "time"

// Config is the root configuration for a stockdb instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Database DBConfig       `yaml:"database"`
	Sources  SourcesConfig  `yaml:"sources"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sync     SyncConfig     `yaml:"sync"`
	Reports  ReportsConfig  `yaml:"reports"`
	LLM      LLMConfig      `yaml:"llm"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this instance in logs and run records.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SourcesConfig holds upstream endpoints.
type SourcesConfig struct {
	ISINURL       string `yaml:"isin_url"`        // Listed company table (Big5 HTML)
	TWSEURL       string `yaml:"twse_url"`        // Exchange JSON API base
	YahooChartURL string `yaml:"yahoo_chart_url"` // Daily price chart API base
	YahooQuoteURL string `yaml:"yahoo_quote_url"` // Quote API (shares, market cap)
	YahooTWURL    string `yaml:"yahoo_tw_url"`    // TW quote pages (income statement, EPS)
	MOPSURL       string `yaml:"mops_url"`        // Annual report document server
	MOPSFormPath  string `yaml:"mops_form_path"`
	TickerSuffix  string `yaml:"ticker_suffix"` // Appended to tickers for Yahoo (".TW")
}

// HTTPConfig holds outbound request settings.
type HTTPConfig struct {
	Timeout         time.Duration  `yaml:"timeout"`
	MaxRetries      int            `yaml:"max_retries"`
	RetryBackoff    time.Duration  `yaml:"retry_backoff"`
	RequestInterval *time.Duration `yaml:"request_interval"` // nil means DefaultRequestInterval
	UserAgent       string         `yaml:"user_agent"`
}

// SyncConfig holds incremental synchronization settings.
type SyncConfig struct {
	StartDate      string `yaml:"start_date"` // First date fetched into an empty store (YYYY-MM-DD)
	RenewQuarterly *bool  `yaml:"renew_quarterly"`
	BatchSize      int    `yaml:"batch_size"`
}

// ReportsConfig holds annual report download and indexing settings.
type ReportsConfig struct {
	PDFDir       string        `yaml:"pdf_dir"`
	IndexDir     string        `yaml:"index_dir"`
	ChunkSize    int           `yaml:"chunk_size"`
	ChunkOverlap *int          `yaml:"chunk_overlap"` // nil means DefaultChunkOverlap
	TopK         int           `yaml:"top_k"`
	MinWait      time.Duration `yaml:"min_wait"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

// LLMConfig holds Gemini settings.
type LLMConfig struct {
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float32 `yaml:"temperature"`
	BaseURL        string  `yaml:"base_url"` // Overrides the API endpoint
}

// CacheConfig holds the failure-set store. An empty RedisAddr keeps it in memory.
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// StartTime parses StartDate.
func (c *SyncConfig) StartTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.StartDate)
}

// Interval returns the pause between requests. An explicit zero disables
// pacing.
func (c *HTTPConfig) Interval() time.Duration {
	if c.RequestInterval == nil {
		return DefaultRequestInterval
	}
	return *c.RequestInterval
}

// Overlap returns the chunk overlap in runes. An explicit zero is kept.
func (c *ReportsConfig) Overlap() int {
	if c.ChunkOverlap == nil {
		return DefaultChunkOverlap
	}
	return *c.ChunkOverlap
}

// QuarterlyEnabled reports whether quarterly renewal runs by default.
func (c *SyncConfig) QuarterlyEnabled() bool {
	return c.RenewQuarterly == nil || *c.RenewQuarterly
}
