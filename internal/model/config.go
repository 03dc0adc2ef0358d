package model

import "time"

// Config holds the full runtime configuration
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	HTTP        HTTPConfig        `yaml:"http"`
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Index       IndexConfig       `yaml:"index"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// StoreConfig configures the SQLite claim record store
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// HTTPConfig configures outbound page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots"`
	RatePerSecond float64       `yaml:"rate_per_second"` // per-domain
	RateBurst     int           `yaml:"rate_burst"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty"`
}

// LLMConfig configures the claim-extraction model endpoint. Any
// OpenAI-compatible server works (OpenAI, OpenRouter, vLLM).
type LLMConfig struct {
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
	MaxChunks int    `yaml:"max_chunks"` // cap on chunks sent per page
	ChunkSize int    `yaml:"chunk_size"` // approximate words per chunk
}

// SearchConfig configures the external web and news search APIs
type SearchConfig struct {
	WebAPIKey   string `yaml:"web_api_key,omitempty"`
	WebEngineID string `yaml:"web_engine_id,omitempty"`
	NewsAPIKey  string `yaml:"news_api_key,omitempty"`
	WebBaseURL  string `yaml:"web_base_url,omitempty"`
	NewsBaseURL string `yaml:"news_base_url,omitempty"`
	NewsLimit   int    `yaml:"news_limit"`
}

// IndexConfig configures the BM25 topic index
type IndexConfig struct {
	TopicFile string `yaml:"topic_file"` // newline-delimited JSON records
}

// CacheConfig configures the in-memory layer in front of the store
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig configures worker pools
type ConcurrencyConfig struct {
	FetchWorkers int `yaml:"fetch_workers"`
}

// OutputConfig configures CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "search_db.db",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "HopWeaver/0.2 (+https://github.com/avolkov/hopweaver)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			RatePerSecond: 1.0,
			RateBurst:     3,
		},
		LLM: LLMConfig{
			Model:     "gpt-4o",
			Timeout:   60,
			MaxTokens: 1024,
			MaxChunks: 10,
			ChunkSize: 700,
		},
		Search: SearchConfig{
			NewsLimit: 100,
		},
		Index: IndexConfig{
			TopicFile: "target_topic.jsonl",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers: 4,
		},
		Output: OutputConfig{},
	}
}
