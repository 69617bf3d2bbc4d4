// Package config provides configuration management for the research paper finder.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "PAPERFINDER"

// Config holds all configuration for the research paper finder.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Search contains term, fan-out and ranking bounds.
	Search SearchConfig `mapstructure:"search"`
	// Cache contains the shared result cache limits.
	Cache CacheConfig `mapstructure:"cache"`
	// Retry contains the retry policy applied to provider and AI calls.
	Retry RetryConfig `mapstructure:"retry"`
	// AI contains the text-completion collaborator settings.
	AI AIConfig `mapstructure:"ai"`
	// Providers contains per-provider API settings.
	Providers ProvidersConfig `mapstructure:"providers"`
	// Kafka contains search event publisher settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9090).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response. A search can
	// take several provider round trips, so this is larger than ReadTimeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the output format (json, console, pretty).
	Format string `mapstructure:"format"`
	// Output is the output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds caller information to log entries.
	AddSource bool `mapstructure:"add_source"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// SearchConfig holds the aggregation pipeline bounds.
type SearchConfig struct {
	// MaxSearchTerms caps the number of derived search terms.
	MaxSearchTerms int `mapstructure:"max_search_terms"`
	// MaxPapersPerTerm caps the results requested from each provider per term.
	MaxPapersPerTerm int `mapstructure:"max_papers_per_term"`
	// MaxTotalPapers caps a general search result.
	MaxTotalPapers int `mapstructure:"max_total_papers"`
	// MaxChatPapers caps the papers returned with a chat response.
	MaxChatPapers int `mapstructure:"max_chat_papers"`
	// MaxConcurrentSearches caps the terms dispatched per search.
	MaxConcurrentSearches int `mapstructure:"max_concurrent_searches"`
	// SearchDelay separates successive provider calls for the same term.
	SearchDelay time.Duration `mapstructure:"search_delay"`
	// RelevanceThreshold is the score difference under which citations decide ranking.
	RelevanceThreshold float64 `mapstructure:"relevance_threshold"`
	// MaxQueryLength bounds accepted user queries, in characters.
	MaxQueryLength int `mapstructure:"max_query_length"`
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	// TTL is the default entry lifetime.
	TTL time.Duration `mapstructure:"ttl"`
	// MaxEntries bounds the number of cached entries.
	MaxEntries int `mapstructure:"max_entries"`
	// SweepSchedule is the cron schedule for removing expired entries.
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// RetryConfig holds the retry policy.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per call.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BaseDelay is the wait after the first failure; later waits double.
	BaseDelay time.Duration `mapstructure:"base_delay"`
}

// AIConfig holds AI text-completion settings.
type AIConfig struct {
	// Provider is the completion provider (workersai, openai, anthropic, none).
	Provider string `mapstructure:"provider"`
	// Model overrides the provider's default model.
	Model string `mapstructure:"model"`
	// BaseURL overrides the provider's API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the provider API key (loaded from PAPERFINDER_AI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// AccountID is the Cloudflare account for Workers AI (loaded from PAPERFINDER_AI_ACCOUNT_ID env var).
	AccountID string `mapstructure:"-"`
	// MaxTokensTerms is the token budget for search term generation.
	MaxTokensTerms int `mapstructure:"max_tokens_terms"`
	// MaxTokensResponse is the token budget for chat summaries.
	MaxTokensResponse int `mapstructure:"max_tokens_response"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// Timeout is the timeout for a single completion call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig holds configuration for all paper providers.
type ProvidersConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv ProviderConfig `mapstructure:"arxiv"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar ProviderConfig `mapstructure:"semantic_scholar"`
	// PubMed contains NCBI E-utilities settings.
	PubMed ProviderConfig `mapstructure:"pubmed"`
	// DOAJ contains Directory of Open Access Journals settings.
	DOAJ ProviderConfig `mapstructure:"doaj"`
	// CORE contains CORE API settings.
	CORE ProviderConfig `mapstructure:"core"`
	// BASE contains Bielefeld Academic Search Engine settings.
	BASE ProviderConfig `mapstructure:"base"`
}

// ProviderConfig holds configuration for a single paper provider.
type ProviderConfig struct {
	// Enabled controls whether this provider is queried.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g. PAPERFINDER_PROVIDERS_CORE_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL. Empty uses the client default.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// Burst is the rate limiter burst size.
	Burst int `mapstructure:"burst"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent"`
}

// KafkaConfig holds Kafka publisher settings for search events.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic search events are published to.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and the default config
// file locations.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load but reads the given config file
// instead of searching the default locations. An empty path searches.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/paper-finder")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found is OK, we'll use env vars and defaults
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.AI.APIKey = os.Getenv(EnvPrefix + "_AI_API_KEY")
	cfg.AI.AccountID = os.Getenv(EnvPrefix + "_AI_ACCOUNT_ID")

	cfg.Providers.SemanticScholar.APIKey = os.Getenv(EnvPrefix + "_PROVIDERS_SEMANTIC_SCHOLAR_API_KEY")
	cfg.Providers.PubMed.APIKey = os.Getenv(EnvPrefix + "_PROVIDERS_PUBMED_API_KEY")
	cfg.Providers.CORE.APIKey = os.Getenv(EnvPrefix + "_PROVIDERS_CORE_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Search defaults
	v.SetDefault("search.max_search_terms", 5)
	v.SetDefault("search.max_papers_per_term", 10)
	v.SetDefault("search.max_total_papers", 20)
	v.SetDefault("search.max_chat_papers", 10)
	v.SetDefault("search.max_concurrent_searches", 3)
	v.SetDefault("search.search_delay", "100ms")
	v.SetDefault("search.relevance_threshold", 0.1)
	v.SetDefault("search.max_query_length", 500)

	// Cache defaults
	v.SetDefault("cache.ttl", "3600s")
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.sweep_schedule", "@every 5m")

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "1000ms")

	// AI defaults
	v.SetDefault("ai.provider", "none")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_tokens_terms", 200)
	v.SetDefault("ai.max_tokens_response", 500)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.timeout", "30s")

	// Provider defaults
	const userAgent = "Research-Paper-Finder/1.0"
	providers := map[string]float64{
		"arxiv":            0.34, // arXiv asks for at most one request every three seconds
		"semantic_scholar": 1,
		"pubmed":           3,
		"doaj":             2,
		"core":             2,
		"base":             1,
	}
	for name, rps := range providers {
		v.SetDefault("providers."+name+".enabled", true)
		v.SetDefault("providers."+name+".base_url", "")
		v.SetDefault("providers."+name+".timeout", "30s")
		v.SetDefault("providers."+name+".rate_limit", rps)
		v.SetDefault("providers."+name+".burst", 3)
		v.SetDefault("providers."+name+".user_agent", userAgent)
	}

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.paper_finder.searches")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Metrics.Enabled && (c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate search bounds
	bounds := []struct {
		name  string
		value int
	}{
		{"search max_search_terms", c.Search.MaxSearchTerms},
		{"search max_papers_per_term", c.Search.MaxPapersPerTerm},
		{"search max_total_papers", c.Search.MaxTotalPapers},
		{"search max_chat_papers", c.Search.MaxChatPapers},
		{"search max_concurrent_searches", c.Search.MaxConcurrentSearches},
		{"search max_query_length", c.Search.MaxQueryLength},
		{"cache max_entries", c.Cache.MaxEntries},
		{"retry max_attempts", c.Retry.MaxAttempts},
		{"ai max_tokens_terms", c.AI.MaxTokensTerms},
		{"ai max_tokens_response", c.AI.MaxTokensResponse},
	}
	for _, b := range bounds {
		if b.value <= 0 {
			return fmt.Errorf("%s must be positive", b.name)
		}
	}
	if c.Search.SearchDelay < 0 {
		return fmt.Errorf("search search_delay must not be negative")
	}
	if c.Search.RelevanceThreshold < 0 || c.Search.RelevanceThreshold > 1 {
		return fmt.Errorf("search relevance_threshold must be between 0 and 1")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry base_delay must be positive")
	}

	// Validate that the configured AI provider has its required credentials set.
	switch strings.ToLower(c.AI.Provider) {
	case "", "none":
	case "workersai":
		if c.AI.APIKey == "" || c.AI.AccountID == "" {
			return fmt.Errorf("AI provider %q requires %s_AI_API_KEY and %s_AI_ACCOUNT_ID to be set", c.AI.Provider, EnvPrefix, EnvPrefix)
		}
	case "openai", "anthropic":
		if c.AI.APIKey == "" {
			return fmt.Errorf("AI provider %q requires %s_AI_API_KEY to be set", c.AI.Provider, EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown AI provider: %s", c.AI.Provider)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}
