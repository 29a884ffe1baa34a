package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pricecomp/backend/internal/pricing"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Search     SearchConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Extraction ExtractionConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies lists IPs or CIDRs allowed to set X-Forwarded-For; empty trusts none
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// SearchConfig holds web search provider configuration
type SearchConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Country     string        `mapstructure:"country"`
	Language    string        `mapstructure:"language"`
	NumResults  int           `mapstructure:"num_results"`
	QuerySuffix string        `mapstructure:"query_suffix"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"` // requests per minute per client
	Search int `mapstructure:"search"` // outgoing search calls per hour
}

// ExtractionConfig holds the price plausibility bounds and result cap.
// Prices are decimal strings so they stay exact.
type ExtractionConfig struct {
	MinPrice    string `mapstructure:"min_price"`
	MaxPrice    string `mapstructure:"max_price"`
	ResultLimit int    `mapstructure:"result_limit"`
}

// Bounds parses the configured price range
func (e ExtractionConfig) Bounds() (pricing.Bounds, error) {
	return pricing.NewBounds(e.MinPrice, e.MaxPrice)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// NewLogger builds a logrus logger with the configured level and format
func (l LogConfig) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricecomp/")

	// Environment variable settings, e.g. PRICECOMP_SEARCH_API_KEY
	v.SetEnvPrefix("PRICECOMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports KEY=VALUE pairs from ./.env without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile() error {
	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.trusted_proxies", []string{})

	// Search defaults
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "https://google.serper.dev/search")
	v.SetDefault("search.country", "az")
	v.SetDefault("search.language", "az")
	v.SetDefault("search.num_results", 50)
	v.SetDefault("search.query_suffix", "qiymət satış al")
	v.SetDefault("search.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.search", 2500)

	// Extraction defaults
	v.SetDefault("extraction.min_price", pricing.DefaultMinPrice)
	v.SetDefault("extraction.max_price", pricing.DefaultMaxPrice)
	v.SetDefault("extraction.result_limit", pricing.DefaultResultLimit)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Search.APIKey == "" {
		return fmt.Errorf("search API key is required (set PRICECOMP_SEARCH_API_KEY)")
	}

	for _, proxy := range config.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("trusted proxy must be an IP or CIDR, got: %s", proxy)
			}
		}
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Search.NumResults <= 0 || config.Search.NumResults > 100 {
		return fmt.Errorf("search num_results must be between 1 and 100, got: %d", config.Search.NumResults)
	}

	if _, err := config.Extraction.Bounds(); err != nil {
		return fmt.Errorf("extraction bounds: %w", err)
	}

	if config.Extraction.ResultLimit <= 0 {
		return fmt.Errorf("extraction result_limit must be positive, got: %d", config.Extraction.ResultLimit)
	}

	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}
